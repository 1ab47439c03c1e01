package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ggoodman/open-meteo-mcp/internal/jsonrpc"
	"github.com/ggoodman/open-meteo-mcp/internal/logctx"
	"github.com/ggoodman/open-meteo-mcp/mcp"
)

// Transport is the connection a Runtime is bound to. Close must be safe to
// call once; the Runtime never calls it twice.
type Transport interface {
	SessionID() string
	Close() error
}

// Invoker executes tool calls. Invoke never fails at the protocol level: tool
// faults are reported through CallToolResult.IsError.
type Invoker interface {
	Tools() []mcp.Tool
	Invoke(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult
}

var (
	// ErrSessionClosed is the cancellation cause of calls interrupted by Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrRequestCancelled is the cancellation cause of calls interrupted by
	// notifications/cancelled.
	ErrRequestCancelled = errors.New("request cancelled by client")
)

// Runtime is one MCP protocol server bound to one transport.
type Runtime struct {
	transport    Transport
	invoker      Invoker
	tools        []mcp.Tool
	info         mcp.ImplementationInfo
	instructions string
	log          *slog.Logger

	mu              sync.Mutex
	state           State
	protocolVersion string
	clientReady     bool
	listeners       []Listener
	inflight        map[string]context.CancelCauseFunc

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// New binds a fresh Runtime to t. The invoker's catalogue is copied here and
// the copy is served for the Runtime's lifetime.
func New(t Transport, inv Invoker, opts ...Option) *Runtime {
	r := &Runtime{
		transport: t,
		invoker:   inv,
		info:      mcp.ImplementationInfo{Name: "open-meteo-mcp-server", Version: "1.0.0"},
		log:       slog.Default(),
		state:     StateCreated,
		inflight:  make(map[string]context.CancelCauseFunc),
		done:      make(chan struct{}),
	}
	r.tools = append([]mcp.Tool(nil), inv.Tools()...)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the id reported by the bound transport.
func (r *Runtime) SessionID() string { return r.transport.SessionID() }

// State returns the current lifecycle state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ProtocolVersion returns the negotiated protocol version, or "" before
// initialize.
func (r *Runtime) ProtocolVersion() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.protocolVersion
}

// ClientReady reports whether notifications/initialized was received.
func (r *Runtime) ClientReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientReady
}

// Done is closed once the Runtime is closed.
func (r *Runtime) Done() <-chan struct{} { return r.done }

// Tools returns the catalogue served by tools/list.
func (r *Runtime) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), r.tools...)
}

// Handle processes one inbound request or notification. It returns nil for
// notifications.
func (r *Runtime) Handle(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	msgType := jsonrpc.TypeRequest
	if req.IsNotification() {
		msgType = jsonrpc.TypeNotification
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: msgType})
	log := r.log.With(slog.String("method", req.Method))

	if msgType == jsonrpc.TypeNotification {
		r.handleNotification(ctx, req)
		return nil
	}

	res := r.handleRequest(ctx, req)
	if res.Error != nil {
		log.DebugContext(ctx, "rpc.inbound.fail",
			slog.Int("code", int(res.Error.Code)),
			slog.String("err", res.Error.Message),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return res
	}
	log.DebugContext(ctx, "rpc.inbound.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return res
}

func (r *Runtime) handleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	state := r.State()
	if state == StateClosed {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session closed", nil)
	}

	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		return r.handleInitialize(ctx, req)
	case mcp.PingMethod:
		return r.result(req, mcp.EmptyResult{})
	case mcp.ToolsListMethod, mcp.ToolsCallMethod:
		if state != StateInitialized {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session not initialized", nil)
		}
	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}

	if mcp.Method(req.Method) == mcp.ToolsListMethod {
		return r.result(req, mcp.ListToolsResult{Tools: r.Tools()})
	}
	return r.handleToolCall(ctx, req)
}

func (r *Runtime) handleInitialize(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var initReq mcp.InitializeRequest
	if err := json.Unmarshal(req.Params, &initReq); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", err.Error())
	}
	if initReq.ProtocolVersion == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", "protocolVersion is required")
	}

	version := mcp.NegotiateProtocolVersion(initReq.ProtocolVersion)

	r.mu.Lock()
	if r.state != StateCreated {
		r.mu.Unlock()
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session already initialized", nil)
	}
	r.protocolVersion = version
	r.state = StateInitialized
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()
	r.notify(listeners, StateCreated, StateInitialized)

	r.log.InfoContext(ctx, "session.initialize",
		slog.String("client", initReq.ClientInfo.Name),
		slog.String("client_version", initReq.ClientInfo.Version),
		slog.String("requested_version", initReq.ProtocolVersion),
		slog.String("protocol_version", version))

	return r.result(req, mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities: mcp.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged"`
			}{},
		},
		ServerInfo:   r.info,
		Instructions: r.instructions,
	})
}

func (r *Runtime) handleToolCall(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var call mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", err.Error())
	}
	if call.Name == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", "name is required")
	}

	callCtx, cancel := context.WithCancelCause(ctx)
	key := req.ID.Key()
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		cancel(ErrSessionClosed)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session closed", nil)
	}
	if _, dup := r.inflight[key]; dup {
		r.mu.Unlock()
		cancel(nil)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "request id already in flight", nil)
	}
	r.inflight[key] = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, key)
		r.mu.Unlock()
		cancel(nil)
	}()

	return r.result(req, r.Dispatch(callCtx, call.Name, call.Arguments))
}

// Dispatch runs one tool call through the invoker.
func (r *Runtime) Dispatch(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	return r.invoker.Invoke(ctx, name, args)
}

func (r *Runtime) handleNotification(ctx context.Context, req *jsonrpc.Request) {
	switch mcp.Method(req.Method) {
	case mcp.InitializedNotificationMethod:
		r.mu.Lock()
		r.clientReady = true
		r.mu.Unlock()
	case mcp.CancelledNotificationMethod:
		var n mcp.CancelledNotification
		if err := json.Unmarshal(req.Params, &n); err != nil {
			r.log.DebugContext(ctx, "rpc.cancel.invalid", slog.String("err", err.Error()))
			return
		}
		var id jsonrpc.RequestID
		if err := json.Unmarshal(n.RequestID, &id); err != nil || id.IsNil() {
			return
		}
		r.mu.Lock()
		cancel, ok := r.inflight[id.Key()]
		r.mu.Unlock()
		if ok {
			cancel(ErrRequestCancelled)
			r.log.DebugContext(ctx, "rpc.cancel.ok", slog.String("request_id", id.String()), slog.String("reason", n.Reason))
		}
	default:
		r.log.DebugContext(ctx, "rpc.notification.ignored")
	}
}

// Close cancels in-flight calls, closes the transport and moves the Runtime
// to StateClosed. Repeated calls return the first result.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		from := r.state
		r.state = StateClosed
		cancels := make([]context.CancelCauseFunc, 0, len(r.inflight))
		for _, c := range r.inflight {
			cancels = append(cancels, c)
		}
		r.inflight = map[string]context.CancelCauseFunc{}
		listeners := append([]Listener(nil), r.listeners...)
		r.listeners = nil
		r.mu.Unlock()

		for _, c := range cancels {
			c(ErrSessionClosed)
		}
		close(r.done)
		if err := r.transport.Close(); err != nil {
			r.closeErr = fmt.Errorf("close transport: %w", err)
		}
		r.notify(listeners, from, StateClosed)
	})
	return r.closeErr
}

func (r *Runtime) notify(listeners []Listener, from, to State) {
	id := r.transport.SessionID()
	for _, l := range listeners {
		l(id, from, to)
	}
}

func (r *Runtime) result(req *jsonrpc.Request, v any) *jsonrpc.Response {
	res, err := jsonrpc.NewResultResponse(req.ID, v)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return res
}
