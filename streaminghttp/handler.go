package streaminghttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"

	"github.com/ggoodman/open-meteo-mcp/internal/jsonrpc"
	"github.com/ggoodman/open-meteo-mcp/internal/logctx"
	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/sessions"
)

var (
	_ http.Handler = (*Handler)(nil)
)

var (
	jsonMediaType         = contenttype.NewMediaType("application/json")
	eventStreamMediaType  = contenttype.NewMediaType("text/event-stream")
	eventStreamMediaTypes = []contenttype.MediaType{eventStreamMediaType}
)

const (
	// Use canonical header names for clarity; Go matches headers case-insensitively.
	mcpSessionIDHeader       = "Mcp-Session-Id"
	mcpProtocolVersionHeader = "Mcp-Protocol-Version"

	transportName = "streamable-http"

	defaultKeepAlive = 25 * time.Second
	maxBodyBytes     = 4 << 20
)

// Error messages of the JSON-RPC envelopes written by the handler.
const (
	msgCapacity        = "Server at capacity, retry later"
	msgSessionNotFound = "Session not found"
	msgSessionRequired = "Bad Request: session id required"
	msgInternal        = "Internal server error"
	msgParseError      = "Parse error"
	msgUnsupportedType = "Unsupported Media Type: Content-Type must be application/json"
	msgBatch           = "Bad Request: batch requests are not supported"
	msgBadVersion      = "Bad Request: unsupported protocol version"
)

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithJSONResponse answers requests with an application/json body instead of
// a single-event SSE stream.
func WithJSONResponse(enabled bool) Option {
	return func(h *Handler) { h.jsonResponse = enabled }
}

// WithKeepAliveInterval sets the period of keepalive comments on GET streams.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.keepAlive = d
		}
	}
}

// Handler is the Request Dispatcher of the streaming HTTP transport.
type Handler struct {
	reg          *sessions.Registry
	log          *slog.Logger
	jsonResponse bool
	keepAlive    time.Duration
}

// New constructs a Handler routing requests to the sessions of reg.
func New(reg *sessions.Registry, opts ...Option) *Handler {
	h := &Handler{
		reg:       reg,
		log:       slog.Default(),
		keepAlive: defaultKeepAlive,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	}))

	switch r.Method {
	case http.MethodPost:
		h.handlePostMCP(w, r)
	case http.MethodGet:
		h.handleGetMCP(w, r)
	case http.MethodDelete:
		h.handleDeleteMCP(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// writeRPCError writes a JSON-RPC error envelope for failures that happen
// before a session runtime handles the message. A nil id is encoded as null.
func writeRPCError(w http.ResponseWriter, status int, id *jsonrpc.RequestID, code jsonrpc.ErrorCode, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(id, code, msg, nil))
}

// handlePostMCP handles the POST /mcp endpoint, which carries every client
// message and establishes sessions.
func (h *Handler) handlePostMCP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.DebugContext(ctx, "http.post.start")

	var reqID *jsonrpc.RequestID
	// pending is a session created by this request whose id has not been
	// handed to the client yet.
	var pending *sessions.Session
	wrote := false
	defer func() {
		if p := recover(); p != nil {
			h.log.ErrorContext(ctx, "http.post.panic", slog.Any("panic", p))
			if pending != nil {
				_ = pending.Runtime.Close()
			}
			if !wrote {
				writeRPCError(w, http.StatusInternalServerError, reqID, jsonrpc.ErrorCodeInternalError, msgInternal)
			}
		}
	}()

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeRPCError(w, http.StatusUnsupportedMediaType, nil, jsonrpc.ErrorCodeInvalidRequest, msgUnsupportedType)
		h.log.WarnContext(ctx, "content_type.unsupported")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, jsonrpc.ErrorCodeParseError, msgParseError)
		h.log.WarnContext(ctx, "json.decode.fail", slog.String("err", err.Error()))
		return
	}
	if len(raw) > 0 && raw[0] == '[' {
		writeRPCError(w, http.StatusBadRequest, nil, jsonrpc.ErrorCodeInvalidRequest, msgBatch)
		h.log.WarnContext(ctx, "jsonrpc.batch.forbidden")
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		code := jsonrpc.ErrorCodeParseError
		text := msgParseError
		if errors.Is(err, jsonrpc.ErrInvalidEnvelope) {
			code, text = jsonrpc.ErrorCodeInvalidRequest, "Invalid Request"
		}
		writeRPCError(w, http.StatusBadRequest, msg.ID, code, text)
		h.log.WarnContext(ctx, "jsonrpc.message.invalid", slog.String("err", err.Error()))
		return
	}
	reqID = msg.ID

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: msg.Method,
		ID:     msg.ID.String(),
		Type:   msg.Type(),
	})

	sessID := r.Header.Get(mcpSessionIDHeader)
	req := msg.AsRequest()

	switch {
	case sessID == "" && req != nil && !req.IsNotification() && req.Method == string(mcp.InitializeMethod):
		sess, err := h.reg.Create(ctx)
		if err != nil {
			if errors.Is(err, sessions.ErrCapacityExceeded) {
				writeRPCError(w, http.StatusServiceUnavailable, reqID, jsonrpc.ErrorCodeInternalError, msgCapacity)
				h.log.WarnContext(ctx, "session.create.capacity")
				return
			}
			writeRPCError(w, http.StatusInternalServerError, reqID, jsonrpc.ErrorCodeInternalError, msgInternal)
			h.log.ErrorContext(ctx, "session.create.fail", slog.String("err", err.Error()))
			return
		}
		pending = sess
		ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID, Transport: transportName})

		res := sess.Runtime.Handle(ctx, req)
		if res.Error != nil {
			// A session that failed to initialize is never handed to the client.
			_ = sess.Runtime.Close()
			wrote = true
			h.writeResponse(ctx, w, res)
			h.log.WarnContext(ctx, "session.initialize.fail", slog.String("err", res.Error.Message))
			return
		}
		pending = nil
		w.Header().Set(mcpSessionIDHeader, sess.ID)
		w.Header().Set(mcpProtocolVersionHeader, sess.Runtime.ProtocolVersion())
		wrote = true
		h.writeResponse(ctx, w, res)
		h.log.InfoContext(ctx, "session.initialize.ok", slog.Duration("dur", time.Since(start)))
		return

	case sessID == "":
		writeRPCError(w, http.StatusBadRequest, reqID, jsonrpc.ErrorCodeInvalidRequest, msgSessionRequired)
		h.log.InfoContext(ctx, "session.id.missing")
		return
	}

	sess, err := h.reg.Get(sessID)
	if err != nil {
		writeRPCError(w, http.StatusNotFound, reqID, jsonrpc.ErrorCodeInvalidRequest, msgSessionNotFound)
		h.log.InfoContext(ctx, "session.load.miss")
		return
	}
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID, Transport: transportName})

	if pv := r.Header.Get(mcpProtocolVersionHeader); pv != "" && !slices.Contains(mcp.SupportedProtocolVersions, pv) {
		writeRPCError(w, http.StatusBadRequest, reqID, jsonrpc.ErrorCodeInvalidRequest, msgBadVersion)
		h.log.WarnContext(ctx, "protocol.version.unsupported", slog.String("client_version", pv))
		return
	}

	if req == nil {
		// Responses to server-initiated requests; the server never sends any.
		w.WriteHeader(http.StatusAccepted)
		h.log.DebugContext(ctx, "response.inbound.ignored")
		return
	}

	if req.IsNotification() {
		sess.Runtime.Handle(ctx, req)
		w.WriteHeader(http.StatusAccepted)
		h.log.DebugContext(ctx, "notification.inbound.ok", slog.Duration("dur", time.Since(start)))
		return
	}

	res := sess.Runtime.Handle(ctx, req)
	if ctx.Err() != nil {
		h.log.InfoContext(ctx, "http.post.abandoned", slog.Duration("dur", time.Since(start)))
		return
	}
	if pv := sess.Runtime.ProtocolVersion(); pv != "" {
		w.Header().Set(mcpProtocolVersionHeader, pv)
	}
	wrote = true
	h.writeResponse(ctx, w, res)
	h.log.InfoContext(ctx, "http.post.ok", slog.Duration("dur", time.Since(start)))
}

// writeResponse encodes a runtime response as JSON or as a single SSE event.
func (h *Handler) writeResponse(ctx context.Context, w http.ResponseWriter, res *jsonrpc.Response) {
	b, err := json.Marshal(res)
	if err != nil {
		h.log.ErrorContext(ctx, "rpc.response.marshal.fail", slog.String("err", err.Error()))
		writeRPCError(w, http.StatusInternalServerError, res.ID, jsonrpc.ErrorCodeInternalError, msgInternal)
		return
	}

	f, canFlush := w.(http.Flusher)
	if h.jsonResponse || !canFlush {
		w.Header().Set("Content-Type", jsonMediaType.String())
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(b); err != nil {
			h.log.ErrorContext(ctx, "http.write.fail", slog.String("err", err.Error()))
		}
		return
	}

	wf := &lockedWriteFlusher{Writer: w, Flusher: f, ctx: ctx}
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := writeSSEEvent(wf, b); err != nil {
		h.log.ErrorContext(ctx, "sse.write.fail", slog.String("err", err.Error()))
	}
}

// handleGetMCP handles the GET /mcp endpoint. The server never initiates
// messages, so the stream only carries keepalive comments until the client
// disconnects or the session closes.
func (h *Handler) handleGetMCP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if _, _, err := contenttype.GetAcceptableMediaType(r, eventStreamMediaTypes); err != nil {
		w.WriteHeader(http.StatusNotAcceptable)
		h.log.WarnContext(ctx, "http.get.unsupported_media_type")
		return
	}

	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		writeRPCError(w, http.StatusBadRequest, nil, jsonrpc.ErrorCodeInvalidRequest, msgSessionRequired)
		h.log.WarnContext(ctx, "session.id.missing")
		return
	}
	sess, err := h.reg.Get(sessID)
	if err != nil {
		writeRPCError(w, http.StatusNotFound, nil, jsonrpc.ErrorCodeInvalidRequest, msgSessionNotFound)
		h.log.InfoContext(ctx, "session.load.miss")
		return
	}
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID, Transport: transportName})

	f, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.ErrorContext(ctx, "sse.flusher.missing")
		return
	}
	wf := &lockedWriteFlusher{Writer: w, Flusher: f, ctx: ctx}

	if pv := sess.Runtime.ProtocolVersion(); pv != "" {
		w.Header().Set(mcpProtocolVersionHeader, pv)
	}
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	wf.Flush()
	h.log.InfoContext(ctx, "sse.stream.start")

	tick := time.NewTicker(h.keepAlive)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoContext(ctx, "sse.stream.end", slog.String("reason", "client"), slog.Duration("dur", time.Since(start)))
			return
		case <-sess.Runtime.Done():
			h.log.InfoContext(ctx, "sse.stream.end", slog.String("reason", "session_closed"), slog.Duration("dur", time.Since(start)))
			return
		case <-tick.C:
			if err := writeSSEComment(wf, "keepalive"); err != nil {
				h.log.DebugContext(ctx, "sse.write.fail", slog.String("err", err.Error()))
				return
			}
		}
	}
}

// handleDeleteMCP handles the DELETE /mcp endpoint, which terminates an
// existing session.
func (h *Handler) handleDeleteMCP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.DebugContext(ctx, "http.delete.start")

	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		writeRPCError(w, http.StatusBadRequest, nil, jsonrpc.ErrorCodeInvalidRequest, msgSessionRequired)
		h.log.WarnContext(ctx, "delete.missing_session_id")
		return
	}

	sess, err := h.reg.Get(sessID)
	if err != nil {
		writeRPCError(w, http.StatusNotFound, nil, jsonrpc.ErrorCodeInvalidRequest, msgSessionNotFound)
		h.log.InfoContext(ctx, "session.delete.miss")
		return
	}
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID, Transport: transportName})

	if err := sess.Runtime.Close(); err != nil {
		h.log.WarnContext(ctx, "session.close.fail", slog.String("err", err.Error()))
	}
	h.reg.Remove(sess.ID)

	w.WriteHeader(http.StatusNoContent)
	h.log.InfoContext(ctx, "http.delete.ok", slog.Duration("dur", time.Since(start)))
}
