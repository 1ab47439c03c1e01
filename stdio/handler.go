package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/open-meteo-mcp/internal/jsonrpc"
	"github.com/ggoodman/open-meteo-mcp/internal/logctx"
	"github.com/ggoodman/open-meteo-mcp/mcpserver"
)

const (
	transportName = "stdio"

	initialLineBuffer = 64 << 10
	maxLineBytes      = 16 << 20
)

// Handler is a single-connection stdio transport that reads JSON-RPC
// messages from an io.Reader and writes responses to an io.Writer. By
// default, it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; MCP semantics live in the mcpserver.Runtime
// it creates around the provided invoker.
type Handler struct {
	inv         mcpserver.Invoker
	r           io.Reader
	w           io.Writer
	l           *slog.Logger
	runtimeOpts []mcpserver.Option

	writeMu sync.Mutex
	served  atomic.Bool
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(inv mcpserver.Invoker, opts ...Option) *Handler {
	h := &Handler{
		inv: inv,
		r:   os.Stdin,
		w:   os.Stdout,
		l:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// transport binds the runtime to the process pipe. Closing it does not close
// stdin or stdout; the process owns those.
type transport struct {
	closed atomic.Bool
}

func (t *transport) SessionID() string { return "" }

func (t *transport) Close() error {
	t.closed.Store(true)
	return nil
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It waits for in-flight requests, closes the runtime and returns
// nil in both cases. A read failure other than EOF is returned. Serve may be
// called at most once per Handler.
func (h *Handler) Serve(ctx context.Context) error {
	if !h.served.CompareAndSwap(false, true) {
		return errors.New("stdio: Serve called more than once")
	}

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{Transport: transportName})
	opts := append([]mcpserver.Option{mcpserver.WithLogger(h.l)}, h.runtimeOpts...)
	rt := mcpserver.New(&transport{}, h.inv, opts...)

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		if err := rt.Close(); err != nil {
			h.l.WarnContext(ctx, "stdio.close.fail", slog.String("err", err.Error()))
		}
	}()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go h.readLoop(reqCtx, lines, readErr)

	h.l.InfoContext(ctx, "stdio.serve.start")
	for {
		select {
		case <-ctx.Done():
			h.l.InfoContext(ctx, "stdio.serve.end", slog.String("reason", "context"))
			return nil
		case err := <-readErr:
			if err != nil {
				h.l.ErrorContext(ctx, "stdio.read.fail", slog.String("err", err.Error()))
				return fmt.Errorf("stdio: read: %w", err)
			}
			h.l.InfoContext(ctx, "stdio.serve.end", slog.String("reason", "eof"))
			return nil
		case line := <-lines:
			h.handleLine(reqCtx, rt, line, &wg)
		}
	}
}

// readLoop scans lines until EOF and reports the terminal error, nil on EOF.
func (h *Handler) readLoop(ctx context.Context, lines chan<- []byte, done chan<- error) {
	sc := bufio.NewScanner(h.r)
	sc.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		// The scanner reuses its buffer.
		cp := append([]byte(nil), line...)
		select {
		case lines <- cp:
		case <-ctx.Done():
			return
		}
	}
	done <- sc.Err()
}

func (h *Handler) handleLine(ctx context.Context, rt *mcpserver.Runtime, line []byte, wg *sync.WaitGroup) {
	if line[0] == '[' {
		h.writeMessage(ctx, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, "batch requests are not supported", nil))
		h.l.WarnContext(ctx, "jsonrpc.batch.forbidden")
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		code, text := jsonrpc.ErrorCodeParseError, "Parse error"
		id := msg.ID
		if errors.Is(err, jsonrpc.ErrInvalidEnvelope) {
			code, text = jsonrpc.ErrorCodeInvalidRequest, "Invalid Request"
		} else {
			id = nil
		}
		h.writeMessage(ctx, jsonrpc.NewErrorResponse(id, code, text, nil))
		h.l.WarnContext(ctx, "jsonrpc.message.invalid", slog.String("err", err.Error()))
		return
	}

	req := msg.AsRequest()
	if req == nil {
		h.l.DebugContext(ctx, "response.inbound.ignored")
		return
	}

	if req.IsNotification() {
		// Notifications run inline so that ordering relative to later
		// requests is preserved.
		rt.Handle(ctx, req)
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				h.l.ErrorContext(ctx, "stdio.request.panic", slog.Any("panic", p))
				h.writeMessage(ctx, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "Internal server error", nil))
			}
		}()

		res := rt.Handle(ctx, req)
		if ctx.Err() != nil {
			h.l.InfoContext(ctx, "stdio.request.abandoned", slog.Duration("dur", time.Since(start)))
			return
		}
		h.writeMessage(ctx, res)
	}()
}

// writeMessage writes one JSON value followed by a newline. Concurrent
// writers never interleave.
func (h *Handler) writeMessage(ctx context.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.marshal.fail", slog.String("err", err.Error()))
		return
	}
	b = append(b, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(b); err != nil {
		h.l.ErrorContext(ctx, "stdio.write.fail", slog.String("err", err.Error()))
	}
}
