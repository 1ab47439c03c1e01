package streaminghttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ggoodman/open-meteo-mcp/internal/jsonrpc"
	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/mcpserver"
	"github.com/ggoodman/open-meteo-mcp/sessions"
)

type echoInvoker struct {
	panicOn string
}

func (echoInvoker) Tools() []mcp.Tool {
	return []mcp.Tool{{Name: "echo", InputSchema: mcp.ToolInputSchema{Type: "object"}}}
}

func (e echoInvoker) Invoke(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	if name == e.panicOn {
		panic("tool exploded")
	}
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: string(args)}}}
}

type harness struct {
	t   *testing.T
	srv *httptest.Server
	reg *sessions.Registry
}

func newHarness(t *testing.T, regOpts []sessions.Option, opts ...Option) *harness {
	t.Helper()
	reg := sessions.New(SessionFactory(echoInvoker{panicOn: "boom"}), regOpts...)
	srv := httptest.NewServer(New(reg, opts...))
	t.Cleanup(func() {
		srv.Close()
		_ = reg.Stop(context.Background())
	})
	return &harness{t: t, srv: srv, reg: reg}
}

func (h *harness) post(sessID string, body string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequestWithContext(h.t.Context(), http.MethodPost, h.srv.URL, strings.NewReader(body))
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessID != "" {
		req.Header.Set(mcpSessionIDHeader, sessID)
	}
	res, err := h.srv.Client().Do(req)
	if err != nil {
		h.t.Fatalf("post: %v", err)
	}
	h.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func (h *harness) do(method, sessID string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequestWithContext(h.t.Context(), method, h.srv.URL, nil)
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	if sessID != "" {
		req.Header.Set(mcpSessionIDHeader, sessID)
	}
	res, err := h.srv.Client().Do(req)
	if err != nil {
		h.t.Fatalf("%s: %v", method, err)
	}
	h.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

const initializeBody = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`

// decodeResponse reads a JSON-RPC response from either a JSON body or a
// single-event SSE body.
func decodeResponse(t *testing.T, res *http.Response) *jsonrpc.Response {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	payload := body
	if strings.HasPrefix(res.Header.Get("Content-Type"), "text/event-stream") {
		payload = nil
		sc := bufio.NewScanner(bytes.NewReader(body))
		for sc.Scan() {
			if data, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
				payload = []byte(data)
				break
			}
		}
		if payload == nil {
			t.Fatalf("no data line in SSE body %q", body)
		}
	}
	var out jsonrpc.Response
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode %q: %v", payload, err)
	}
	return &out
}

func (h *harness) initialize() string {
	h.t.Helper()
	res := h.post("", initializeBody)
	if res.StatusCode != http.StatusOK {
		h.t.Fatalf("initialize status = %d", res.StatusCode)
	}
	sessID := res.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		h.t.Fatalf("initialize did not return a session id")
	}
	if rpc := decodeResponse(h.t, res); rpc.Error != nil {
		h.t.Fatalf("initialize error: %+v", rpc.Error)
	}
	return sessID
}

func expectRPCError(t *testing.T, res *http.Response, status int, code jsonrpc.ErrorCode, msg string) *jsonrpc.Response {
	t.Helper()
	if res.StatusCode != status {
		t.Fatalf("status = %d, want %d", res.StatusCode, status)
	}
	rpc := decodeResponse(t, res)
	if rpc.Error == nil || rpc.Error.Code != code {
		t.Fatalf("error = %+v, want code %d", rpc.Error, code)
	}
	if msg != "" && rpc.Error.Message != msg {
		t.Fatalf("message = %q, want %q", rpc.Error.Message, msg)
	}
	return rpc
}

func TestInitializeCreatesSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	res := h.post("", initializeBody)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}
	if res.Header.Get(mcpProtocolVersionHeader) != mcp.LatestProtocolVersion {
		t.Fatalf("protocol version header = %q", res.Header.Get(mcpProtocolVersionHeader))
	}
	rpc := decodeResponse(t, res)
	var result mcp.InitializeResult
	if err := json.Unmarshal(rpc.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ServerInfo.Name != "open-meteo-mcp-server" {
		t.Fatalf("server info = %+v", result.ServerInfo)
	}
	if _, err := h.reg.Get(res.Header.Get(mcpSessionIDHeader)); err != nil {
		t.Fatalf("session not registered: %v", err)
	}
}

func TestJSONResponseMode(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, WithJSONResponse(true))
	res := h.post("", initializeBody)
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	if rpc := decodeResponse(t, res); rpc.Error != nil || rpc.ID.String() != "1" {
		t.Fatalf("unexpected response: %+v", rpc)
	}
}

func TestToolCallRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	sessID := h.initialize()

	res := h.post(sessID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("notification status = %d", res.StatusCode)
	}

	res = h.post(sessID, `{"jsonrpc":"2.0","id":"call-1","method":"tools/call","params":{"name":"echo","arguments":{"x":1}}}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	rpc := decodeResponse(t, res)
	if rpc.ID.String() != "call-1" {
		t.Fatalf("id = %q", rpc.ID.String())
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(rpc.Result, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Content[0].Text != `{"x":1}` {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSessionIDRequired(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	res := h.post("", `{"jsonrpc":"2.0","id":5,"method":"tools/list"}`)
	rpc := expectRPCError(t, res, http.StatusBadRequest, jsonrpc.ErrorCodeInvalidRequest, msgSessionRequired)
	if rpc.ID.String() != "5" {
		t.Fatalf("id = %q, want 5", rpc.ID.String())
	}
	if h.reg.Len() != 0 {
		t.Fatalf("registry should be empty")
	}
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	res := h.post("does-not-exist", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	expectRPCError(t, res, http.StatusNotFound, jsonrpc.ErrorCodeInvalidRequest, msgSessionNotFound)
}

func TestCapacityExceeded(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []sessions.Option{sessions.WithMaxSessions(1)})
	h.initialize()

	res := h.post("", initializeBody)
	rpc := expectRPCError(t, res, http.StatusServiceUnavailable, jsonrpc.ErrorCodeInternalError, msgCapacity)
	if rpc.ID.String() != "1" {
		t.Fatalf("id = %q, want 1", rpc.ID.String())
	}
	if res.Header.Get(mcpSessionIDHeader) != "" {
		t.Fatalf("no session id expected on rejection")
	}
	if h.reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.reg.Len())
	}
}

func TestFailedInitializeDiscardsSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	res := h.post("", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":7}}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Header.Get(mcpSessionIDHeader) != "" {
		t.Fatalf("failed initialize must not return a session id")
	}
	if rpc := decodeResponse(t, res); rpc.Error == nil || rpc.Error.Code != jsonrpc.ErrorCodeInvalidParams {
		t.Fatalf("unexpected response: %+v", rpc)
	}
	if h.reg.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.reg.Len())
	}
}

func TestEnvelopeErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	t.Run("parse error", func(t *testing.T) {
		res := h.post("", `{"jsonrpc":`)
		rpc := expectRPCError(t, res, http.StatusBadRequest, jsonrpc.ErrorCodeParseError, "")
		if !rpc.ID.IsNil() {
			t.Fatalf("id should be null")
		}
	})
	t.Run("batch", func(t *testing.T) {
		res := h.post("", `[`+initializeBody+`]`)
		expectRPCError(t, res, http.StatusBadRequest, jsonrpc.ErrorCodeInvalidRequest, msgBatch)
	})
	t.Run("no method and no id", func(t *testing.T) {
		res := h.post("", `{"jsonrpc":"2.0"}`)
		expectRPCError(t, res, http.StatusBadRequest, jsonrpc.ErrorCodeInvalidRequest, "")
	})
	t.Run("content type", func(t *testing.T) {
		req, _ := http.NewRequestWithContext(t.Context(), http.MethodPost, h.srv.URL, strings.NewReader(initializeBody))
		req.Header.Set("Content-Type", "text/plain")
		res, err := h.srv.Client().Do(req)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer res.Body.Close()
		expectRPCError(t, res, http.StatusUnsupportedMediaType, jsonrpc.ErrorCodeInvalidRequest, "")
	})
	t.Run("method not allowed", func(t *testing.T) {
		res := h.do(http.MethodPut, "")
		if res.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})
}

func TestUnsupportedProtocolVersionHeader(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	sessID := h.initialize()

	req, _ := http.NewRequestWithContext(t.Context(), http.MethodPost, h.srv.URL, strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"ping"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(mcpSessionIDHeader, sessID)
	req.Header.Set(mcpProtocolVersionHeader, "1999-01-01")
	res, err := h.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	expectRPCError(t, res, http.StatusBadRequest, jsonrpc.ErrorCodeInvalidRequest, msgBadVersion)
}

func TestPanicIsRecovered(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	sessID := h.initialize()

	res := h.post(sessID, `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"boom"}}`)
	rpc := expectRPCError(t, res, http.StatusInternalServerError, jsonrpc.ErrorCodeInternalError, msgInternal)
	if rpc.ID.String() != "9" {
		t.Fatalf("id = %q, want 9", rpc.ID.String())
	}
}

func TestPanicDuringInitializeClosesSession(t *testing.T) {
	t.Parallel()

	var rt atomic.Pointer[mcpserver.Runtime]
	explode := mcpserver.WithListener(func(_ string, _, to mcpserver.State) {
		if to == mcpserver.StateInitialized {
			panic("listener exploded")
		}
	})
	base := SessionFactory(echoInvoker{}, explode)
	reg := sessions.New(func(id string, opts ...mcpserver.Option) (*mcpserver.Runtime, error) {
		r, err := base(id, opts...)
		rt.Store(r)
		return r, err
	})
	srv := httptest.NewServer(New(reg))
	t.Cleanup(func() {
		srv.Close()
		_ = reg.Stop(context.Background())
	})
	h := &harness{t: t, srv: srv, reg: reg}

	res := h.post("", initializeBody)
	expectRPCError(t, res, http.StatusInternalServerError, jsonrpc.ErrorCodeInternalError, msgInternal)
	if got := res.Header.Get(mcpSessionIDHeader); got != "" {
		t.Fatalf("session id %q leaked to the client", got)
	}
	if reg.Len() != 0 {
		t.Fatalf("Len = %d, want 0", reg.Len())
	}
	if r := rt.Load(); r == nil || r.State() != mcpserver.StateClosed {
		t.Fatalf("runtime was not closed")
	}
}

func TestDeleteThenPost(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	sessID := h.initialize()

	if res := h.do(http.MethodDelete, sessID); res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", res.StatusCode)
	}
	if h.reg.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.reg.Len())
	}
	res := h.post(sessID, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	expectRPCError(t, res, http.StatusNotFound, jsonrpc.ErrorCodeInvalidRequest, msgSessionNotFound)

	if res := h.do(http.MethodDelete, sessID); res.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d", res.StatusCode)
	}
	if res := h.do(http.MethodDelete, ""); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete without id status = %d", res.StatusCode)
	}
}

func TestGetStreamEndsWhenSessionCloses(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, WithKeepAliveInterval(10*time.Millisecond))
	sessID := h.initialize()

	res := h.do(http.MethodGet, sessID)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	br := bufio.NewReader(res.Body)
	line, err := br.ReadString('\n')
	if err != nil || line != ": keepalive\n" {
		t.Fatalf("first line = %q, err = %v", line, err)
	}

	sess, err := h.reg.Get(sessID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_ = sess.Runtime.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, br)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream ended with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after session close")
	}
}

func TestGetRequiresSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	if res := h.do(http.MethodGet, ""); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if res := h.do(http.MethodGet, "missing"); res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.StatusCode)
	}
}

func TestTransportClose(t *testing.T) {
	t.Parallel()

	tr := NewTransport("abc")
	if tr.SessionID() != "abc" {
		t.Fatalf("SessionID = %q", tr.SessionID())
	}
	_ = tr.Close()
	_ = tr.Close()
	select {
	case <-tr.Closed():
	default:
		t.Fatal("Closed channel not closed")
	}
}
