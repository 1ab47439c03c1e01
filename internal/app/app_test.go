package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ggoodman/open-meteo-mcp/cache"
	"github.com/ggoodman/open-meteo-mcp/internal/config"
	"github.com/ggoodman/open-meteo-mcp/internal/jsonrpc"
	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

func testConfig(upstream string) *config.Config {
	return &config.Config{
		BaseURLs:             openmeteo.AllHosts(upstream),
		Cache:                cache.Config{Backend: cache.BackendMemory, TTL: time.Minute, Size: 16},
		UpstreamTimeout:      5 * time.Second,
		UpstreamMaxRetries:   0,
		Transport:            config.TransportHTTP,
		Host:                 "127.0.0.1",
		Port:                 3000,
		SessionIdleTTL:       time.Hour,
		MaxSessions:          10,
		SessionSweepInterval: time.Minute,
		MetricsEnabled:       true,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(t.Context(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// fakeUpstream serves a canned forecast and counts requests.
func fakeUpstream(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/forecast" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":true,"reason":"unknown path"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"latitude":52.52,"longitude":13.41,"hourly":{"time":["2025-01-01T00:00"],"temperature_2m":[1.5]}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestEndToEndWithSDKClient(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	upstream, hits := fakeUpstream(t)
	a := newTestApp(t, testConfig(upstream.URL))
	reg := a.NewRegistry()
	srv := httptest.NewServer(a.Router(reg))
	defer srv.Close()
	defer func() { _ = reg.Stop(context.Background()) }()

	client := sdk.NewClient(&sdk.Implementation{Name: "e2e", Version: "0.0.0"}, &sdk.ClientOptions{})
	cs, err := client.Connect(ctx, &sdk.StreamableClientTransport{Endpoint: srv.URL + "/mcp"}, &sdk.ClientSessionOptions{})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer cs.Close()

	lt, err := cs.ListTools(ctx, &sdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(lt.Tools) != 17 {
		t.Fatalf("got %d tools, want 17", len(lt.Tools))
	}

	args := map[string]any{"latitude": 52.52, "longitude": 13.41, "hourly": []string{"temperature_2m"}}
	for i := 0; i < 2; i++ {
		res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "weather_forecast", Arguments: args})
		if err != nil {
			t.Fatalf("CallTool failed: %v", err)
		}
		if res.IsError || len(res.Content) != 1 {
			t.Fatalf("unexpected call result: %+v", res)
		}
		text, ok := res.Content[0].(*sdk.TextContent)
		if !ok || !strings.Contains(text.Text, "\"temperature_2m\": [\n") {
			t.Fatalf("unexpected content: %+v", res.Content[0])
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hits = %d, want 1 (second call served from cache)", got)
	}

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "weather_forecast", Arguments: map[string]any{"latitude": 1, "longitude": 2, "models": []string{"a", "b"}}})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError {
		t.Fatalf("models array should produce a tool error: %+v", res)
	}
}

func TestEnabledTools(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:1")
	cfg.EnabledTools = "geocoding;weather_forecast"
	a := newTestApp(t, cfg)
	got := a.tools.Tools()
	if len(got) != 2 || got[0].Name != "weather_forecast" || got[1].Name != "geocoding" {
		t.Fatalf("unexpected tools: %+v", got)
	}

	bad := testConfig("http://127.0.0.1:1")
	bad.EnabledTools = "weather_forecast;nope"
	if _, err := New(t.Context(), bad, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("unknown tool name should fail New")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig("http://127.0.0.1:1"))
	rec := httptest.NewRecorder()
	a.Router(a.NewRegistry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://127.0.0.1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["server"] != ServerName {
		t.Fatalf("body = %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:1")
	a := newTestApp(t, cfg)
	rec := httptest.NewRecorder()
	a.Router(a.NewRegistry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sessions_active") {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}

	cfg2 := testConfig("http://127.0.0.1:1")
	cfg2.MetricsEnabled = false
	a2 := newTestApp(t, cfg2)
	rec = httptest.NewRecorder()
	a2.Router(a2.NewRegistry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled metrics status = %d", rec.Code)
	}
}

func TestHostGuard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		listen string
		host   string
		want   int
	}{
		{"127.0.0.1", "127.0.0.1:3000", http.StatusOK},
		{"127.0.0.1", "localhost:3000", http.StatusOK},
		{"127.0.0.1", "[::1]:3000", http.StatusOK},
		{"127.0.0.1", "evil.example:3000", http.StatusForbidden},
		{"0.0.0.0", "weather.example", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.listen+"/"+tc.host, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig("http://127.0.0.1:1")
			cfg.Host = tc.listen
			a := newTestApp(t, cfg)
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Host = tc.host
			rec := httptest.NewRecorder()
			a.Router(a.NewRegistry()).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:1")
	cfg.AllowedOrigins = "https://app.example;https://other.example"
	a := newTestApp(t, cfg)
	h := a.Router(a.NewRegistry())

	req := httptest.NewRequest(http.MethodOptions, "http://127.0.0.1/mcp", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Mcp-Session-Id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`
	req = httptest.NewRequest(http.MethodPost, "http://127.0.0.1/mcp", strings.NewReader(body))
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("initialize status = %d body = %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Expose-Headers"), "Mcp-Session-Id") {
		t.Fatalf("expose headers = %q", rec.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestRunHTTPShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig("http://127.0.0.1:1"))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.RunHTTP(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	deadline := time.Now().Add(2 * time.Second)
	for {
		res, err := http.Get(url)
		if err == nil {
			_ = res.Body.Close()
			if res.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became healthy: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunHTTP: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}

func postMCP(url, sessID, body string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessID != "" {
		req.Header.Set("Mcp-Session-Id", sessID)
	}
	return http.DefaultClient.Do(req)
}

func TestRunHTTPDrainsInFlightCalls(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"latitude":52.52,"longitude":13.41}`)
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.JSONResponse = true
	a := newTestApp(t, cfg)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.RunHTTP(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/mcp"
	res, err := postMCP(url, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_ = res.Body.Close()
	sessID := res.Header.Get("Mcp-Session-Id")
	if res.StatusCode != http.StatusOK || sessID == "" {
		t.Fatalf("initialize status = %d session = %q", res.StatusCode, sessID)
	}

	type callResult struct {
		res *jsonrpc.Response
		err error
	}
	callDone := make(chan callResult, 1)
	go func() {
		res, err := postMCP(url, sessID, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"weather_forecast","arguments":{"latitude":52.52,"longitude":13.41}}}`)
		if err != nil {
			callDone <- callResult{nil, err}
			return
		}
		defer res.Body.Close()
		var rpc jsonrpc.Response
		err = json.NewDecoder(res.Body).Decode(&rpc)
		callDone <- callResult{&rpc, err}
	}()

	<-arrived
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case r := <-callDone:
		if r.err != nil {
			t.Fatalf("tools/call: %v", r.err)
		}
		var call mcp.CallToolResult
		if err := json.Unmarshal(r.res.Result, &call); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if call.IsError {
			t.Fatalf("in-flight call failed during shutdown: %+v", call)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight call did not complete")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunHTTP: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}

func TestRunStdio(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Instructions = "Weather data is provided by Open-Meteo."
	a := newTestApp(t, cfg)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}` + "\n")
	var out bytes.Buffer
	if err := a.RunStdio(t.Context(), in, &out); err != nil {
		t.Fatalf("RunStdio: %v", err)
	}

	var res jsonrpc.Response
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	var init mcp.InitializeResult
	if err := json.Unmarshal(res.Result, &init); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if init.ServerInfo.Name != ServerName || init.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("unexpected initialize result: %+v", init)
	}
	if init.Instructions != cfg.Instructions {
		t.Fatalf("instructions = %q, want %q", init.Instructions, cfg.Instructions)
	}
}
