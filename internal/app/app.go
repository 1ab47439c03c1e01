// Package app assembles the server from its configuration: the Open-Meteo
// client and its cache, the tool handler, and one of the two transports.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/ggoodman/open-meteo-mcp/cache"
	memcache "github.com/ggoodman/open-meteo-mcp/cache/memory"
	rediscache "github.com/ggoodman/open-meteo-mcp/cache/redis"
	"github.com/ggoodman/open-meteo-mcp/internal/accept"
	"github.com/ggoodman/open-meteo-mcp/internal/config"
	"github.com/ggoodman/open-meteo-mcp/internal/metrics"
	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/mcpserver"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
	"github.com/ggoodman/open-meteo-mcp/sessions"
	"github.com/ggoodman/open-meteo-mcp/stdio"
	"github.com/ggoodman/open-meteo-mcp/streaminghttp"
	"github.com/ggoodman/open-meteo-mcp/tools"
)

// ServerName is reported by initialize and /health.
const ServerName = "open-meteo-mcp-server"

// ServerVersion is reported by initialize.
const ServerVersion = "1.0.0"

const shutdownTimeout = 10 * time.Second

// App owns the long-lived components of the server.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	cache   cache.Cache
	tools   *tools.Handler
}

// New builds the data provider and tool handler described by cfg. The
// returned App must be closed to release the cache backend.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	c, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	clientOpts := []openmeteo.Option{
		openmeteo.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		openmeteo.WithLogger(log),
		openmeteo.WithMaxRetries(cfg.UpstreamMaxRetries),
		openmeteo.WithRateLimit(cfg.UpstreamRateLimit, int(cfg.UpstreamRateLimit)),
		openmeteo.WithUserAgent(ServerName + "/" + ServerVersion),
	}
	if c != nil {
		clientOpts = append(clientOpts, openmeteo.WithCache(c))
	}
	client := openmeteo.NewClient(cfg.BaseURLs, clientOpts...)

	toolOpts := []tools.Option{tools.WithLogger(log), tools.WithMetrics(m)}
	if names := cfg.ToolNames(); len(names) > 0 {
		v, err := enabledTools(names)
		if err != nil {
			if c != nil {
				_ = c.Close()
			}
			return nil, err
		}
		toolOpts = append(toolOpts, tools.WithValidator(v))
	}

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		cache:   c,
		tools:   tools.NewHandler(client, toolOpts...),
	}, nil
}

// enabledTools compiles a validator restricted to the named tools.
func enabledTools(names []string) (*tools.Validator, error) {
	defs, err := tools.Select(names...)
	if err != nil {
		return nil, fmt.Errorf("enabled tools: %w", err)
	}
	v, err := tools.NewValidator(defs)
	if err != nil {
		return nil, fmt.Errorf("enabled tools: %w", err)
	}
	return v, nil
}

func newCache(ctx context.Context, cfg cache.Config) (cache.Cache, error) {
	switch cfg.Backend {
	case cache.BackendMemory:
		c, err := memcache.New(cfg.Size, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		return c, nil
	case cache.BackendRedis:
		c, err := rediscache.NewFromAddr(ctx, cfg.RedisAddr, cfg.KeyPrefix, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	default:
		return nil, nil
	}
}

// Close releases the cache backend.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

func (a *App) runtimeOptions() []mcpserver.Option {
	return []mcpserver.Option{
		mcpserver.WithServerInfo(mcp.ImplementationInfo{Name: ServerName, Version: ServerVersion}),
		mcpserver.WithInstructions(a.cfg.Instructions),
		mcpserver.WithLogger(a.log),
	}
}

// RunStdio serves a single client over r and w until EOF or ctx ends.
func (a *App) RunStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	h := stdio.NewHandler(a.tools,
		stdio.WithIO(r, w),
		stdio.WithLogger(a.log),
		stdio.WithRuntimeOptions(a.runtimeOptions()...),
	)
	return h.Serve(ctx)
}

// NewRegistry builds the session registry of the HTTP transport.
func (a *App) NewRegistry() *sessions.Registry {
	return sessions.New(
		streaminghttp.SessionFactory(a.tools, a.runtimeOptions()...),
		sessions.WithMaxSessions(a.cfg.MaxSessions),
		sessions.WithIdleTTL(a.cfg.SessionIdleTTL),
		sessions.WithSweepInterval(a.cfg.SessionSweepInterval),
		sessions.WithLogger(a.log),
		sessions.WithMetrics(a.metrics),
	)
}

// Router returns the HTTP surface: /mcp, /health and, when enabled,
// /metrics.
func (a *App) Router(reg *sessions.Registry) http.Handler {
	r := chi.NewRouter()

	if isLoopback(a.cfg.Host) {
		r.Use(hostGuard)
	}
	if origins := a.cfg.Origins(); len(origins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Accept", "Mcp-Session-Id", "Mcp-Protocol-Version"},
			ExposedHeaders: []string{"Mcp-Session-Id"},
		}).Handler)
	}

	r.Get("/health", handleHealth)
	if a.cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	mcpHandler := streaminghttp.New(reg,
		streaminghttp.WithLogger(a.log),
		streaminghttp.WithJSONResponse(a.cfg.JSONResponse),
	)
	r.With(accept.Middleware).Handle("/mcp", mcpHandler)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "server": ServerName})
}

// RunHTTP serves the HTTP transport on ln until ctx ends, then shuts the
// server down and closes every live session.
func (a *App) RunHTTP(ctx context.Context, ln net.Listener) error {
	reg := a.NewRegistry()
	reg.Start(ctx)

	srv := &http.Server{
		Handler:           a.Router(reg),
		ReadHeaderTimeout: 10 * time.Second,
		// Requests outlive the signal context; Shutdown drains them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.log.InfoContext(ctx, "http.serve.start", slog.String("addr", ln.Addr().String()))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WarnContext(ctx, "http.shutdown.fail", slog.String("err", err.Error()))
	}
	if err := reg.Stop(shutdownCtx); err != nil {
		a.log.WarnContext(ctx, "session.stop.fail", slog.String("err", err.Error()))
	}
	a.log.InfoContext(ctx, "http.serve.end")

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", serveErr)
	}
	return nil
}

// isLoopback reports whether host names the local machine only.
func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// hostGuard rejects requests whose Host header is not a loopback name, which
// blocks DNS rebinding against a loopback listener.
func hostGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.Trim(host, "[]")
		if !isLoopback(host) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
