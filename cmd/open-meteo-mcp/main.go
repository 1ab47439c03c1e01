// Command open-meteo-mcp serves the Open-Meteo weather APIs as MCP tools over
// stdio (the default) or streaming HTTP. It is configured through the
// environment; see internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ggoodman/open-meteo-mcp/internal/app"
	"github.com/ggoodman/open-meteo-mcp/internal/config"
	"github.com/ggoodman/open-meteo-mcp/internal/logctx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "open-meteo-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("cache.close.fail", slog.String("err", err.Error()))
		}
	}()

	switch cfg.Transport {
	case config.TransportHTTP:
		ln, err := net.Listen("tcp", cfg.Addr())
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
		}
		log.Info("server.start",
			slog.String("transport", cfg.Transport),
			slog.String("url", "http://"+ln.Addr().String()+"/mcp"))
		return a.RunHTTP(ctx, ln)
	default:
		log.Info("server.start", slog.String("transport", cfg.Transport))
		return a.RunStdio(ctx, os.Stdin, os.Stdout)
	}
}

// newLogger writes to stderr so that stdout stays reserved for the stdio
// transport.
func newLogger(cfg *config.Config) *slog.Logger {
	lvl, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(logctx.New(h))
}
