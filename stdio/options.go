package stdio

import (
	"io"
	"log/slog"

	"github.com/ggoodman/open-meteo-mcp/mcpserver"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithRuntimeOptions forwards options to the session runtime built by Serve.
func WithRuntimeOptions(opts ...mcpserver.Option) Option {
	return func(h *Handler) {
		h.runtimeOpts = append(h.runtimeOpts, opts...)
	}
}
