package mcpserver

import (
	"log/slog"

	"github.com/ggoodman/open-meteo-mcp/mcp"
)

// Option customizes a Runtime.
type Option func(*Runtime)

// WithServerInfo sets the implementation info returned from initialize.
func WithServerInfo(info mcp.ImplementationInfo) Option {
	return func(r *Runtime) { r.info = info }
}

// WithInstructions sets human-readable instructions returned during initialize.
func WithInstructions(instr string) Option {
	return func(r *Runtime) { r.instructions = instr }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

// WithListener registers a state listener before the Runtime is shared.
func WithListener(l Listener) Option {
	return func(r *Runtime) {
		if l != nil {
			r.listeners = append(r.listeners, l)
		}
	}
}
