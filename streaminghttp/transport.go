package streaminghttp

import (
	"sync"

	"github.com/ggoodman/open-meteo-mcp/mcpserver"
	"github.com/ggoodman/open-meteo-mcp/sessions"
)

// Transport binds a runtime to a session of the streaming HTTP handler. The
// handler writes responses on the HTTP exchange that carried the request, so
// the transport only tracks the session's identity and lifetime.
type Transport struct {
	id        string
	closeOnce sync.Once
	closed    chan struct{}
}

// NewTransport returns an open transport for the given session id.
func NewTransport(sessionID string) *Transport {
	return &Transport{id: sessionID, closed: make(chan struct{})}
}

// SessionID returns the session id advertised in Mcp-Session-Id.
func (t *Transport) SessionID() string { return t.id }

// Close marks the transport closed. It is safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// Closed is closed once Close has been called.
func (t *Transport) Closed() <-chan struct{} { return t.closed }

// SessionFactory returns a sessions.Factory that binds a fresh runtime to a
// new Transport for every session.
func SessionFactory(inv mcpserver.Invoker, opts ...mcpserver.Option) sessions.Factory {
	return func(sessionID string, extra ...mcpserver.Option) (*mcpserver.Runtime, error) {
		all := append(append([]mcpserver.Option(nil), opts...), extra...)
		return mcpserver.New(NewTransport(sessionID), inv, all...), nil
	}
}
