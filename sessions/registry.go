package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"

	"github.com/ggoodman/open-meteo-mcp/internal/metrics"
	"github.com/ggoodman/open-meteo-mcp/mcpserver"
)

const (
	DefaultMaxSessions   = 100
	DefaultIdleTTL       = time.Hour
	DefaultSweepInterval = 5 * time.Minute

	maxIDAttempts = 5
)

var (
	// ErrCapacityExceeded is returned by Create when the registry is full.
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	// ErrSessionNotFound is returned by Get for unknown or destroyed sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrIDExhausted is returned by Create when no unique id could be generated.
	ErrIDExhausted = errors.New("could not generate a unique session id")
)

// Factory builds the runtime of a new session. The runtime's transport must
// report sessionID as its id and opts must be applied to the runtime. Factory
// runs while the registry is locked and must not call back into the Registry.
type Factory func(sessionID string, opts ...mcpserver.Option) (*mcpserver.Runtime, error)

// Session is one live entry of the Registry.
type Session struct {
	ID      string
	Runtime *mcpserver.Runtime

	lastActivity atomic.Int64
}

// LastActivity returns the time of the last successful lookup.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastActivity.Store(now.UnixNano())
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxSessions = n
		}
	}
}

// WithIdleTTL sets how long a session may go without activity before a sweep
// evicts it.
func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

// WithSweepInterval sets the period of the background sweep started by Start.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.sweepInterval = d
		}
	}
}

// WithClock replaces the wall clock, typically with a fake clock in tests.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records session lifecycle metrics and exports the live count.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithIDGenerator replaces the UUIDv7 session id generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Registry is the in-memory table of live sessions.
type Registry struct {
	factory       Factory
	maxSessions   int
	idleTTL       time.Duration
	sweepInterval time.Duration
	clock         clockwork.Clock
	log           *slog.Logger
	metrics       *metrics.Metrics
	newID         func() (string, error)

	mu       sync.Mutex
	sessions map[string]*Session

	loopMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

// New creates an empty Registry.
func New(factory Factory, opts ...Option) *Registry {
	r := &Registry{
		factory:       factory,
		maxSessions:   DefaultMaxSessions,
		idleTTL:       DefaultIdleTTL,
		sweepInterval: DefaultSweepInterval,
		clock:         clockwork.NewRealClock(),
		log:           slog.Default(),
		newID:         newUUIDv7,
		sessions:      make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics.RegisterActiveSessions(r.Len)
	return r
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Create registers a new session with a freshly generated id.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	r.mu.Lock()
	if len(r.sessions) >= r.maxSessions {
		size := len(r.sessions)
		r.mu.Unlock()
		r.metrics.SessionRejected()
		r.log.WarnContext(ctx, "session.create.rejected", slog.Int("size", size), slog.Int("max", r.maxSessions))
		return nil, ErrCapacityExceeded
	}

	id, err := r.uniqueIDLocked()
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	rt, err := r.factory(id, mcpserver.WithListener(r.onStateChange))
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("create session runtime: %w", err)
	}

	sess := &Session{ID: id, Runtime: rt}
	sess.touch(r.clock.Now())
	r.sessions[id] = sess
	size := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SessionCreated()
	r.log.InfoContext(ctx, "session.create.ok", slog.String("session_id", id), slog.Int("size", size))
	return sess, nil
}

// onStateChange unlinks a session once its runtime closes.
func (r *Registry) onStateChange(sessionID string, _, to mcpserver.State) {
	if to != mcpserver.StateClosed {
		return
	}
	r.Remove(sessionID)
	r.metrics.SessionClosed()
}

func (r *Registry) uniqueIDLocked() (string, error) {
	for range maxIDAttempts {
		id, err := r.newID()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		if _, exists := r.sessions[id]; !exists && id != "" {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// Get returns the live session with the given id and refreshes its activity
// timestamp.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(r.clock.Now())
	return sess, nil
}

// Remove unlinks a session. Unknown ids are ignored. The runtime is not
// closed.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts every session idle for longer than the TTL and closes its
// runtime. Close failures are collected and do not stop the sweep.
func (r *Registry) Sweep(ctx context.Context) (int, error) {
	now := r.clock.Now()

	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if now.Sub(sess.LastActivity()) > r.idleTTL {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	if len(expired) == 0 {
		return 0, nil
	}

	err := closeAll(expired)
	r.metrics.SessionsEvicted(len(expired))
	r.log.InfoContext(ctx, "session.sweep.evicted", slog.Int("count", len(expired)))
	if err != nil {
		r.log.WarnContext(ctx, "session.sweep.close_failed", slog.String("err", err.Error()))
	}
	return len(expired), err
}

func closeAll(list []*Session) error {
	var result *multierror.Error
	for _, sess := range list {
		if err := sess.Runtime.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close session %s: %w", sess.ID, err))
		}
	}
	return result.ErrorOrNil()
}

// Start launches the background sweep. It is a no-op if the sweep is already
// running. The sweep stops when ctx is done or Stop is called.
func (r *Registry) Start(ctx context.Context) {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.sweepLoop(ctx, r.stop, r.done)
}

func (r *Registry) sweepLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	tick := r.clock.NewTicker(r.sweepInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-tick.Chan():
			start := r.clock.Now()
			n, err := r.Sweep(ctx)
			if n > 0 || err != nil {
				r.log.DebugContext(ctx, "session.sweep.done",
					slog.Int("evicted", n),
					slog.Int64("dur_ms", r.clock.Since(start).Milliseconds()))
			}
		}
	}
}

// Stop halts the background sweep, waiting for it up to ctx's deadline, and
// closes every remaining session.
func (r *Registry) Stop(ctx context.Context) error {
	r.loopMu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.loopMu.Unlock()

	var result *multierror.Error
	if stop != nil {
		close(stop)
		select {
		case <-done:
		case <-ctx.Done():
			result = multierror.Append(result, fmt.Errorf("wait for sweep: %w", ctx.Err()))
		}
	}

	r.mu.Lock()
	remaining := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		remaining = append(remaining, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if err := closeAll(remaining); err != nil {
		result = multierror.Append(result, err)
	}
	r.log.InfoContext(ctx, "session.registry.stopped", slog.Int("closed", len(remaining)))
	return result.ErrorOrNil()
}
