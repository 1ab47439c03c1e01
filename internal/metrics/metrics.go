// Package metrics defines the Prometheus collectors exported by the server.
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "open_meteo_mcp"

// Tool call outcomes used as the "outcome" label.
const (
	OutcomeOK            = "ok"
	OutcomeUnknownTool   = "unknown_tool"
	OutcomeModelsArray   = "models_array"
	OutcomeInvalidParams = "invalid_params"
	OutcomeUpstreamError = "upstream_error"
)

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry       *prometheus.Registry
	activeSessions atomic.Pointer[func() int]

	sessionsCreated  prometheus.Counter
	sessionsRejected prometheus.Counter
	sessionsEvicted  prometheus.Counter
	sessionsClosed   prometheus.Counter
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created in response to an initialize request.",
		}),
		sessionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_rejected_total",
			Help:      "Initialize requests rejected because the session registry was full.",
		}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions removed by the idle sweep.",
		}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Sessions removed from the registry for any reason.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency including the upstream call.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"tool"}),
	}

	registry.MustRegister(
		m.sessionsCreated,
		m.sessionsRejected,
		m.sessionsEvicted,
		m.sessionsClosed,
		m.toolCalls,
		m.toolDuration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live sessions in the registry.",
		}, m.sampleActiveSessions),
	)

	return m
}

// RegisterActiveSessions sets the source of the sessions_active gauge, which
// samples fn at scrape time. A later call replaces the source.
func (m *Metrics) RegisterActiveSessions(fn func() int) {
	if m == nil {
		return
	}
	m.activeSessions.Store(&fn)
}

func (m *Metrics) sampleActiveSessions() float64 {
	fn := m.activeSessions.Load()
	if fn == nil {
		return 0
	}
	return float64((*fn)())
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) SessionRejected() {
	if m == nil {
		return
	}
	m.sessionsRejected.Inc()
}

func (m *Metrics) SessionsEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsEvicted.Add(float64(n))
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsClosed.Inc()
}

// ToolCall records one finished invocation.
func (m *Metrics) ToolCall(tool, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
