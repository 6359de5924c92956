// Package metrics collects Prometheus observability for the session
// actor: render cycle counts, async task outcomes, and active session
// gauges. The collector is built once via promauto.With(registry) and
// exposes small recording methods that are no-op-safe on a nil receiver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config holds a namespace/subsystem plus the registry to publish to.
type Config struct {
	Namespace string
	Subsystem string
	Registry  prometheus.Registerer
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = "live_data"
	}
	if c.Registry == nil {
		c.Registry = prometheus.DefaultRegisterer
	}
	return c
}

// Metrics implements session.Metrics.
type Metrics struct {
	renderCycles   *prometheus.CounterVec
	asyncOutcomes  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	sessionsTotal  prometheus.Counter
}

// New builds a Metrics collector registered against cfg.Registry (or the
// default registerer).
func New(cfg Config) *Metrics {
	cfg = cfg.withDefaults()
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		renderCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "render_cycles_total",
			Help:      "Total number of render cycles completed, by session topic.",
		}, []string{"topic"}),

		asyncOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "async_outcomes_total",
			Help:      "Total number of async_result completions, by session topic and outcome.",
		}, []string{"topic", "outcome"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "active_sessions",
			Help:      "Number of session actors currently running.",
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sessions_started_total",
			Help:      "Total number of sessions joined since startup.",
		}),
	}
}

// RenderCycle records one completed render cycle for topic. renderCount is
// accepted to match the session.Metrics interface but is not itself a
// label (it would be unbounded cardinality); it is available to a future
// histogram if render latency is ever measured here.
func (m *Metrics) RenderCycle(topic string, renderCount int) {
	if m == nil {
		return
	}
	m.renderCycles.WithLabelValues(topic).Inc()
}

// AsyncOutcome records one async_result completion.
func (m *Metrics) AsyncOutcome(topic string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.asyncOutcomes.WithLabelValues(topic, outcome).Inc()
}

// SessionStarted records a session join.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
	m.activeSessions.Inc()
}

// SessionStopped records a session's termination.
func (m *Metrics) SessionStopped(reason string) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
