// Package metrics holds the Prometheus collectors for lease operations.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leasekeeper"

type Metrics struct {
	registry *prometheus.Registry

	decisions     *prometheus.CounterVec
	evictions     *prometheus.CounterVec
	tokensIssued  prometheus.Counter
	renewals      prometheus.Counter
	reminders     *prometheus.CounterVec
	tokensExpired prometheus.Counter
	sweepDuration prometheus.Histogram
}

// New registers every collector, plus the Go and process collectors, on a
// private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_decisions_total",
			Help:      "Join requests evaluated, by outcome.",
		}, []string{"outcome"}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Eviction attempts made by the sweeper, by result.",
		}, []string{"result"}),
		tokensIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Invitation tokens issued.",
		}),
		renewals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renewals_total",
			Help:      "Subscriptions extended.",
		}),
		reminders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Expiry reminders attempted, by result.",
		}, []string{"result"}),
		tokensExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_expired_total",
			Help:      "Unredeemed tokens removed by housekeeping.",
		}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of eviction sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Eviction(ok bool) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *Metrics) Renewal() {
	if m == nil {
		return
	}
	m.renewals.Inc()
}

func (m *Metrics) Reminder(ok bool) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) TokenExpired() {
	if m == nil {
		return
	}
	m.tokensExpired.Inc()
}

func (m *Metrics) SweepDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
