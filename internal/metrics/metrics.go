// Package metrics exports Prometheus counters for complaint prioritization.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Prioritizations *prometheus.CounterVec
	AICallDuration  prometheus.Histogram
}

// New registers the collectors on a private registry so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Prioritizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_prioritizations_total",
			Help: "Prioritization attempts by outcome (ai, or the fallback category)",
		}, []string{"outcome"}),
		AICallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "complaints_ai_call_duration_seconds",
			Help:    "Latency of outbound classification calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
	}
	reg.MustRegister(
		m.Prioritizations,
		m.AICallDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOutcome implements priority.Observer.
func (m *Metrics) ObserveOutcome(outcome string, latency time.Duration) {
	m.Prioritizations.WithLabelValues(outcome).Inc()
	if latency > 0 {
		m.AICallDuration.Observe(latency.Seconds())
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
