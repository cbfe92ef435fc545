// Package metrics exposes the monitor counters on a private Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "watchdog"

type Metrics struct {
	registry *prometheus.Registry

	PingsReceived *prometheus.CounterVec
	Evaluations   *prometheus.CounterVec
	Errors        *prometheus.CounterVec
	TickDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		PingsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_received_total",
			Help:      "Heartbeat pings accepted, by check id.",
		}, []string{"check_id"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations by monitor and outcome.",
		}, []string{"monitor", "outcome"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Evaluations that failed on store or notifier errors.",
		}, []string{"monitor"}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one evaluation pass over all targets.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"monitor"}),
	}
	reg.MustRegister(
		m.PingsReceived,
		m.Evaluations,
		m.Errors,
		m.TickDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
