// Package metrics exposes Prometheus counters for the activity engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is
// valid and turns every recording call into a no-op, which keeps tests
// free of registry plumbing.
type Metrics struct {
	registry         *prometheus.Registry
	linesTotal       prometheus.Counter
	transitionsTotal *prometheus.CounterVec
	reconnectsTotal  prometheus.Counter
	catalogFetches   *prometheus.CounterVec
	sinkErrorsTotal  *prometheus.CounterVec
}

// New creates and registers the engine's collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	linesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consolewatch_log_lines_total",
		Help: "Total number of log lines received from the console",
	})
	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consolewatch_transitions_total",
		Help: "Total number of accepted activity transitions by resulting status",
	}, []string{"status"})
	reconnectsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consolewatch_reconnects_total",
		Help: "Total number of log stream disconnects followed by a retry",
	})
	catalogFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consolewatch_catalog_lookups_total",
		Help: "Total number of catalog lookups by result",
	}, []string{"result"})
	sinkErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consolewatch_sink_errors_total",
		Help: "Total number of snapshot delivery failures by sink",
	}, []string{"sink"})

	registry.MustRegister(
		linesTotal,
		transitionsTotal,
		reconnectsTotal,
		catalogFetches,
		sinkErrorsTotal,
	)

	return &Metrics{
		registry:         registry,
		linesTotal:       linesTotal,
		transitionsTotal: transitionsTotal,
		reconnectsTotal:  reconnectsTotal,
		catalogFetches:   catalogFetches,
		sinkErrorsTotal:  sinkErrorsTotal,
	}
}

// IncLines increments the received line counter.
func (m *Metrics) IncLines() {
	if m == nil {
		return
	}
	m.linesTotal.Inc()
}

// IncTransition increments the transition counter for a status name.
func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(status).Inc()
}

// IncReconnects increments the disconnect/retry counter.
func (m *Metrics) IncReconnects() {
	if m == nil {
		return
	}
	m.reconnectsTotal.Inc()
}

// IncCatalogFetch increments the catalog lookup counter for a result
// ("cache_hit", "success", "failure").
func (m *Metrics) IncCatalogFetch(result string) {
	if m == nil {
		return
	}
	m.catalogFetches.WithLabelValues(result).Inc()
}

// IncSinkError increments the delivery failure counter for a sink name.
func (m *Metrics) IncSinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrorsTotal.WithLabelValues(sink).Inc()
}

// Handler returns an http.Handler serving the engine's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
