package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// =============================================================================
// METRICS - Prometheus collectors for the HTTP layer and scheduler
// =============================================================================

const metricsNamespace = "fuel_engine"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Backfill fetches by result: ok, failed, skipped.
	backfills *prometheus.CounterVec

	inspectionAlerts *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry, plus the Go and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"route", "method"}),
		backfills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "segments",
			Name:      "backfill_total",
			Help:      "Paged segment resolutions by backfill result.",
		}, []string{"result"}),
		inspectionAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "inspection",
			Name:      "alerts_total",
			Help:      "Inspection alerts recorded by the sweep, by state.",
		}, []string{"state"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "inspection",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one inspection sweep over all vehicles.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.backfills,
		m.inspectionAlerts,
		m.sweepDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeBackfill(result string) {
	if m == nil {
		return
	}
	m.backfills.WithLabelValues(result).Inc()
}

func (m *Metrics) observeAlert(state string) {
	if m == nil {
		return
	}
	m.inspectionAlerts.WithLabelValues(state).Inc()
}

func (m *Metrics) observeSweep(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(elapsed.Seconds())
}
