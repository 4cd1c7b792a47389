package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics instruments outgoing API calls and the upload watcher
type ClientMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	uploadsTotal    *prometheus.CounterVec
	breakerOpen     *prometheus.CounterVec
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptodoc",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total backend API requests by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cryptodoc",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cryptodoc",
			Subsystem: "api",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight backend API requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptodoc",
			Subsystem: "watch",
			Name:      "uploads_total",
			Help:      "Files uploaded by the directory watcher by result.",
		},
		[]string{"service", "result"},
	)
	breakerOpen := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptodoc",
			Subsystem: "api",
			Name:      "circuit_open_total",
			Help:      "Requests rejected by an open circuit breaker.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(requestTotal, requestDuration, requestInFlight, uploadsTotal, breakerOpen)

	return &ClientMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		uploadsTotal:    uploadsTotal,
		breakerOpen:     breakerOpen,
	}
}

// Handler exposes the registry for scraping
func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Start marks a request as in flight and returns the function that records it.
// status 0 means the request never got a response.
func (m *ClientMetrics) Start(service, operation string) func(status int) {
	if m == nil {
		return func(int) {}
	}
	started := time.Now()
	m.requestInFlight.Inc()

	return func(status int) {
		m.requestInFlight.Dec()
		label := "error"
		if status > 0 {
			label = strconv.Itoa(status)
		}
		m.requestTotal.WithLabelValues(service, operation, label).Inc()
		m.requestDuration.WithLabelValues(service, operation).Observe(time.Since(started).Seconds())
	}
}

// RecordCircuitOpen counts a request short-circuited by the breaker
func (m *ClientMetrics) RecordCircuitOpen(service, operation string) {
	if m == nil {
		return
	}
	m.breakerOpen.WithLabelValues(service, operation).Inc()
}

// RecordUpload counts a watcher upload, result is "ok", "failed" or "skipped"
func (m *ClientMetrics) RecordUpload(service, result string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(service, result).Inc()
}
