// Package metrics provides Prometheus metrics for inbound and outbound relay traffic.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns the relay's collectors and the registry they are registered on.
type Manager struct {
	namespace         string
	histogramBuckets  []float64
	runtimeCollectors bool
	registry          *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	outboundCalls       *prometheus.CounterVec
	outboundDuration    *prometheus.HistogramVec
}

// NewManager creates a metrics manager on a dedicated registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "relay",
		histogramBuckets: defaultBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry = prometheus.NewRegistry()
	if m.runtimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Inbound HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "Inbound HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method", "status"})
	m.outboundCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "outbound_calls_total",
		Help:      "Calls to the remote item server by operation and status class.",
	}, []string{"operation", "status_class"})
	m.outboundDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "outbound_call_duration_ms",
		Help:      "Remote item server call latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.registry.MustRegister(m.httpRequests, m.httpRequestDuration, m.outboundCalls, m.outboundDuration)
	return m
}

// RecordHTTPRequest records one inbound request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, durationMs float64) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(durationMs)
}

// RecordOutboundCall records one call to the remote server. Status 0 means no response.
func (m *Manager) RecordOutboundCall(operation string, status int, durationMs float64) {
	if m == nil {
		return
	}
	m.outboundCalls.WithLabelValues(operation, StatusClass(status)).Inc()
	m.outboundDuration.WithLabelValues(operation).Observe(durationMs)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StatusClass buckets a status code as "2xx", "4xx", ... or "transport_error" for 0.
func StatusClass(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}
