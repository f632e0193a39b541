// Package metrics owns the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "bitacora"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	reportsSubmitted prometheus.Counter
	upstreamErrors   *prometheus.CounterVec
	photoUploads     *prometheus.CounterVec
	exports          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		reportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Reports written to the record store.",
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Non-success responses from the record store by table.",
		}, []string{"table"}),
		photoUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo uploads to the media host by result.",
		}, []string{"result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Generated export documents by format.",
		}, []string{"format"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.reportsSubmitted,
		m.upstreamErrors,
		m.photoUploads,
		m.exports,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ReportSubmitted() {
	if m == nil {
		return
	}
	m.reportsSubmitted.Inc()
}

func (m *Metrics) UpstreamError(table string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(table).Inc()
}

func (m *Metrics) PhotoUpload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.photoUploads.WithLabelValues(result).Inc()
}

func (m *Metrics) Export(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}
