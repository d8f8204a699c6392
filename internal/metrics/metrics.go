// Package metrics exposes Prometheus metrics from a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector of the server.
type Metrics struct {
	registry *prometheus.Registry

	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec

	recomputes       *prometheus.CounterVec
	recomputeLatency prometheus.Histogram
	deleteFailures   prometheus.Counter
	attachments      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		reqLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventar_projection_recomputes_total",
			Help: "List projection recomputes by result",
		}, []string{"result"}),
		recomputeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "inventar_projection_recompute_seconds",
			Help:    "List projection recompute latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		deleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventar_batch_delete_failures_total",
			Help: "Items skipped by batch deletes because their delete failed",
		}),
		attachments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventar_attachments_total",
			Help: "Dropped attachments by kind and result",
		}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(
		m.reqTotal, m.reqLatency,
		m.recomputes, m.recomputeLatency,
		m.deleteFailures, m.attachments,
	)
	return m
}

// ObserveRecompute records one projection recompute.
func (m *Metrics) ObserveRecompute(d time.Duration, err error) {
	m.recomputes.WithLabelValues(result(err)).Inc()
	m.recomputeLatency.Observe(d.Seconds())
}

// BatchDeleteFailed records items a batch delete had to skip.
func (m *Metrics) BatchDeleteFailed(n int) {
	m.deleteFailures.Add(float64(n))
}

// AttachmentProcessed records one dropped attachment.
func (m *Metrics) AttachmentProcessed(kind string, err error) {
	if kind == "" {
		kind = "unknown"
	}
	m.attachments.WithLabelValues(kind, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records request counts and latency. Paths are labelled with
// the matched ServeMux pattern so path parameters do not explode the label
// set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rw.code)
		m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
		m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}
