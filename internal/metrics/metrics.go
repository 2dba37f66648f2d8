// Package metrics exposes Prometheus instrumentation for the room finder.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roomfinder"

// Recorder owns a private registry with operation, request and grid collectors.
// It satisfies application.Observer.
type Recorder struct {
	registry          *prometheus.Registry
	handler           http.Handler
	operationTotal    *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	reservations      prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	operationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Reservation service operations by outcome.",
	}, []string{"operation", "outcome"})

	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of reservation service operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	reservations := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reservations",
		Help:      "Committed reservations currently held by the grid.",
	})

	registry.MustRegister(
		operationTotal,
		operationDuration,
		requestTotal,
		requestDuration,
		reservations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Recorder{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		reservations:      reservations,
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveOperation counts one service call and records its latency.
func (r *Recorder) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.operationTotal.WithLabelValues(operation, outcome).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetReservationCount publishes the number of committed reservations.
func (r *Recorder) SetReservationCount(n int) {
	if r == nil {
		return
	}
	r.reservations.Set(float64(n))
}

// ObserveRequest records one HTTP request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
