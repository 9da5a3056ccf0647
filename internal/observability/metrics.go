package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the process.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gatewayErrors   *prometheus.CounterVec
	ioOperations    *prometheus.CounterVec
	ioMissing       *prometheus.CounterVec
}

// NewMetrics builds a private registry with the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentcore_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contentcore_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	gatewayErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentcore_gateway_errors_total",
		Help: "Driver errors converted to database errors, by gateway and operation.",
	}, []string{"gateway", "op"})
	ioOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentcore_io_operations_total",
		Help: "IO service operations by outcome.",
	}, []string{"op", "outcome"})
	ioMissing := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contentcore_io_missing_files_total",
		Help: "Missing binary files tolerated by the IO service.",
	}, []string{"op"})
	registry.MustRegister(requests, duration, gatewayErrors, ioOps, ioMissing)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		gatewayErrors:   gatewayErrors,
		ioOperations:    ioOps,
		ioMissing:       ioMissing,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveGatewayError counts a converted driver error.
func (m *Metrics) ObserveGatewayError(gateway, op string) {
	if m == nil {
		return
	}
	m.gatewayErrors.WithLabelValues(gateway, op).Inc()
}

// ObserveIOOperation counts an IO service call.
func (m *Metrics) ObserveIOOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.ioOperations.WithLabelValues(op, outcome).Inc()
}

// ObserveMissingFile counts a missing file served by the tolerant service.
func (m *Metrics) ObserveMissingFile(op string) {
	if m == nil {
		return
	}
	m.ioMissing.WithLabelValues(op).Inc()
}

// Registerer exposes the registry for extra collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
