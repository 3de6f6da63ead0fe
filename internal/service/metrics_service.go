package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and the document
// store.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	storeDuration       *prometheus.HistogramVec
	activeSubscriptions *prometheus.GaugeVec
	snapshotsDelivered  *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_operation_duration_seconds",
		Help:    "Duration of document store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver", "op", "status"})

	activeSubscriptions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docstore_active_subscriptions",
		Help: "Live document store subscriptions",
	}, []string{"collection"})

	snapshotsDelivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_snapshots_delivered_total",
		Help: "Snapshots handed to subscription listeners",
	}, []string{"collection"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, activeSubscriptions, snapshotsDelivered, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		storeDuration:       storeDuration,
		activeSubscriptions: activeSubscriptions,
		snapshotsDelivered:  snapshotsDelivered,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// CountHTTPRequest records a request without a latency sample.
func (m *MetricsService) CountHTTPRequest(method, path string, status int) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
}

// ObserveStoreOperation records one document store call.
func (m *MetricsService) ObserveStoreOperation(driver, op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeDuration.WithLabelValues(driver, op, status).Observe(duration.Seconds())
}

// SubscriptionOpened increments the live subscription gauge.
func (m *MetricsService) SubscriptionOpened(collection string) {
	if m == nil {
		return
	}
	m.activeSubscriptions.WithLabelValues(collection).Inc()
}

// SubscriptionClosed decrements the live subscription gauge.
func (m *MetricsService) SubscriptionClosed(collection string) {
	if m == nil {
		return
	}
	m.activeSubscriptions.WithLabelValues(collection).Dec()
}

// SnapshotDelivered counts one listener delivery.
func (m *MetricsService) SnapshotDelivered(collection string) {
	if m == nil {
		return
	}
	m.snapshotsDelivered.WithLabelValues(collection).Inc()
}
