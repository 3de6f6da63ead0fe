package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceObserveHTTPRequest(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/api/v1/announcements", 200, 15*time.Millisecond)
	metrics.ObserveHTTPRequest("GET", "/api/v1/announcements", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues("GET", "/api/v1/announcements", "200")))
}

func TestMetricsServiceCountHTTPRequestSkipsHistogram(t *testing.T) {
	metrics := NewMetricsService()
	metrics.CountHTTPRequest("GET", "/api/v1/announcements/stream", 200)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues("GET", "/api/v1/announcements/stream", "200")))
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.requestDuration))
}

func TestMetricsServiceStoreAndSubscriptions(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveStoreOperation("memory", "get", nil, time.Millisecond)
	metrics.ObserveStoreOperation("memory", "set", errors.New("boom"), time.Millisecond)

	metrics.SubscriptionOpened("announcements")
	metrics.SubscriptionOpened("announcements")
	metrics.SubscriptionClosed("announcements")
	metrics.SnapshotDelivered("announcements")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.activeSubscriptions.WithLabelValues("announcements")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.snapshotsDelivered.WithLabelValues("announcements")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.storeDuration))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "docstore_operation_duration_seconds")
	assert.Contains(t, names, "goroutines_total")
}

func TestMetricsServiceHandler(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("POST", "/api/v1/auth/login", 401, time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="POST",path="/api/v1/auth/login",status="401"} 1`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		metrics.CountHTTPRequest("GET", "/", 200)
		metrics.ObserveStoreOperation("memory", "get", nil, time.Millisecond)
		metrics.SubscriptionOpened("x")
		metrics.SubscriptionClosed("x")
		metrics.SnapshotDelivered("x")
	})
	assert.Nil(t, metrics.Registry())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
