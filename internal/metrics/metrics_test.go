package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/straye-as/erp-desk/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetrics() *metrics.Metrics {
	reg := prometheus.NewRegistry()
	return metrics.New("test", reg, reg)
}

func TestObserveUpstream(t *testing.T) {
	m := newMetrics()
	m.ObserveUpstream("list inquiries", 200, 10*time.Millisecond)
	m.ObserveUpstream("list inquiries", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("list inquiries", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("list inquiries", "error")))
}

func TestObserveCacheAndSubmits(t *testing.T) {
	m := newMetrics()
	m.ObserveCache("inquiries", true)
	m.ObserveCache("inquiries", false)
	m.ObserveCache("inquiries", false)
	m.ObserveSubmit("purchase-orders", "validation_failed")
	m.ObservePruned(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("inquiries", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DraftSubmits.WithLabelValues("purchase-orders", "validation_failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DraftsPruned))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := newMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/inquiries/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inquiries/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/inquiries/{id}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_http_requests_total"))
}
