package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/engine"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestObserveLift verifies lift outcomes are labelled by engine error kind.
func TestObserveLift(t *testing.T) {
	m, _ := NewTestManagerAndRegistry()

	m.ObserveLift("squat", time.Millisecond, nil)
	m.ObserveLift("squat", time.Millisecond, nil)
	m.ObserveLift("deadlift", time.Millisecond, &engine.Error{Kind: engine.KindConfiguration})
	m.ObserveLift("bench_press", time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterCalculations.WithLabelValues("squat", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterCalculations.WithLabelValues("deadlift", "configuration")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterCalculations.WithLabelValues("bench_press", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.HistLiftDuration))
}

// TestMiddlewareCountsStatus verifies requests are counted by method and status.
func TestMiddlewareCountsStatus(t *testing.T) {
	m, _ := NewTestManagerAndRegistry()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterRequests.WithLabelValues("POST", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRequests.WithLabelValues("POST", "422")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.GaugeRequests))
}

// TestHandlerExposesMetrics verifies the exposition endpoint serves registered series.
func TestHandlerExposesMetrics(t *testing.T) {
	m, _ := NewTestManagerAndRegistry()
	m.CounterCacheHits.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "liftplan_test_calculation_cache_hits_total 1"))
}

// TestNewRegistry verifies the default collectors register without conflict.
func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
