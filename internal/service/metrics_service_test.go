package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesSolverCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveSolverRun("exact", "maximize_scheduled", true, 1200, 12, 1, 150*time.Millisecond)
	metrics.RecordApply(12)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/autoschedule/:id", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `autoschedule_solver_duration_seconds_count{objective="maximize_scheduled",outcome="optimal",solver="exact"} 1`)
	assert.Contains(t, body, `autoschedule_events_total{outcome="scheduled"} 12`)
	assert.Contains(t, body, `autoschedule_applied_placements_total 12`)
	assert.Equal(t, uint64(1), metrics.SolverRuns())
}

func TestMetricsServiceCacheHitRatio(t *testing.T) {
	metrics := NewMetricsService()
	assert.Zero(t, metrics.CacheHitRatio())

	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)

	assert.InDelta(t, 0.75, metrics.CacheHitRatio(), 0.0001)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveSolverRun("greedy", "maximize_scheduled", false, 0, 0, 0, 0)
	metrics.RecordApply(1)
	assert.Zero(t, metrics.SolverRuns())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
