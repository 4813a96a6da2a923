package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, cache and solver activity.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	solverDuration    *prometheus.HistogramVec
	solverNodes       *prometheus.HistogramVec
	eventsPlaced      *prometheus.CounterVec
	applies           prometheus.Counter
	appliedPlacements prometheus.Counter

	solverRuns     uint64
	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	solverDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autoschedule_solver_duration_seconds",
		Help:    "Wall time spent in the schedule solver",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20, 60},
	}, []string{"solver", "objective", "outcome"})

	solverNodes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autoschedule_solver_nodes",
		Help:    "Search nodes expanded per solver run",
		Buckets: prometheus.ExponentialBuckets(10, 10, 7),
	}, []string{"solver"})

	eventsPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoschedule_events_total",
		Help: "Events considered by the solver, by outcome",
	}, []string{"outcome"})

	applies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoschedule_applies_total",
		Help: "Schedule versions applied to the program",
	})

	appliedPlacements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoschedule_applied_placements_total",
		Help: "Event placements written by applied schedules",
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines,
		solverDuration, solverNodes, eventsPlaced, applies, appliedPlacements)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,

		solverDuration:    solverDuration,
		solverNodes:       solverNodes,
		eventsPlaced:      eventsPlaced,
		applies:           applies,
		appliedPlacements: appliedPlacements,
	}
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSolverRun records one solver invocation.
func (m *MetricsService) ObserveSolverRun(solver, objective string, optimal bool, nodes int, scheduled, unscheduled int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "budget"
	if optimal {
		outcome = "optimal"
	}
	m.solverDuration.WithLabelValues(solver, objective, outcome).Observe(duration.Seconds())
	m.solverNodes.WithLabelValues(solver).Observe(float64(nodes))
	m.eventsPlaced.WithLabelValues("scheduled").Add(float64(scheduled))
	m.eventsPlaced.WithLabelValues("unscheduled").Add(float64(unscheduled))
	atomic.AddUint64(&m.solverRuns, 1)
}

// RecordApply counts applied schedule versions.
func (m *MetricsService) RecordApply(placements int) {
	if m == nil {
		return
	}
	m.applies.Inc()
	m.appliedPlacements.Add(float64(placements))
}

// SolverRuns returns the number of solver invocations observed so far.
func (m *MetricsService) SolverRuns() uint64 {
	if m == nil {
		return 0
	}
	return atomic.LoadUint64(&m.solverRuns)
}

// CacheHitRatio returns hits over total lookups, zero before any lookup.
func (m *MetricsService) CacheHitRatio() float64 {
	if m == nil {
		return 0
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
