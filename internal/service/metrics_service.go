package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and solving.
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
	dbQueryDuration *prometheus.HistogramVec

	solveDuration   *prometheus.HistogramVec
	solvePlaced     prometheus.Counter
	solveUnplaced   prometheus.Counter
	solveTimeouts   prometheus.Counter
	solveIncomplete prometheus.Counter
	runStatus       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

const metricsNamespace = "sma"

// NewMetricsService registers the API, cache, database, solver and job collectors on a private registry
// together with the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	latency := func(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		}, labels)
	}
	counter := func(subsystem, name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	m := &MetricsService{
		registry:        prometheus.NewRegistry(),
		requestDuration: latency("http", "request_duration_seconds", "HTTP request latency by route", prometheus.DefBuckets, "method", "path", "status"),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "path", "status"}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hit_ratio",
			Help:      "Share of cache lookups served from Redis",
		}),
		cacheHits:       counter("cache", "hits_total", "Cache lookups that found a value"),
		cacheMisses:     counter("cache", "misses_total", "Cache lookups that fell through to Postgres"),
		dbQueryDuration: latency("db", "query_duration_seconds", "Postgres query latency by query", prometheus.DefBuckets, "query"),
		solveDuration: latency("timetable", "solve_duration_seconds", "Wall-clock duration of timetable solves",
			[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}, "mode"),
		solvePlaced:     counter("timetable", "entries_placed_total", "Assignments placed by the solver"),
		solveUnplaced:   counter("timetable", "assignments_unscheduled_total", "Assignments the solver could not place"),
		solveTimeouts:   counter("timetable", "solve_timeouts_total", "Solves that hit their time budget"),
		solveIncomplete: counter("timetable", "solve_incomplete_total", "Solves requiring completeness that found no full placement"),
		runStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "timetable",
			Name:      "runs_total",
			Help:      "Asynchronous runs by terminal status",
		}, []string{"status"}),
		jobDuration: latency("", "job_duration_seconds", "Background job attempt duration", prometheus.DefBuckets, "queue", "outcome"),
	}

	cacheOps := latency("cache", "operation_seconds", "Redis latency by operation", prometheus.DefBuckets, "op")
	m.cacheLatency = cacheOps.WithLabelValues("get")
	m.cacheWrite = cacheOps.WithLabelValues("set")

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration, m.requestTotal,
		cacheOps, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.dbQueryDuration,
		m.solveDuration, m.solvePlaced, m.solveUnplaced, m.solveTimeouts, m.solveIncomplete,
		m.runStatus, m.jobDuration,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveSolve records the outcome of one solver run. Mode is "inline", "generate" or "async".
func (m *MetricsService) ObserveSolve(mode string, duration time.Duration, placed, unscheduled int, timedOut, success bool) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.solvePlaced.Add(float64(placed))
	m.solveUnplaced.Add(float64(unscheduled))
	if timedOut {
		m.solveTimeouts.Inc()
	}
	if !success {
		m.solveIncomplete.Inc()
	}
}

// ObserveRun counts a run reaching a terminal status.
func (m *MetricsService) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.runStatus.WithLabelValues(status).Inc()
}

// ObserveJob implements jobs.Observer.
func (m *MetricsService) ObserveJob(queue, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(queue, outcome).Observe(duration.Seconds())
}
