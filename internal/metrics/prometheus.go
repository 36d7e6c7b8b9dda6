package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Prometheus metrics for the feed pipeline

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_api_calls_total",
			Help: "Total number of CollegeFootballData API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfbfeed_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIThrottleWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfbfeed_api_throttle_wait_seconds",
			Help:    "Time spent waiting between calls to the same endpoint family",
			Buckets: []float64{0, .1, .25, .5, 1, 2, 5},
		},
		[]string{"family"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfbfeed_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfbfeed_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfbfeed_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Snapshot cache metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_cache_hits_total",
			Help: "Total number of snapshot cache hits",
		},
		[]string{"datatype"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_cache_misses_total",
			Help: "Total number of snapshot cache misses",
		},
		[]string{"datatype"},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfbfeed_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Draft metrics
	DraftsAssembled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_drafts_assembled_total",
			Help: "Total number of drafts assembled",
		},
		[]string{"kind"},
	)

	DraftsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfbfeed_drafts_suppressed_total",
			Help: "Total number of drafts dropped because they were already posted",
		},
	)

	DraftsQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfbfeed_drafts_queued_total",
			Help: "Total number of drafts appended to the output queue",
		},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfbfeed_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ResolvedWeek = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfbfeed_resolved_week",
			Help: "Week resolved by the last run",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfbfeed_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfbfeed_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfbfeed_last_successful_run_timestamp",
			Help: "Timestamp of last successful pipeline run",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordThrottleWait records time spent waiting on the per-family delay
func RecordThrottleWait(family string, duration float64) {
	APIThrottleWait.WithLabelValues(family).Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit(datatype string) {
	CacheHitsTotal.WithLabelValues(datatype).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(datatype string) {
	CacheMissesTotal.WithLabelValues(datatype).Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDrafts records assembled, suppressed and queued draft counts
func RecordDrafts(assembled map[string]int, suppressed, queued int) {
	for kind, n := range assembled {
		DraftsAssembled.WithLabelValues(kind).Add(float64(n))
	}
	DraftsSuppressed.Add(float64(suppressed))
	DraftsQueued.Add(float64(queued))
}

// RecordRun records a pipeline run
func RecordRun(status string, duration float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// Push sends the default registry to a Pushgateway; used after one-shot runs
func Push(url, job string) error {
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
