package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds every application metric.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Scoring
	ScoreComputationsTotal CounterVec
	ScoreDuration          HistogramVec
	ScoreValue             HistogramVec

	// Influence
	InfluenceAnalysesTotal CounterVec
	InfluenceDuration      HistogramVec
	BatchSubjects          HistogramVec

	// Import pipeline
	ImportsTotal      CounterVec
	ImportDuration    HistogramVec
	ImportedPitches   CounterVec
	SnapshotSizeBytes HistogramVec

	// Infrastructure
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultComputeDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15, 60}
	DefaultScoreBuckets           = []float64{0, .1, .2, .3, .4, .5, .6, .7, .8, .9, 1}
	DefaultDBDurationBuckets      = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultSizeBuckets            = []float64{1e3, 1e4, 1e5, 1e6, 1e7, 1e8}
)

// NewAppMetrics registers all metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.ScoreComputationsTotal = collector.RegisterCounter("score_computations_total", "Alignment score computations", "status")
	m.ScoreDuration = collector.RegisterHistogram("score_duration_seconds", "Alignment score computation duration", DefaultComputeDurationBuckets, "operation")
	m.ScoreValue = collector.RegisterHistogram("score_value", "Distribution of computed alignment scores", DefaultScoreBuckets)

	m.InfluenceAnalysesTotal = collector.RegisterCounter("influence_analyses_total", "Influence analyses", "status", "mode")
	m.InfluenceDuration = collector.RegisterHistogram("influence_duration_seconds", "Influence analysis duration", DefaultComputeDurationBuckets, "mode")
	m.BatchSubjects = collector.RegisterHistogram("influence_batch_subjects", "Subjects per aggregate influence request", []float64{1, 2, 5, 10, 20, 50})

	m.ImportsTotal = collector.RegisterCounter("imports_total", "Season snapshot imports", "status")
	m.ImportDuration = collector.RegisterHistogram("import_duration_seconds", "Season import duration", DefaultComputeDurationBuckets)
	m.ImportedPitches = collector.RegisterCounter("imported_pitches_total", "Pitches loaded into the archive")
	m.SnapshotSizeBytes = collector.RegisterHistogram("snapshot_size_bytes", "Season snapshot size", DefaultSizeBuckets)

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// Helpers.

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordScore(m *AppMetrics, value float64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		m.ScoreValue.WithLabelValues().Observe(value)
	}
	m.ScoreComputationsTotal.WithLabelValues(status).Inc()
	m.ScoreDuration.WithLabelValues("score").Observe(duration.Seconds())
}

func RecordInfluence(m *AppMetrics, mode string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.InfluenceAnalysesTotal.WithLabelValues(status, mode).Inc()
	m.InfluenceDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func RecordImport(m *AppMetrics, inserted int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		m.ImportedPitches.WithLabelValues().Add(float64(inserted))
	}
	m.ImportsTotal.WithLabelValues(status).Inc()
	m.ImportDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}
