package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	collector, err := NewMetricsCollector(CollectorConfig{Namespace: "szas"}, logging.NewNop())
	require.NoError(t, err)
	return collector
}

func scrape(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	recorder := httptest.NewRecorder()
	collector.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(recorder.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNop())
	assert.Error(t, err)
}

func TestCounterRoundTrip(t *testing.T) {
	collector := newTestCollector(t)
	counter := collector.RegisterCounter("events_total", "Events", "kind")
	counter.WithLabelValues("a").Inc()
	counter.WithLabelValues("a").Add(2)
	counter.WithLabelValues("b").Inc()

	body := scrape(t, collector)
	assert.Contains(t, body, `szas_events_total{kind="a"} 3`)
	assert.Contains(t, body, `szas_events_total{kind="b"} 1`)
}

func TestDuplicateRegistrationReturnsSameMetric(t *testing.T) {
	collector := newTestCollector(t)
	first := collector.RegisterCounter("dup_total", "Dup")
	second := collector.RegisterCounter("dup_total", "Dup")

	first.WithLabelValues().Inc()
	second.WithLabelValues().Inc()

	body := scrape(t, collector)
	assert.Contains(t, body, "szas_dup_total 2")
}

func TestGaugeAndHistogram(t *testing.T) {
	collector := newTestCollector(t)

	gauge := collector.RegisterGauge("depth", "Depth", "queue")
	gauge.WithLabelValues("q").Set(5)
	gauge.WithLabelValues("q").Dec()

	hist := collector.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1}, "op")
	hist.WithLabelValues("read").Observe(0.05)
	hist.WithLabelValues("read").Observe(0.5)

	body := scrape(t, collector)
	assert.Contains(t, body, `szas_depth{queue="q"} 4`)
	assert.Contains(t, body, `szas_latency_seconds_bucket{op="read",le="0.1"} 1`)
	assert.Contains(t, body, `szas_latency_seconds_count{op="read"} 2`)
}

func TestAppMetricsRecordHelpers(t *testing.T) {
	collector := newTestCollector(t)
	m := NewAppMetrics(collector)

	RecordHTTPRequest(m, "GET", "/api/v1/score", 200, 25*time.Millisecond)
	RecordScore(m, 0.72, 120*time.Millisecond, nil)
	RecordScore(m, 0, 10*time.Millisecond, assert.AnError)
	RecordInfluence(m, "single", 80*time.Millisecond, nil)
	RecordImport(m, 1500, time.Second, nil)
	RecordCacheAccess(m, "score", true)
	RecordCacheAccess(m, "score", false)

	body := scrape(t, collector)
	assert.Contains(t, body, `szas_http_requests_total{method="GET",path="/api/v1/score",status_code="200"} 1`)
	assert.Contains(t, body, `szas_score_computations_total{status="success"} 1`)
	assert.Contains(t, body, `szas_score_computations_total{status="failure"} 1`)
	assert.Contains(t, body, `szas_imported_pitches_total 1500`)
	assert.Contains(t, body, `szas_cache_hits_total{cache="score"} 1`)
	assert.Contains(t, body, `szas_cache_misses_total{cache="score"} 1`)
	assert.True(t, strings.Contains(body, "szas_score_value_bucket"))
}

func TestRecordHelpersNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest(nil, "GET", "/", 200, time.Millisecond)
		RecordScore(nil, 0.5, time.Millisecond, nil)
		RecordInfluence(nil, "batch", time.Millisecond, nil)
		RecordImport(nil, 0, time.Millisecond, nil)
		RecordCacheAccess(nil, "x", true)
	})
}

func TestTimerObserves(t *testing.T) {
	collector := newTestCollector(t)
	hist := collector.RegisterHistogram("timed_seconds", "Timed", nil, "op")

	timer := NewTimer(hist.WithLabelValues("work"))
	time.Sleep(time.Millisecond)
	timer.ObserveDuration()

	body := scrape(t, collector)
	assert.Contains(t, body, `szas_timed_seconds_count{op="work"} 1`)
}
