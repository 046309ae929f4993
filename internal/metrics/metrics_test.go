package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Gatherer(t *testing.T) {
	var reg prometheus.Gatherer = NewRegistry()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs, "runtime collectors are registered")
}

func TestRegistry_RecordRequest_StatusClass(t *testing.T) {
	reg := NewRegistry()
	for _, status := range []int{100, 200, 201, 301, 400, 404, 500, 503} {
		reg.RecordRequest("GET", "/api/health", status, 0.01)
	}

	got := map[string]float64{}
	for _, m := range family(t, reg, "http_requests_total").GetMetric() {
		got[label(m, "status")] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"1xx": 1, "2xx": 2, "3xx": 1, "4xx": 2, "5xx": 2}, got)
}

func TestRegistry_DurationAndInFlight(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRequest("GET", "GET /api/v1/symbols/{symbol}/prediction", 200, 0.123)
	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	hist := family(t, reg, "http_request_duration_seconds").GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.InDelta(t, 0.123, hist.GetSampleSum(), 1e-9)

	gauge := family(t, reg, "http_requests_in_flight").GetMetric()[0].GetGauge()
	assert.Equal(t, 1.0, gauge.GetValue())
}

func counterValue(t *testing.T, reg *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if want, ok := labels[label.GetName()]; ok && want != label.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRegistry_RecordPrediction(t *testing.T) {
	reg := NewRegistry()

	reg.RecordPrediction("LSTM", "")
	reg.RecordPrediction("Linear Regression (Fallback)", "no_model")
	reg.RecordPrediction("Linear Regression (Fallback)", "no_model")

	if v := counterValue(t, reg, "insight_predictions_total", map[string]string{"estimator": "LSTM"}); v != 1 {
		t.Errorf("expected 1 learned prediction, got %v", v)
	}
	if v := counterValue(t, reg, "insight_prediction_fallbacks_total", map[string]string{"reason": "no_model"}); v != 2 {
		t.Errorf("expected 2 fallbacks, got %v", v)
	}
}

func TestRegistry_RecordSentiment(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSentiment("Positive", 0)
	reg.RecordSentiment("Neutral", 3)

	if v := counterValue(t, reg, "insight_sentiment_aggregations_total", map[string]string{"category": "Neutral"}); v != 1 {
		t.Errorf("expected 1 neutral aggregation, got %v", v)
	}
	if v := counterValue(t, reg, "insight_sentiment_scoring_failures_total", nil); v != 3 {
		t.Errorf("expected 3 scoring failures, got %v", v)
	}
}

func TestRegistry_RecordCacheLookup(t *testing.T) {
	reg := NewRegistry()

	reg.RecordCacheLookup("history", true)
	reg.RecordCacheLookup("history", false)
	reg.RecordCacheLookup("history", true)

	if v := counterValue(t, reg, "insight_cache_lookups_total", map[string]string{"artifact": "history", "result": "hit"}); v != 2 {
		t.Errorf("expected 2 hits, got %v", v)
	}
	if v := counterValue(t, reg, "insight_cache_lookups_total", map[string]string{"artifact": "history", "result": "miss"}); v != 1 {
		t.Errorf("expected 1 miss, got %v", v)
	}
}

func TestRegistry_RecordOperation(t *testing.T) {
	reg := NewRegistry()

	reg.RecordOperation("predict", "", 0.2)
	reg.RecordOperation("predict", "INSUFFICIENT_DATA", 0.01)

	if v := counterValue(t, reg, "insight_operation_failures_total", map[string]string{"operation": "predict", "code": "INSUFFICIENT_DATA"}); v != 1 {
		t.Errorf("expected 1 failure, got %v", v)
	}
}

func TestRegistry_RecordAlert(t *testing.T) {
	reg := NewRegistry()

	reg.RecordAlert("rsi_overbought", "warning")
	reg.RecordAlert("rsi_overbought", "warning")

	if v := counterValue(t, reg, "insight_alerts_fired_total", map[string]string{"rule": "rsi_overbought", "severity": "warning"}); v != 2 {
		t.Errorf("expected 2 alerts, got %v", v)
	}
}
