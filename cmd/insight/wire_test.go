package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/newthinker/insight/internal/alert"
	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/cache"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/forecast"
	"github.com/newthinker/insight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildRuntime_Defaults(t *testing.T) {
	cfg := config.Defaults()
	cfg.Models.Storage.Path = t.TempDir()

	rt, err := buildRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.app)
	assert.NotNil(t, rt.metrics)
	assert.Equal(t, "yahoo", rt.app.Stats()["collector"])
	assert.Equal(t, "googlenews", rt.app.Stats()["news"])
}

func TestBuildRuntime_UnknownCollector(t *testing.T) {
	cfg := config.Defaults()
	cfg.Collector.Provider = "bloomberg"

	_, err := buildRuntime(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestBuildNotifiers(t *testing.T) {
	registry, err := buildNotifiers(map[string]config.NotifierConfig{
		"webhook":  {Enabled: true, URL: "http://localhost:9000/hook"},
		"telegram": {Enabled: true, BotToken: "token", ChatID: "42"},
		"email":    {Enabled: false},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"telegram", "webhook"}, registry.Names())

	_, err = buildNotifiers(map[string]config.NotifierConfig{"webhook": {Enabled: true}})
	assert.ErrorIs(t, err, core.ErrConfigMissing)

	_, err = buildNotifiers(map[string]config.NotifierConfig{"pager": {Enabled: true}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestBuildAlerts(t *testing.T) {
	cfg := config.Defaults()
	cfg.Alerts.Enabled = true
	cfg.Alerts.Rules = []alert.Rule{{Name: "rsi_overbought", Expr: "rsi > 70"}}

	evaluator, store, err := buildAlerts(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, evaluator.Rules(), 1)
	assert.NotNil(t, store)
}

func TestBuildModels(t *testing.T) {
	none, err := buildModels(config.ModelsConfig{Storage: config.StorageConfig{Type: "none"}}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, none)

	src, err := buildModels(config.ModelsConfig{
		Storage: config.StorageConfig{Type: "localfs", Path: t.TempDir()},
		Generic: model.GenericArtifact,
		Remote:  config.RemoteModelConfig{Endpoint: "http://localhost:8501", Name: "lstm", Lookback: 60},
	}, zap.NewNop())
	require.NoError(t, err)
	chain, ok := src.(model.Chain)
	require.True(t, ok)
	assert.Len(t, chain, 2)
}

func TestBuildCache(t *testing.T) {
	store, closer, err := buildCache(context.Background(), config.CacheConfig{Backend: "memory", MaxEntries: 10})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)
	assert.Nil(t, closer)

	store, _, err = buildCache(context.Background(), config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, _, err = buildCache(context.Background(), config.CacheConfig{Backend: "memcached"})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestPrintOverview(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	ov := &app.Overview{
		Symbol: "TCS.NS",
		Quote:  &core.Quote{Price: 3890.5, PreviousClose: 3850, DayLow: 3840, DayHigh: 3901.25},
		Prediction: &forecast.Result{
			Estimator:   forecast.EstimatorTrend,
			Predictions: []float64{3901.2},
			Lower:       []float64{3628.12},
			Upper:       []float64{4174.28},
			Dates:       []time.Time{day},
		},
		Errors: map[string]app.PartError{
			app.OpSentiment: {Code: "NEWS_FAILED", Message: "news provider failed"},
		},
	}

	var buf bytes.Buffer
	printOverview(&buf, ov)
	out := buf.String()

	assert.Contains(t, out, "=== TCS.NS ===")
	assert.Contains(t, out, "₹3,890.50 (+1.05%)")
	assert.Contains(t, out, "Forecast (Linear Regression (Fallback))")
	assert.Contains(t, out, "2024-06-03")
	assert.Contains(t, out, "₹4,174.28")
	assert.Contains(t, out, "sentiment: news provider failed")
}

func TestPrintAlerts(t *testing.T) {
	var buf bytes.Buffer
	printAlerts(&buf, nil, 3)
	assert.Equal(t, "No alerts fired for 3 symbols.\n", buf.String())

	buf.Reset()
	printAlerts(&buf, []core.Alert{
		{Symbol: "TCS.NS", Rule: "rsi_overbought", Severity: core.SeverityWarning, Metric: "rsi", Value: 74.456},
	}, 1)
	out := buf.String()
	assert.Contains(t, out, "TCS.NS")
	assert.Contains(t, out, "rsi_overbought")
	assert.Contains(t, out, "74.46")
	assert.Contains(t, out, "1 alerts fired for 1 symbols.")
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf, true)
	assert.Equal(t, "dev\n", buf.String())

	buf.Reset()
	printVersion(&buf, false)
	assert.Contains(t, buf.String(), "insight dev (unknown, built unknown)")
	assert.Contains(t, buf.String(), "go")
}
