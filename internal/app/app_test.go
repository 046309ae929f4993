package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/insight/internal/cache"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/forecast"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/newthinker/insight/internal/news"
	"github.com/newthinker/insight/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	mu           sync.Mutex
	series       core.Series
	quote        *core.Quote
	historyErr   error
	quoteErr     error
	historyCalls int
	quoteCalls   int
	symbols      []string
}

func (f *fakeCollector) Name() string                    { return "fake" }
func (f *fakeCollector) SupportedMarkets() []core.Market { return []core.Market{core.MarketIN} }

func (f *fakeCollector) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	q := *f.quote
	q.Symbol = symbol
	return &q, nil
}

func (f *fakeCollector) FetchHistory(ctx context.Context, symbol, period string) (core.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	f.symbols = append(f.symbols, symbol)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	out := make(core.Series, len(f.series))
	for i, bar := range f.series {
		bar.Symbol = symbol
		out[i] = bar
	}
	return out, nil
}

func (f *fakeCollector) calls() (history, quote int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls, f.quoteCalls
}

// keywordScorer scores "surge" positive and "slump" negative.
type keywordScorer struct{}

func (keywordScorer) Score(ctx context.Context, text string) (sentiment.Scores, error) {
	switch {
	case strings.Contains(text, "surge"):
		return sentiment.Scores{Compound: 0.6, Positive: 0.5, Neutral: 0.5}, nil
	case strings.Contains(text, "slump"):
		return sentiment.Scores{Compound: -0.6, Negative: 0.5, Neutral: 0.5}, nil
	}
	return sentiment.Scores{Neutral: 1}, nil
}

func rising(n int) core.Series {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.Series, n)
	for i := range s {
		c := 100 + float64(i)*0.5
		s[i] = core.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000, Time: start.AddDate(0, 0, i)}
	}
	return s
}

func testNews() []news.Item {
	now := time.Now()
	return []news.Item{
		{Title: "TCS shares surge on deal win", Source: "static", PublishedAt: now.Add(-time.Hour)},
		{Title: "TCS flat ahead of results", Source: "static", PublishedAt: now.Add(-2 * time.Hour)},
		{Title: "TCS slump after guidance cut", Source: "static", PublishedAt: now.Add(-3 * time.Hour)},
		{Title: "Infosys surge continues", Source: "static", PublishedAt: now.Add(-time.Hour)},
	}
}

func newTestApp(t *testing.T, fc *fakeCollector, withNews bool) (*App, *metrics.Registry) {
	t.Helper()
	if fc.quote == nil {
		fc.quote = &core.Quote{Name: "Tata Consultancy", Price: 3900, PreviousClose: 3850, Currency: "INR"}
	}
	reg := metrics.NewRegistry()
	deps := Deps{
		Collector: fc,
		Scorer:    keywordScorer{},
		Cache:     cache.NewMemoryStore(100),
		Metrics:   reg,
	}
	if withNews {
		deps.News = news.NewStaticProvider(testNews(), 48*time.Hour)
	}
	a, err := New(config.Defaults(), deps, nil)
	require.NoError(t, err)
	return a, reg
}

func TestNew_RequiresCollector(t *testing.T) {
	_, err := New(config.Defaults(), Deps{}, nil)
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

func TestNormalizeSymbol(t *testing.T) {
	a, _ := newTestApp(t, &fakeCollector{series: rising(250)}, false)

	s, err := a.NormalizeSymbol("reliance")
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE.NS", s)

	s, err = a.NormalizeSymbol("tcs.ns")
	require.NoError(t, err)
	assert.Equal(t, "TCS.NS", s)

	_, err = a.NormalizeSymbol("  ")
	assert.ErrorIs(t, err, core.ErrInvalidSymbol)
}

func TestIndicators(t *testing.T) {
	fc := &fakeCollector{series: rising(250)}
	a, _ := newTestApp(t, fc, false)

	report, err := a.Indicators(context.Background(), "tcs")
	require.NoError(t, err)

	assert.Equal(t, "TCS.NS", report.Symbol)
	assert.Equal(t, 250, report.Bars)
	assert.Equal(t, 224.5, report.LastClose)
	require.NotNil(t, report.Bundle.MovingAverages[200])
	require.NotNil(t, report.Bundle.RSI.Current)
	require.NotNil(t, report.Bundle.MACD.Histogram)
	assert.True(t, report.Bundle.PivotPoints.Available)
	assert.Equal(t, []string{"TCS.NS"}, fc.symbols)
}

func TestIndicators_HistoryIsCached(t *testing.T) {
	fc := &fakeCollector{series: rising(250)}
	a, _ := newTestApp(t, fc, false)
	ctx := context.Background()

	_, err := a.Indicators(ctx, "TCS.NS")
	require.NoError(t, err)
	_, err = a.Indicators(ctx, "tcs")
	require.NoError(t, err)

	history, _ := fc.calls()
	assert.Equal(t, 1, history)
}

func TestIndicators_ProviderErrorSurfaces(t *testing.T) {
	fc := &fakeCollector{historyErr: core.WrapError(core.ErrInvalidSymbol, errors.New("delisted"))}
	a, _ := newTestApp(t, fc, false)

	_, err := a.Indicators(context.Background(), "NOPE")
	assert.ErrorIs(t, err, core.ErrInvalidSymbol)

	// errors are not cached
	_, _ = a.Indicators(context.Background(), "NOPE")
	history, _ := fc.calls()
	assert.Equal(t, 2, history)
}

func TestPredict_TrendFallback(t *testing.T) {
	fc := &fakeCollector{series: rising(250)}
	a, _ := newTestApp(t, fc, false)

	r, err := a.Predict(context.Background(), "TCS.NS", 5)
	require.NoError(t, err)

	assert.Equal(t, forecast.EstimatorTrend, r.Estimator)
	assert.Equal(t, forecast.ReasonNoModel, r.FallbackReason)
	require.Len(t, r.Predictions, 5)
	require.Len(t, r.Dates, 5)
	assert.Len(t, r.HistoricalActual, 30)
	for i, p := range r.Predictions {
		assert.LessOrEqual(t, r.Lower[i], p)
		assert.GreaterOrEqual(t, r.Upper[i], p)
	}
	// a clean uptrend keeps rising
	assert.Greater(t, r.Predictions[0], 224.5)
}

func TestPredict_Cached(t *testing.T) {
	fc := &fakeCollector{series: rising(250)}
	a, _ := newTestApp(t, fc, false)
	ctx := context.Background()

	first, err := a.Predict(ctx, "TCS.NS", 3)
	require.NoError(t, err)
	second, err := a.Predict(ctx, "TCS.NS", 3)
	require.NoError(t, err)

	assert.Equal(t, first.Predictions, second.Predictions)
	history, _ := fc.calls()
	assert.Equal(t, 1, history)
}

func TestPredict_Errors(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, &fakeCollector{series: rising(250)}, false)

	_, err := a.Predict(ctx, "TCS.NS", 0)
	assert.ErrorIs(t, err, core.ErrInvalidHorizon)
	_, err = a.Predict(ctx, "TCS.NS", 6)
	assert.ErrorIs(t, err, core.ErrInvalidHorizon)

	short, _ := newTestApp(t, &fakeCollector{series: rising(30)}, false)
	_, err = short.Predict(ctx, "TCS.NS", 5)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestSentiment(t *testing.T) {
	a, _ := newTestApp(t, &fakeCollector{series: rising(250)}, true)

	report, err := a.Sentiment(context.Background(), "TCS.NS", "")
	require.NoError(t, err)

	assert.Equal(t, "TCS", report.Query)
	require.Len(t, report.News, 3)
	s := report.Summary
	assert.Equal(t, 3, s.Sources)
	assert.Equal(t, sentiment.Breakdown{Positive: 1, Neutral: 1, Negative: 1}, s.Breakdown)
	// newest (positive) item carries the largest weight
	assert.Greater(t, s.Score, 0.0)
	assert.GreaterOrEqual(t, s.Confidence, 0.0)
	assert.LessOrEqual(t, s.Confidence, 1.0)
}

func TestSentiment_NoNews(t *testing.T) {
	a, _ := newTestApp(t, &fakeCollector{series: rising(250)}, true)

	report, err := a.Sentiment(context.Background(), "WIPRO.NS", "Wipro")
	require.NoError(t, err)

	assert.True(t, report.Summary.NoData)
	assert.Equal(t, sentiment.Neutral, report.Summary.Category)
	assert.Equal(t, 0.0, report.Summary.Confidence)
	assert.Equal(t, 0, report.Summary.Sources)
}

func TestSentiment_NoProvider(t *testing.T) {
	a, _ := newTestApp(t, &fakeCollector{series: rising(250)}, false)

	_, err := a.Sentiment(context.Background(), "TCS.NS", "")
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

func TestQuote(t *testing.T) {
	fc := &fakeCollector{series: rising(250)}
	a, _ := newTestApp(t, fc, false)
	ctx := context.Background()

	q, err := a.Quote(ctx, "tcs")
	require.NoError(t, err)
	assert.Equal(t, "TCS.NS", q.Symbol)
	assert.Equal(t, 3900.0, q.Price)

	_, err = a.Quote(ctx, "TCS.NS")
	require.NoError(t, err)
	_, quotes := fc.calls()
	assert.Equal(t, 1, quotes)
}

func TestOverview_PartialFailure(t *testing.T) {
	fc := &fakeCollector{
		series:   rising(250),
		quoteErr: core.WrapError(core.ErrRateLimited, errors.New("429")),
	}
	a, _ := newTestApp(t, fc, true)

	ov, err := a.Overview(context.Background(), "TCS.NS", "", 5)
	require.NoError(t, err)

	assert.Nil(t, ov.Quote)
	assert.NotNil(t, ov.Indicators)
	assert.NotNil(t, ov.Prediction)
	assert.NotNil(t, ov.Sentiment)
	require.Contains(t, ov.Errors, OpQuote)
	assert.Equal(t, "RATE_LIMITED", ov.Errors[OpQuote].Code)
}

func TestOverview_AllParts(t *testing.T) {
	a, _ := newTestApp(t, &fakeCollector{series: rising(250)}, true)

	ov, err := a.Overview(context.Background(), "tcs", "", 2)
	require.NoError(t, err)

	assert.Equal(t, "TCS.NS", ov.Symbol)
	assert.NotNil(t, ov.Quote)
	assert.Len(t, ov.Prediction.Predictions, 2)
	assert.Nil(t, ov.Errors)
}

func TestOverview_EverythingFails(t *testing.T) {
	fc := &fakeCollector{
		historyErr: core.WrapError(core.ErrNetwork, errors.New("down")),
		quoteErr:   core.WrapError(core.ErrNetwork, errors.New("down")),
	}
	a, _ := newTestApp(t, fc, false)

	_, err := a.Overview(context.Background(), "TCS.NS", "", 5)
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestMetricsRecorded(t *testing.T) {
	a, reg := newTestApp(t, &fakeCollector{series: rising(250)}, true)
	ctx := context.Background()

	_, err := a.Predict(ctx, "TCS.NS", 5)
	require.NoError(t, err)
	_, err = a.Sentiment(ctx, "TCS.NS", "")
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["insight_predictions_total"])
	assert.True(t, names["insight_prediction_fallbacks_total"])
	assert.True(t, names["insight_sentiment_aggregations_total"])
	assert.True(t, names["insight_cache_lookups_total"])
	assert.True(t, names["insight_operation_duration_seconds"])
}
