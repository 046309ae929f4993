package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/newthinker/insight/internal/alert"
	"github.com/newthinker/insight/internal/cache"
	"github.com/newthinker/insight/internal/collector"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/forecast"
	"github.com/newthinker/insight/internal/indicator"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/newthinker/insight/internal/model"
	"github.com/newthinker/insight/internal/news"
	"github.com/newthinker/insight/internal/sentiment"
	"github.com/newthinker/insight/internal/storage/history"
	"go.uber.org/zap"
)

// Operation names used in metrics and cache keys.
const (
	OpHistory    = "history"
	OpQuote      = "quote"
	OpIndicators = "indicators"
	OpPrediction = "prediction"
	OpSentiment  = "sentiment"
	OpOverview   = "overview"
)

// Deps are the collaborators the App is built from. Collector is required;
// the rest are optional.
type Deps struct {
	Collector collector.Collector
	News      news.Provider
	Models    model.Source
	Scorer    sentiment.Scorer // defaults to VADER
	Cache     cache.Store
	Metrics   *metrics.Registry
	Alerts    *alert.Evaluator // evaluated after each refreshed symbol
	History   history.Store    // fired alerts, read by Alerts
}

// WatchlistItem is a symbol kept warm by the refresh loop.
type WatchlistItem struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// IndicatorReport is the indicator bundle of a symbol's latest bar.
type IndicatorReport struct {
	Symbol    string            `json:"symbol"`
	AsOf      time.Time         `json:"as_of"`
	LastClose float64           `json:"last_close"`
	Bars      int               `json:"bars"`
	Bundle    *indicator.Bundle `json:"indicators"`
}

// SentimentReport is the aggregated news sentiment for a query.
type SentimentReport struct {
	Symbol  string             `json:"symbol"`
	Query   string             `json:"query"`
	Summary *sentiment.Summary `json:"sentiment"`
	News    []news.Item        `json:"news"`
}

// PartError describes why one part of an Overview is missing.
type PartError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Overview bundles every artifact for a symbol. Parts fail independently.
type Overview struct {
	Symbol     string               `json:"symbol"`
	Quote      *core.Quote          `json:"quote,omitempty"`
	Indicators *IndicatorReport     `json:"indicators,omitempty"`
	Prediction *forecast.Result     `json:"prediction,omitempty"`
	Sentiment  *SentimentReport     `json:"sentiment,omitempty"`
	Errors     map[string]PartError `json:"errors,omitempty"`
}

// App is the main application orchestrator
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collector  collector.Collector
	news       news.Provider
	cache      cache.Store
	metrics    *metrics.Registry
	forecaster *forecast.Engine
	aggregator *sentiment.Aggregator
	indicators indicator.Params
	alerts     *alert.Evaluator
	history    history.Store

	watchlistItems []WatchlistItem
	watchlistSet   map[string]struct{}
	interval       time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
}

// New creates a new App instance
func New(cfg *config.Config, deps Deps, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}
	if deps.Collector == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("a price collector is required"))
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = sentiment.NewVader()
	}

	p := cfg.Prediction
	forecaster := forecast.NewEngine(forecast.Config{
		Lookback:         p.Lookback,
		MaxHorizon:       p.MaxHorizon,
		TrendWindow:      p.TrendWindow,
		HistoryWindow:    p.HistoryWindow,
		ModelBand:        p.ModelBand,
		FallbackBand:     p.FallbackBand,
		InferenceTimeout: p.InferenceTimeout,
	}, deps.Models, logger.Named("forecast"))

	s := cfg.Sentiment
	aggregator := sentiment.NewAggregator(scorer, sentiment.Config{
		Decay:             s.Decay,
		PositiveThreshold: s.PositiveThreshold,
		NegativeThreshold: s.NegativeThreshold,
	}, logger.Named("sentiment"))

	a := &App{
		cfg:          cfg,
		logger:       logger,
		collector:    deps.Collector,
		news:         deps.News,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		forecaster:   forecaster,
		aggregator:   aggregator,
		indicators:   indicator.DefaultParams(),
		alerts:       deps.Alerts,
		history:      deps.History,
		watchlistSet: make(map[string]struct{}),
		interval:     cfg.Refresh.Interval,
	}
	if a.interval <= 0 {
		a.interval = 15 * time.Minute
	}
	for _, item := range cfg.Watchlist {
		a.AddToWatchlist(item.Symbol, item.Name)
	}
	return a, nil
}

// NormalizeSymbol resolves a user-supplied name or ticker to the provider
// symbol, e.g. "reliance" to "RELIANCE.NS".
func (a *App) NormalizeSymbol(symbol string) (string, error) {
	s := collector.FormatSymbol(symbol, a.cfg.Collector.DefaultSuffix)
	if s == "" {
		return "", core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("symbol cannot be empty"))
	}
	return s, nil
}

// MaxHorizon returns the longest forecast horizon Predict accepts.
func (a *App) MaxHorizon() int {
	return a.forecaster.Config().MaxHorizon
}

// History returns the daily series of symbol over the configured period.
func (a *App) History(ctx context.Context, symbol string) (series core.Series, err error) {
	defer a.observe(OpHistory, time.Now(), &err)

	symbol, err = a.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	period := a.cfg.Collector.Period
	if period == "" {
		period = "1y"
	}
	return memoize(ctx, a, OpHistory, cache.Key(OpHistory, symbol, period), a.cfg.Cache.HistoryTTL,
		func(ctx context.Context) (core.Series, error) {
			return a.collector.FetchHistory(ctx, symbol, period)
		})
}

// Quote returns the latest quote of symbol.
func (a *App) Quote(ctx context.Context, symbol string) (q *core.Quote, err error) {
	defer a.observe(OpQuote, time.Now(), &err)

	symbol, err = a.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return memoize(ctx, a, OpQuote, cache.Key(OpQuote, symbol), a.cfg.Cache.QuoteTTL,
		func(ctx context.Context) (*core.Quote, error) {
			return a.collector.FetchQuote(ctx, symbol)
		})
}

// Indicators computes the indicator bundle over symbol's history.
func (a *App) Indicators(ctx context.Context, symbol string) (report *IndicatorReport, err error) {
	defer a.observe(OpIndicators, time.Now(), &err)

	symbol, err = a.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	series, err := a.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.indicatorReport(symbol, series)
}

func (a *App) indicatorReport(symbol string, series core.Series) (*IndicatorReport, error) {
	bundle, err := indicator.ComputeWith(series, a.indicators)
	if err != nil {
		return nil, err
	}
	last := series.Last()
	return &IndicatorReport{
		Symbol:    symbol,
		AsOf:      last.Time,
		LastClose: core.Round(last.Close, 2),
		Bars:      len(series),
		Bundle:    bundle,
	}, nil
}

// Predict forecasts the next days closes of symbol.
func (a *App) Predict(ctx context.Context, symbol string, days int) (result *forecast.Result, err error) {
	defer a.observe(OpPrediction, time.Now(), &err)

	symbol, err = a.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if days < 1 || days > a.MaxHorizon() {
		return nil, core.WrapError(core.ErrInvalidHorizon,
			fmt.Errorf("days %d not in [1, %d]", days, a.MaxHorizon()))
	}

	series, err := a.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.predict(ctx, symbol, series, days)
}

func (a *App) predict(ctx context.Context, symbol string, series core.Series, days int) (*forecast.Result, error) {
	key := cache.Key(OpPrediction, symbol, strconv.Itoa(days))
	return memoize(ctx, a, OpPrediction, key, a.cfg.Cache.PredictionTTL,
		func(ctx context.Context) (*forecast.Result, error) {
			r, err := a.forecaster.Predict(ctx, symbol, series, days)
			if err != nil {
				return nil, err
			}
			if a.metrics != nil {
				a.metrics.RecordPrediction(r.Estimator, r.FallbackReason)
			}
			return r.Rounded(), nil
		})
}

// Sentiment aggregates the sentiment of recent news about symbol. name is
// the search query; empty derives one from the symbol.
func (a *App) Sentiment(ctx context.Context, symbol, name string) (report *SentimentReport, err error) {
	defer a.observe(OpSentiment, time.Now(), &err)

	if a.news == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no news provider configured"))
	}
	symbol, err = a.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	query := name
	if query == "" {
		query = collector.DisplayName(symbol)
	}

	limit := a.cfg.News.Limit
	if limit <= 0 {
		limit = 15
	}
	return memoize(ctx, a, OpSentiment, cache.Key(OpSentiment, symbol, query), a.cfg.Cache.SentimentTTL,
		func(ctx context.Context) (*SentimentReport, error) {
			items, err := a.news.Fetch(ctx, query, limit)
			if err != nil {
				return nil, err
			}
			summary := a.aggregator.Aggregate(ctx, sentiment.NewsTexts(items))
			if a.metrics != nil {
				a.metrics.RecordSentiment(string(summary.Category), summary.Failed)
			}
			return &SentimentReport{
				Symbol:  symbol,
				Query:   query,
				Summary: summary.Rounded(),
				News:    items,
			}, nil
		})
}

// Overview computes the quote, indicators, forecast and sentiment of symbol.
// A failing part is reported in Overview.Errors; the call fails only when
// every part fails.
func (a *App) Overview(ctx context.Context, symbol, name string, days int) (ov *Overview, err error) {
	defer a.observe(OpOverview, time.Now(), &err)

	symbol, err = a.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ov = &Overview{Symbol: symbol, Errors: make(map[string]PartError)}

	var mu sync.Mutex
	fail := func(part string, err error) {
		mu.Lock()
		defer mu.Unlock()
		ov.Errors[part] = partError(err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		q, err := a.Quote(ctx, symbol)
		if err != nil {
			fail(OpQuote, err)
			return
		}
		mu.Lock()
		ov.Quote = q
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		s, err := a.Sentiment(ctx, symbol, name)
		if err != nil {
			fail(OpSentiment, err)
			return
		}
		mu.Lock()
		ov.Sentiment = s
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		series, err := a.History(ctx, symbol)
		if err != nil {
			fail(OpIndicators, err)
			fail(OpPrediction, err)
			return
		}
		if r, err := a.indicatorReport(symbol, series); err != nil {
			fail(OpIndicators, err)
		} else {
			mu.Lock()
			ov.Indicators = r
			mu.Unlock()
		}
		if days < 1 || days > a.MaxHorizon() {
			fail(OpPrediction, core.WrapError(core.ErrInvalidHorizon,
				fmt.Errorf("days %d not in [1, %d]", days, a.MaxHorizon())))
			return
		}
		if r, err := a.predict(ctx, symbol, series, days); err != nil {
			fail(OpPrediction, err)
		} else {
			mu.Lock()
			ov.Prediction = r
			mu.Unlock()
		}
	}()
	wg.Wait()

	if ov.Quote == nil && ov.Indicators == nil && ov.Prediction == nil && ov.Sentiment == nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("nothing could be computed for %s", symbol))
	}
	if len(ov.Errors) == 0 {
		ov.Errors = nil
	}
	return ov, nil
}

// memoize runs compute through the cache and records the lookup.
func memoize[T any](ctx context.Context, a *App, artifact, key string, ttl time.Duration,
	compute func(context.Context) (T, error)) (T, error) {
	v, hit, err := cache.Memoize(ctx, a.cache, key, ttl, a.logger, compute)
	if a.metrics != nil && a.cache != nil && err == nil {
		a.metrics.RecordCacheLookup(artifact, hit)
	}
	return v, err
}

// observe records the duration and error code of an operation. It is
// deferred with a pointer to the named error result.
func (a *App) observe(op string, start time.Time, errp *error) {
	if a.metrics == nil {
		return
	}
	code := ""
	if *errp != nil {
		code = core.CodeOf(*errp)
	}
	a.metrics.RecordOperation(op, code, time.Since(start).Seconds())
}

func partError(err error) PartError {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		msg := coreErr.Message
		if coreErr.Cause != nil {
			msg += ": " + coreErr.Cause.Error()
		}
		return PartError{Code: coreErr.Code, Message: msg}
	}
	return PartError{Code: core.CodeInternal, Message: err.Error()}
}
