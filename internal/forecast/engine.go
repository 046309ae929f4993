// Package forecast produces short-horizon price forecasts from a daily series,
// using a learned sequence model when one is available and a linear trend
// otherwise.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/model"
	"go.uber.org/zap"
)

// Fallback reasons reported in Result.FallbackReason.
const (
	ReasonNoModel          = "no_model"
	ReasonModelLoadFailed  = "model_load_failed"
	ReasonInferenceFailed  = "inference_failed"
	ReasonInferenceTimeout = "inference_timeout"
)

// Config tunes the engine. Zero values take the defaults of DefaultConfig.
type Config struct {
	Lookback         int
	MaxHorizon       int
	TrendWindow      int
	HistoryWindow    int
	ModelBand        float64
	FallbackBand     float64
	InferenceTimeout time.Duration
}

// DefaultConfig returns a 60-bar lookback, 1..5 day horizons, a 30-close
// trend fit and ±5% / ±7% bands.
func DefaultConfig() Config {
	return Config{
		Lookback:         60,
		MaxHorizon:       5,
		TrendWindow:      30,
		HistoryWindow:    30,
		ModelBand:        0.05,
		FallbackBand:     0.07,
		InferenceTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if c.MaxHorizon <= 0 {
		c.MaxHorizon = d.MaxHorizon
	}
	if c.TrendWindow <= 0 {
		c.TrendWindow = d.TrendWindow
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = d.HistoryWindow
	}
	// A zero band is a point forecast; only negative bands are invalid.
	c.ModelBand = math.Max(c.ModelBand, 0)
	c.FallbackBand = math.Max(c.FallbackBand, 0)
	return c
}

// Engine forecasts prices. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	cfg    Config
	models model.Source
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates an engine. A nil models source always uses the trend estimator.
func NewEngine(cfg Config, models model.Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg.withDefaults(),
		models: models,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Predict forecasts horizon daily closes after the end of series.
//
// Malformed series fail with core.ErrInvalidSeries, horizons outside
// 1..MaxHorizon with core.ErrInvalidHorizon and series shorter than the
// lookback with core.ErrInsufficientData. Model problems never fail the
// call: the trend estimator takes over and Result.FallbackReason says why.
func (e *Engine) Predict(ctx context.Context, symbol string, series core.Series, horizon int) (*Result, error) {
	if err := core.ValidateSeries(series); err != nil {
		return nil, err
	}
	if horizon < 1 || horizon > e.cfg.MaxHorizon {
		return nil, core.WrapError(core.ErrInvalidHorizon,
			fmt.Errorf("horizon %d not in [1, %d]", horizon, e.cfg.MaxHorizon))
	}
	if len(series) < e.cfg.Lookback {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("have %d bars, need %d", len(series), e.cfg.Lookback))
	}

	closes := series.Closes()
	est, reason := e.resolve(ctx, symbol)

	values, err := est.Forecast(ctx, closes, horizon)
	if err != nil {
		reason = ReasonInferenceFailed
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonInferenceTimeout
		}
		e.logger.Warn("model inference failed, using trend",
			zap.String("symbol", symbol),
			zap.String("reason", reason),
			zap.Error(err),
		)
		est = e.trend()
		if values, err = est.Forecast(ctx, closes, horizon); err != nil {
			return nil, err
		}
	}

	return e.assemble(symbol, series, est, reason, values), nil
}

// resolve picks the estimator for symbol once per request.
func (e *Engine) resolve(ctx context.Context, symbol string) (Estimator, string) {
	if e.models == nil {
		return e.trend(), ReasonNoModel
	}

	m, err := e.models.Load(ctx, symbol)
	switch {
	case err == nil:
		return LearnedEstimator{Model: m, Lookback: e.cfg.Lookback, Timeout: e.cfg.InferenceTimeout}, ""
	case errors.Is(err, model.ErrNotFound):
		e.logger.Debug("no model for symbol, using trend", zap.String("symbol", symbol))
		return e.trend(), ReasonNoModel
	default:
		e.logger.Warn("model load failed, using trend",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return e.trend(), ReasonModelLoadFailed
	}
}

func (e *Engine) trend() Estimator {
	return TrendEstimator{Window: e.cfg.TrendWindow}
}

func (e *Engine) assemble(symbol string, series core.Series, est Estimator, reason string, values []float64) *Result {
	horizon := len(values)
	r := &Result{
		Symbol:         symbol,
		Predictions:    values,
		Dates:          make([]time.Time, horizon),
		Lower:          make([]float64, horizon),
		Upper:          make([]float64, horizon),
		Estimator:      est.Name(),
		FallbackReason: reason,
	}

	band := e.cfg.ModelBand
	origin := series.Last().Time
	if est.Name() == EstimatorTrend {
		band = e.cfg.FallbackBand
		now := e.now().UTC()
		origin = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	for k, v := range values {
		r.Lower[k], r.Upper[k] = bands(v, band)
		r.Dates[k] = origin.AddDate(0, 0, k+1)
	}

	history := series.Tail(e.cfg.HistoryWindow)
	r.HistoricalActual = history.Closes()
	r.HistoricalDates = make([]time.Time, len(history))
	for i, bar := range history {
		r.HistoricalDates[i] = bar.Time
	}
	return r
}
