package app

import (
	"context"
	"fmt"

	"github.com/newthinker/insight/internal/alert"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/forecast"
	"github.com/newthinker/insight/internal/storage/history"
)

// snapshot is what one refresh computed for a symbol. Any part may be nil.
type snapshot struct {
	quote      *core.Quote
	indicators *IndicatorReport
	prediction *forecast.Result
	sentiment  *SentimentReport
}

// AlertList is a page of fired alerts.
type AlertList struct {
	Alerts []core.Alert `json:"alerts"`
	Total  int          `json:"total"`
}

// Alerts lists fired alerts matching filter, newest first.
func (a *App) Alerts(ctx context.Context, filter history.ListFilter) (*AlertList, error) {
	if a.history == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("alerts are not enabled"))
	}
	if filter.Symbol != "" {
		symbol, err := a.NormalizeSymbol(filter.Symbol)
		if err != nil {
			return nil, err
		}
		filter.Symbol = symbol
	}

	alerts, err := a.history.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := a.history.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &AlertList{Alerts: alerts, Total: total}, nil
}

// Alert returns one fired alert by ID.
func (a *App) Alert(ctx context.Context, id string) (*core.Alert, error) {
	if a.history == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("alerts are not enabled"))
	}
	return a.history.GetByID(ctx, id)
}

func (a *App) evaluateAlerts(ctx context.Context, symbol string, snap snapshot) {
	values := snap.values()
	if len(values) == 0 {
		return
	}
	for _, fired := range a.alerts.Evaluate(ctx, symbol, values) {
		if a.metrics != nil {
			a.metrics.RecordAlert(fired.Rule, string(fired.Severity))
		}
	}
}

// values flattens the snapshot into the metrics alert rules refer to.
// Parts that were not computed are left out, so their rules never fire.
func (s snapshot) values() map[string]float64 {
	v := make(map[string]float64)

	if q := s.quote; q != nil {
		v[alert.MetricPrice] = q.Price
		if q.PreviousClose > 0 {
			v[alert.MetricChangePct] = q.ChangePercent()
		}
	}

	if s.indicators != nil && s.indicators.Bundle != nil {
		b := s.indicators.Bundle
		if b.RSI.Current != nil {
			v[alert.MetricRSI] = *b.RSI.Current
		}
		if b.MACD.Histogram != nil {
			v[alert.MetricMACDHistogram] = *b.MACD.Histogram
		}
	}

	if p := s.prediction; p != nil && len(p.Predictions) > 0 && len(p.HistoricalActual) > 0 {
		base := p.HistoricalActual[len(p.HistoricalActual)-1]
		if base != 0 {
			last := p.Predictions[len(p.Predictions)-1]
			v[alert.MetricForecastChangePct] = (last - base) / base * 100
		}
	}

	if s.sentiment != nil && s.sentiment.Summary != nil && !s.sentiment.Summary.NoData {
		v[alert.MetricSentimentScore] = s.sentiment.Summary.Score
		v[alert.MetricSentimentConfidence] = s.sentiment.Summary.Confidence
	}
	return v
}
