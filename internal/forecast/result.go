package forecast

import (
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Result is a horizon-step forecast with symmetric confidence bands and the
// trailing closes it was made from.
type Result struct {
	Symbol           string      `json:"symbol"`
	Predictions      []float64   `json:"predictions"`
	Dates            []time.Time `json:"dates"`
	Lower            []float64   `json:"lower"`
	Upper            []float64   `json:"upper"`
	HistoricalActual []float64   `json:"historical_actual"`
	HistoricalDates  []time.Time `json:"historical_dates"`
	Estimator        string      `json:"model_type"`
	FallbackReason   string      `json:"fallback_reason,omitempty"`
}

// IsFallback reports whether the trend estimator produced the result.
func (r *Result) IsFallback() bool {
	return r.Estimator == EstimatorTrend
}

// Rounded returns a copy with prices rounded to 2 decimals for display.
func (r *Result) Rounded() *Result {
	out := *r
	out.Predictions = core.RoundAll(r.Predictions, 2)
	out.Lower = core.RoundAll(r.Lower, 2)
	out.Upper = core.RoundAll(r.Upper, 2)
	out.HistoricalActual = core.RoundAll(r.HistoricalActual, 2)
	out.Dates = append([]time.Time(nil), r.Dates...)
	out.HistoricalDates = append([]time.Time(nil), r.HistoricalDates...)
	return &out
}

// bands returns v·(1-band) and v·(1+band), ordered so lower ≤ upper.
func bands(v, band float64) (lower, upper float64) {
	lower, upper = v*(1-band), v*(1+band)
	if lower > upper {
		lower, upper = upper, lower
	}
	return lower, upper
}
