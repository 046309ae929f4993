package indicator

import (
	"github.com/newthinker/insight/internal/core"
)

// Qualitative labels reported alongside indicator values.
const (
	SignalOverbought  = "Overbought"
	SignalOversold    = "Oversold"
	SignalNeutral     = "Neutral"
	TrendBullish      = "Bullish"
	TrendBearish      = "Bearish"
	SignalUnavailable = "N/A"
)

// Params configures Compute.
type Params struct {
	MAPeriods  []int
	RSIPeriod  int
	Overbought float64
	Oversold   float64
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	Precision  int32
}

// DefaultParams returns MA 20/50/200, RSI(14) with 70/30 thresholds and MACD(12,26,9).
func DefaultParams() Params {
	return Params{
		MAPeriods:  []int{20, 50, 200},
		RSIPeriod:  14,
		Overbought: 70,
		Oversold:   30,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		Precision:  2,
	}
}

// RSIReading is the latest RSI value with its classification.
type RSIReading struct {
	Current    *float64 `json:"current"`
	Overbought float64  `json:"overbought"`
	Oversold   float64  `json:"oversold"`
	Signal     string   `json:"signal"`
}

// MACDReading is the latest MACD line, signal line and histogram.
// Signal and Histogram stay nil while the signal EMA is still warming up.
type MACDReading struct {
	MACD      *float64 `json:"macd"`
	Signal    *float64 `json:"signal"`
	Histogram *float64 `json:"histogram"`
	Trend     string   `json:"trend"`
}

// PivotPoints are the rounded pivot levels of the most recent bar.
type PivotPoints struct {
	Available   bool    `json:"available"`
	Pivot       float64 `json:"pivot"`
	Resistance1 float64 `json:"resistance_1"`
	Resistance2 float64 `json:"resistance_2"`
	Resistance3 float64 `json:"resistance_3"`
	Support1    float64 `json:"support_1"`
	Support2    float64 `json:"support_2"`
	Support3    float64 `json:"support_3"`
}

// SupportResistance lists support levels nearest first and resistance levels nearest first.
type SupportResistance struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// Bundle holds every indicator computed for a series.
type Bundle struct {
	MovingAverages    map[int]*float64  `json:"moving_averages"`
	RSI               RSIReading        `json:"rsi"`
	MACD              MACDReading       `json:"macd"`
	PivotPoints       PivotPoints       `json:"pivot_points"`
	SupportResistance SupportResistance `json:"support_resistance"`
}

// Compute calculates the indicator bundle with DefaultParams.
func Compute(series core.Series) (*Bundle, error) {
	return ComputeWith(series, DefaultParams())
}

// ComputeWith validates the series and computes each indicator independently.
// Indicators that need more history than the series holds are reported as
// unavailable. Values are rounded to p.Precision decimals.
func ComputeWith(series core.Series, p Params) (*Bundle, error) {
	if err := core.ValidateSeries(series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	b := &Bundle{
		MovingAverages:    make(map[int]*float64, len(p.MAPeriods)),
		RSI:               RSIReading{Overbought: p.Overbought, Oversold: p.Oversold, Signal: SignalUnavailable},
		MACD:              MACDReading{Trend: SignalUnavailable},
		SupportResistance: SupportResistance{Support: []float64{}, Resistance: []float64{}},
	}

	for _, period := range p.MAPeriods {
		b.MovingAverages[period] = nil
		guard(func() {
			if v, ok := MovingAverage(closes, period); ok {
				b.MovingAverages[period] = round(v, p.Precision)
			}
		})
	}

	guard(func() { b.RSI = rsiReading(closes, p) })
	guard(func() { b.MACD = macdReading(closes, p) })
	guard(func() {
		b.PivotPoints, b.SupportResistance = pivotReading(series.Last(), p.Precision)
	})

	return b, nil
}

func rsiReading(closes []float64, p Params) RSIReading {
	r := RSIReading{Overbought: p.Overbought, Oversold: p.Oversold, Signal: SignalUnavailable}
	v, ok := last(RSI(closes, p.RSIPeriod))
	if !ok {
		return r
	}

	r.Current = round(v, p.Precision)
	switch {
	case v > p.Overbought:
		r.Signal = SignalOverbought
	case v < p.Oversold:
		r.Signal = SignalOversold
	default:
		r.Signal = SignalNeutral
	}
	return r
}

func macdReading(closes []float64, p Params) MACDReading {
	m := MACDReading{Trend: SignalUnavailable}
	line, signal, hist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)

	v, ok := last(line)
	if !ok {
		return m
	}
	m.MACD = round(v, p.Precision)

	s, ok := last(signal)
	if !ok {
		return m
	}
	h, _ := last(hist)
	m.Signal = round(s, p.Precision)
	m.Histogram = round(h, p.Precision)
	if h > 0 {
		m.Trend = TrendBullish
	} else {
		m.Trend = TrendBearish
	}
	return m
}

func pivotReading(bar core.OHLCV, places int32) (PivotPoints, SupportResistance) {
	lv := Pivots(bar)
	pp := PivotPoints{
		Available:   true,
		Pivot:       core.Round(lv.Pivot, places),
		Resistance1: core.Round(lv.Resistance1, places),
		Resistance2: core.Round(lv.Resistance2, places),
		Resistance3: core.Round(lv.Resistance3, places),
		Support1:    core.Round(lv.Support1, places),
		Support2:    core.Round(lv.Support2, places),
		Support3:    core.Round(lv.Support3, places),
	}
	sr := SupportResistance{
		Support:    []float64{pp.Support1, pp.Support2, pp.Support3},
		Resistance: []float64{pp.Resistance1, pp.Resistance2, pp.Resistance3},
	}
	return pp, sr
}

// guard runs fn and swallows a panic so that one indicator cannot take
// down the bundle. A panicking indicator keeps its unavailable default.
func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func round(v float64, places int32) *float64 {
	r := core.Round(v, places)
	return &r
}
