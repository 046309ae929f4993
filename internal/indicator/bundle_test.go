package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFrom(closes []float64) core.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.Series, len(closes))
	for i, c := range closes {
		s[i] = core.OHLCV{
			Symbol: "TEST",
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
			Time:   start.AddDate(0, 0, i),
		}
	}
	return s
}

func flat(n int, v float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = v
	}
	return closes
}

func TestCompute_FlatSeries(t *testing.T) {
	b, err := Compute(seriesFrom(flat(60, 100)))
	require.NoError(t, err)

	require.NotNil(t, b.MovingAverages[20])
	require.NotNil(t, b.MovingAverages[50])
	assert.Equal(t, 100.0, *b.MovingAverages[20])
	assert.Equal(t, 100.0, *b.MovingAverages[50])
	assert.Nil(t, b.MovingAverages[200])

	require.NotNil(t, b.RSI.Current)
	assert.Equal(t, 50.0, *b.RSI.Current)
	assert.Equal(t, SignalNeutral, b.RSI.Signal)
	assert.Equal(t, 70.0, b.RSI.Overbought)
	assert.Equal(t, 30.0, b.RSI.Oversold)

	require.NotNil(t, b.MACD.Histogram)
	assert.Equal(t, 0.0, *b.MACD.Histogram)
	assert.Equal(t, TrendBearish, b.MACD.Trend)

	assert.True(t, b.PivotPoints.Available)
	assert.Equal(t, 100.0, b.PivotPoints.Pivot)
	assert.Equal(t, []float64{99, 98, 97}, b.SupportResistance.Support)
	assert.Equal(t, []float64{101, 102, 103}, b.SupportResistance.Resistance)
}

func TestCompute_ShortSeriesDegrades(t *testing.T) {
	tests := []struct {
		name         string
		bars         int
		wantMA       map[int]bool
		wantRSI      bool
		wantMACDLine bool
		wantSignal   bool
	}{
		{"single bar", 1, map[int]bool{20: false, 50: false, 200: false}, false, false, false},
		{"rsi lookback minus one", 14, map[int]bool{20: false, 50: false, 200: false}, false, false, false},
		{"rsi lookback", 15, map[int]bool{20: false, 50: false, 200: false}, true, false, false},
		{"ma20", 20, map[int]bool{20: true, 50: false, 200: false}, true, false, false},
		{"macd line only", 30, map[int]bool{20: true, 50: false, 200: false}, true, true, false},
		{"macd signal", 34, map[int]bool{20: true, 50: false, 200: false}, true, true, true},
		{"everything", 200, map[int]bool{20: true, 50: true, 200: true}, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Compute(seriesFrom(wave(tt.bars)))
			require.NoError(t, err)

			for period, want := range tt.wantMA {
				assert.Equal(t, want, b.MovingAverages[period] != nil, "MA%d", period)
			}

			assert.Equal(t, tt.wantRSI, b.RSI.Current != nil)
			if !tt.wantRSI {
				assert.Equal(t, SignalUnavailable, b.RSI.Signal)
			}

			assert.Equal(t, tt.wantMACDLine, b.MACD.MACD != nil)
			assert.Equal(t, tt.wantSignal, b.MACD.Signal != nil)
			assert.Equal(t, tt.wantSignal, b.MACD.Histogram != nil)
			if !tt.wantSignal {
				assert.Equal(t, SignalUnavailable, b.MACD.Trend)
			}

			// Pivots only need the last bar.
			assert.True(t, b.PivotPoints.Available)
			assert.Len(t, b.SupportResistance.Support, 3)
		})
	}
}

func TestCompute_RSISignals(t *testing.T) {
	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 100 - float64(i)
	}

	b, err := Compute(seriesFrom(rising))
	require.NoError(t, err)
	assert.Equal(t, SignalOverbought, b.RSI.Signal)

	b, err = Compute(seriesFrom(falling))
	require.NoError(t, err)
	assert.Equal(t, SignalOversold, b.RSI.Signal)
}

func TestCompute_MACDTrend(t *testing.T) {
	// Accelerating prices keep the line above its signal.
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i*i)/20
	}

	b, err := Compute(seriesFrom(closes))
	require.NoError(t, err)
	require.NotNil(t, b.MACD.Histogram)
	assert.Greater(t, *b.MACD.Histogram, 0.0)
	assert.Equal(t, TrendBullish, b.MACD.Trend)
}

func TestCompute_RoundsToTwoDecimals(t *testing.T) {
	s := seriesFrom(wave(60))
	s[len(s)-1].High = 101.237
	s[len(s)-1].Low = 99.111
	s[len(s)-1].Close = 100.003

	b, err := Compute(s)
	require.NoError(t, err)

	for _, v := range []float64{
		b.PivotPoints.Pivot, b.PivotPoints.Resistance1, b.PivotPoints.Support3,
		*b.MovingAverages[20], *b.RSI.Current, *b.MACD.MACD,
	} {
		assert.InDelta(t, v, core.Round(v, 2), 1e-12)
	}
}

func TestCompute_InvalidSeries(t *testing.T) {
	s := seriesFrom(flat(5, 10))
	s[3].Time = s[1].Time

	_, err := Compute(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSeries))

	_, err = Compute(nil)
	assert.True(t, errors.Is(err, core.ErrInvalidSeries))

	s = seriesFrom(flat(5, 10))
	s[4].High = math.NaN()
	_, err = Compute(s)
	assert.True(t, errors.Is(err, core.ErrInvalidSeries))
}

func TestCompute_Deterministic(t *testing.T) {
	s := seriesFrom(wave(250))

	a, err := Compute(s)
	require.NoError(t, err)
	b, err := Compute(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeWith_CustomPeriods(t *testing.T) {
	p := DefaultParams()
	p.MAPeriods = []int{5, 10}

	b, err := ComputeWith(seriesFrom(wave(8)), p)
	require.NoError(t, err)
	assert.NotNil(t, b.MovingAverages[5])
	assert.Nil(t, b.MovingAverages[10])
	assert.NotContains(t, b.MovingAverages, 20)
}

func TestGuard_RecoversPanic(t *testing.T) {
	reading := MACDReading{Trend: SignalUnavailable}
	assert.NotPanics(t, func() {
		guard(func() {
			var m map[string]int
			m["boom"] = 1
			reading.Trend = TrendBullish
		})
	})
	assert.Equal(t, SignalUnavailable, reading.Trend)

	ran := false
	guard(func() { ran = true })
	assert.True(t, ran)
}
