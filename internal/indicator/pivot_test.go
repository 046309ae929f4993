package indicator

import (
	"testing"

	"github.com/newthinker/insight/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestPivots_Formulas(t *testing.T) {
	lv := Pivots(core.OHLCV{High: 110, Low: 90, Close: 105})

	p := (110.0 + 90 + 105) / 3
	assert.InDelta(t, p, lv.Pivot, 1e-9)
	assert.InDelta(t, 2*p-90, lv.Resistance1, 1e-9)
	assert.InDelta(t, p+20, lv.Resistance2, 1e-9)
	assert.InDelta(t, 110+2*(p-90), lv.Resistance3, 1e-9)
	assert.InDelta(t, 2*p-110, lv.Support1, 1e-9)
	assert.InDelta(t, p-20, lv.Support2, 1e-9)
	assert.InDelta(t, 90-2*(110-p), lv.Support3, 1e-9)
}

func TestPivots_Symmetry(t *testing.T) {
	bars := []core.OHLCV{
		{High: 110, Low: 90, Close: 105},
		{High: 52.3, Low: 48.1, Close: 48.9},
		{High: 100, Low: 100, Close: 100},
		{High: 2500, Low: 2410, Close: 2499},
	}

	for _, bar := range bars {
		lv := Pivots(bar)
		width := bar.High - bar.Low

		assert.InDelta(t, width, lv.Resistance2-lv.Pivot, 1e-9)
		assert.InDelta(t, width, lv.Pivot-lv.Support2, 1e-9)
		assert.InDelta(t, width, lv.Resistance1-lv.Support1, 1e-9)
		assert.LessOrEqual(t, lv.Support3, lv.Support2)
		assert.LessOrEqual(t, lv.Resistance2, lv.Resistance3)
	}
}

func TestPivots_MidpointClose(t *testing.T) {
	// With the close at the bar midpoint R1 and S1 sit equally far from the pivot.
	bars := []core.OHLCV{
		{High: 110, Low: 90, Close: 100},
		{High: 21, Low: 19, Close: 20},
		{High: 7.5, Low: 7.5, Close: 7.5},
	}

	for _, bar := range bars {
		lv := Pivots(bar)
		assert.InDelta(t, lv.Resistance1-lv.Pivot, lv.Pivot-lv.Support1, 1e-9)
	}
}
