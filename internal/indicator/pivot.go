package indicator

import "github.com/newthinker/insight/internal/core"

// PivotLevels holds classic floor-trader pivot levels.
type PivotLevels struct {
	Pivot       float64
	Resistance1 float64
	Resistance2 float64
	Resistance3 float64
	Support1    float64
	Support2    float64
	Support3    float64
}

// Pivots derives the levels from a single bar's high, low and close.
func Pivots(bar core.OHLCV) PivotLevels {
	h, l, c := bar.High, bar.Low, bar.Close
	p := (h + l + c) / 3

	return PivotLevels{
		Pivot:       p,
		Resistance1: 2*p - l,
		Resistance2: p + (h - l),
		Resistance3: h + 2*(p-l),
		Support1:    2*p - h,
		Support2:    p - (h - l),
		Support3:    l - 2*(h-p),
	}
}
