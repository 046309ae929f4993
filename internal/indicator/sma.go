package indicator

// SMA returns the rolling mean of each full window of period prices, oldest
// first: len(prices)-period+1 values, or none when the series is too short.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	out := make([]float64, len(prices)-period+1)
	window := sum(prices[:period])
	out[0] = window / float64(period)
	for i := period; i < len(prices); i++ {
		window += prices[i] - prices[i-period]
		out[i-period+1] = window / float64(period)
	}
	return out
}

// EMA is the exponential moving average with smoothing 2/(period+1), seeded
// with the mean of the first window. It has the same length as SMA.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	k := 2 / float64(period+1)
	out := make([]float64, len(prices)-period+1)
	out[0] = sum(prices[:period]) / float64(period)
	for i := period; i < len(prices); i++ {
		prev := out[i-period]
		out[i-period+1] = prev + k*(prices[i]-prev)
	}
	return out
}

// MovingAverage is the mean of the trailing period prices. ok is false when
// fewer than period prices exist.
func MovingAverage(prices []float64, period int) (value float64, ok bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	return last(SMA(prices[len(prices)-period:], period))
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
