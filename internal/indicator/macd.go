package indicator

// MACD calculates the MACD line, its signal line and the histogram.
//
// The line starts once the slow EMA is defined (len(prices)-slow+1 values).
// The signal line is an EMA of the line, so signal and histogram are
// signal-1 values shorter; both are aligned to the tail of the line.
func MACD(prices []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(prices) < slow {
		return []float64{}, []float64{}, []float64{}
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	offset := slow - fast

	line = make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine = EMA(line, signal)
	histogram = make([]float64, len(signalLine))
	tail := len(line) - len(signalLine)
	for i, s := range signalLine {
		histogram[i] = line[tail+i] - s
	}

	return line, signalLine, histogram
}
