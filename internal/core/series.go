package core

import (
	"fmt"
	"math"
	"time"
)

// Series is a chronologically ordered run of daily bars for one instrument.
// Callers hand it to the analytics packages and must not mutate it afterwards.
type Series []OHLCV

// ValidateSeries rejects series the analytics must not compute over.
func ValidateSeries(s Series) error {
	if len(s) == 0 {
		return WrapError(ErrInvalidSeries, fmt.Errorf("series is empty"))
	}
	for i, bar := range s {
		if !finite(bar.Open, bar.High, bar.Low, bar.Close) {
			return WrapError(ErrInvalidSeries,
				fmt.Errorf("bar %d (%s) has non-finite prices", i, bar.Time.Format(time.DateOnly)))
		}
		if bar.Open < 0 || bar.High < 0 || bar.Low < 0 || bar.Close < 0 || bar.Volume < 0 {
			return WrapError(ErrInvalidSeries,
				fmt.Errorf("bar %d (%s) has negative values", i, bar.Time.Format(time.DateOnly)))
		}
		if i > 0 && !bar.Time.After(s[i-1].Time) {
			return WrapError(ErrInvalidSeries,
				fmt.Errorf("bar %d (%s) is not after %s", i,
					bar.Time.Format(time.DateOnly), s[i-1].Time.Format(time.DateOnly)))
		}
	}
	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Closes extracts closing prices.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}
	return closes
}

// Last returns the most recent bar. The series must not be empty.
func (s Series) Last() OHLCV {
	return s[len(s)-1]
}

// Tail returns the last n bars, or the whole series when shorter.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
