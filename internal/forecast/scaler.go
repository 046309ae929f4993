package forecast

// MinMaxScaler maps values linearly onto [0, 1] using the range of the
// values it was fitted on.
type MinMaxScaler struct {
	Min float64
	Max float64
}

// FitMinMax fits a scaler to values. values must not be empty.
func FitMinMax(values []float64) MinMaxScaler {
	s := MinMaxScaler{Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// Transform scales v. A constant fit maps everything to 0.
func (s MinMaxScaler) Transform(v float64) float64 {
	span := s.Max - s.Min
	if span == 0 {
		return 0
	}
	return (v - s.Min) / span
}

// TransformAll scales every value into a new slice.
func (s MinMaxScaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Transform(v)
	}
	return out
}

// Inverse maps a scaled value back to price units.
func (s MinMaxScaler) Inverse(v float64) float64 {
	return s.Min + v*(s.Max-s.Min)
}
