package forecast

// Line is a fitted degree-1 polynomial y = Slope·x + Intercept.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// FitLine fits an ordinary least-squares line to y against x = 0..len(y)-1.
// A single point yields a flat line through it.
func FitLine(y []float64) Line {
	n := float64(len(y))
	if len(y) == 0 {
		return Line{}
	}
	if len(y) == 1 {
		return Line{Intercept: y[0]}
	}

	var sumX, sumY float64
	for i, v := range y {
		sumX += float64(i)
		sumY += v
	}
	meanX, meanY := sumX/n, sumY/n

	var sxy, sxx float64
	for i, v := range y {
		dx := float64(i) - meanX
		sxy += dx * (v - meanY)
		sxx += dx * dx
	}

	slope := sxy / sxx
	return Line{Slope: slope, Intercept: meanY - slope*meanX}
}
