package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/model"
)

// Estimator labels reported in Result.Estimator.
const (
	EstimatorLearned = "LSTM"
	EstimatorTrend   = "Linear Regression (Fallback)"
)

// Estimator produces horizon raw-price values following closes.
type Estimator interface {
	Name() string
	Forecast(ctx context.Context, closes []float64, horizon int) ([]float64, error)
}

// LearnedEstimator drives a single-step model recursively over a scaled window.
type LearnedEstimator struct {
	Model    model.Model
	Lookback int
	// Timeout bounds the whole recursive loop; zero means no bound.
	Timeout time.Duration
}

// Name implements Estimator.
func (LearnedEstimator) Name() string { return EstimatorLearned }

// Forecast scales closes with a scaler fitted on closes alone, predicts
// horizon steps feeding each prediction back into the window, and maps the
// results back to price units.
func (l LearnedEstimator) Forecast(ctx context.Context, closes []float64, horizon int) ([]float64, error) {
	if len(closes) < l.Lookback {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("have %d closes, need %d", len(closes), l.Lookback))
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	type outcome struct {
		values []float64
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := l.run(ctx, closes, horizon)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.values, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l LearnedEstimator) run(ctx context.Context, closes []float64, horizon int) ([]float64, error) {
	scaler := FitMinMax(closes)
	scaled := scaler.TransformAll(closes)

	window := make([]float64, l.Lookback)
	copy(window, scaled[len(scaled)-l.Lookback:])

	out := make([]float64, horizon)
	for k := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := l.Model.PredictNext(ctx, window)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return nil, core.WrapError(core.ErrModelFailed, fmt.Errorf("step %d produced %v", k+1, next))
		}
		window = append(window[1:], next)
		out[k] = scaler.Inverse(next)
	}
	return out, nil
}

// TrendEstimator extrapolates a least-squares line through the last Window closes.
type TrendEstimator struct {
	Window int
}

// Name implements Estimator.
func (TrendEstimator) Name() string { return EstimatorTrend }

// Forecast works in raw price units and needs at least one close.
func (t TrendEstimator) Forecast(_ context.Context, closes []float64, horizon int) ([]float64, error) {
	if len(closes) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData, fmt.Errorf("no closes to fit"))
	}

	tail := closes
	if t.Window > 0 && len(tail) > t.Window {
		tail = tail[len(tail)-t.Window:]
	}
	line := FitLine(tail)

	out := make([]float64, horizon)
	last := float64(len(tail) - 1)
	for k := range out {
		out[k] = line.At(last + float64(k+1))
	}
	return out, nil
}
