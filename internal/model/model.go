// Package model loads and runs the sequence models behind price forecasts.
package model

import (
	"context"
	"errors"

	"github.com/newthinker/insight/internal/core"
)

// ErrNotFound is returned by a Source that holds no model for a symbol.
// A missing model is a normal condition; callers fall back to a trend estimate.
var ErrNotFound = core.ErrModelNotFound

// Model predicts the next scaled value from a window of scaled values.
type Model interface {
	PredictNext(ctx context.Context, window []float64) (float64, error)
}

// Source resolves a model for a symbol.
type Source interface {
	Load(ctx context.Context, symbol string) (Model, error)
}

// Chain tries each source in order and returns the first model found.
type Chain []Source

// Load implements Source.
func (c Chain) Load(ctx context.Context, symbol string) (Model, error) {
	for _, src := range c {
		m, err := src.Load(ctx, symbol)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
