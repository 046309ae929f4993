package sentiment

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/newthinker/insight/internal/core"
	"go.uber.org/zap"
)

var errNaN = errors.New("scorer returned NaN")

// Config tunes the aggregation. Zero thresholds on both sides mean the
// defaults; a zero Decay weights every item equally.
type Config struct {
	// Decay sets the recency weight 1/(1 + Decay·rank).
	Decay             float64
	PositiveThreshold float64
	NegativeThreshold float64
}

// DefaultConfig returns decay 0.1 and ±0.05 category thresholds.
func DefaultConfig() Config {
	return Config{
		Decay:             0.1,
		PositiveThreshold: 0.05,
		NegativeThreshold: -0.05,
	}
}

// Aggregator combines per-text scores. It keeps no state between calls.
type Aggregator struct {
	scorer Scorer
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator over scorer.
func NewAggregator(scorer Scorer, cfg Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := DefaultConfig()
	if cfg.Decay < 0 {
		cfg.Decay = d.Decay
	}
	if cfg.PositiveThreshold == 0 && cfg.NegativeThreshold == 0 {
		cfg.PositiveThreshold, cfg.NegativeThreshold = d.PositiveThreshold, d.NegativeThreshold
	}
	return &Aggregator{scorer: scorer, cfg: cfg, logger: logger, now: time.Now}
}

// Classify maps a compound score to a category.
func (a *Aggregator) Classify(score float64) Category {
	switch {
	case score >= a.cfg.PositiveThreshold:
		return Positive
	case score <= a.cfg.NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Weight returns the recency weight of the item at rank (0 = most recent).
func (a *Aggregator) Weight(rank int) float64 {
	return 1 / (1 + a.cfg.Decay*float64(rank))
}

// Aggregate scores texts, most recent first, and combines them.
//
// An empty corpus yields a neutral summary with zero confidence and
// NoData set. A text whose scoring fails counts as a neutral source.
func (a *Aggregator) Aggregate(ctx context.Context, texts []string) *Summary {
	s := &Summary{
		Category:   Neutral,
		Items:      make([]Item, 0, len(texts)),
		ComputedAt: a.now(),
	}
	if len(texts) == 0 {
		s.NoData = true
		s.Note = NoDataNote
		return s
	}

	var weighted, total float64
	for i, text := range texts {
		item := a.score(ctx, text)
		item.Weight = a.Weight(i)

		switch item.Category {
		case Positive:
			s.Breakdown.Positive++
		case Negative:
			s.Breakdown.Negative++
		default:
			s.Breakdown.Neutral++
		}
		if item.Failed {
			s.Failed++
		}

		weighted += item.Compound * item.Weight
		total += item.Weight
		s.Items = append(s.Items, item)
	}

	s.Sources = len(s.Items)
	s.Score = weighted / total
	s.Category = a.Classify(s.Score)

	var deviation float64
	for _, item := range s.Items {
		deviation += math.Abs(item.Compound - s.Score)
	}
	s.Confidence = clamp(1-deviation/float64(len(s.Items)), 0, 1)

	return s
}

func (a *Aggregator) score(ctx context.Context, text string) Item {
	sc, err := a.scorer.Score(ctx, text)
	if err == nil && math.IsNaN(sc.Compound) {
		err = core.WrapError(core.ErrScoringFailed, errNaN)
	}
	if err != nil {
		a.logger.Warn("scoring failed, counting as neutral",
			zap.Int("length", len(text)),
			zap.Error(err),
		)
		return Item{Text: text, Neutral: 1, Category: Neutral, Failed: true}
	}

	c := clamp(sc.Compound, -1, 1)
	return Item{
		Text:     text,
		Compound: c,
		Positive: sc.Positive,
		Neutral:  sc.Neutral,
		Negative: sc.Negative,
		Category: a.Classify(c),
	}
}

// Rounded returns a copy with the score rounded to 3 decimals and the
// confidence to 2.
func (s *Summary) Rounded() *Summary {
	out := *s
	out.Score = core.Round(s.Score, 3)
	out.Confidence = core.Round(s.Confidence, 2)
	return &out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
