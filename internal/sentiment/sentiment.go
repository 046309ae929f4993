// Package sentiment scores news text and combines the scores into a single
// recency-weighted signal.
package sentiment

import (
	"context"
	"time"
)

// Category is a qualitative polarity label.
type Category string

const (
	Positive Category = "Positive"
	Neutral  Category = "Neutral"
	Negative Category = "Negative"
)

// Scores are the polarity scores of one text. Compound lies in [-1, 1].
type Scores struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Scorer maps text to polarity scores.
type Scorer interface {
	Score(ctx context.Context, text string) (Scores, error)
}

// Item is one scored text with its recency weight.
type Item struct {
	Text     string   `json:"text"`
	Compound float64  `json:"compound"`
	Positive float64  `json:"positive"`
	Neutral  float64  `json:"neutral"`
	Negative float64  `json:"negative"`
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
	// Failed marks an item whose scoring failed; it contributes as neutral.
	Failed bool `json:"failed,omitempty"`
}

// Breakdown counts items per category.
type Breakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// NoDataNote annotates a summary computed from zero items.
const NoDataNote = "no data"

// Summary is the aggregate over a corpus.
type Summary struct {
	Score      float64   `json:"overall_score"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Sources    int       `json:"sources_analyzed"`
	Failed     int       `json:"failed,omitempty"`
	Breakdown  Breakdown `json:"breakdown"`
	NoData     bool      `json:"no_data,omitempty"`
	Note       string    `json:"note,omitempty"`
	Items      []Item    `json:"items,omitempty"`
	ComputedAt time.Time `json:"timestamp"`
}
