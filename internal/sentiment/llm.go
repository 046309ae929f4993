package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm"
)

const llmSystemPrompt = `You are a financial news sentiment rater.
Rate the polarity of the given text for the company's stock.
Reply with JSON only: {"compound": c, "positive": p, "neutral": n, "negative": g}
where c is in [-1, 1] and p, n, g are proportions in [0, 1] summing to 1.`

// LLMScorer asks a chat model for polarity scores.
type LLMScorer struct {
	provider llm.Provider
}

// NewLLMScorer creates a scorer backed by provider.
func NewLLMScorer(provider llm.Provider) *LLMScorer {
	return &LLMScorer{provider: provider}
}

// Score implements Scorer.
func (s *LLMScorer) Score(ctx context.Context, text string) (Scores, error) {
	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: llmSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: text},
		},
		MaxTokens:   128,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return Scores{}, core.WrapError(core.ErrScoringFailed, fmt.Errorf("%s: %w", s.provider.Name(), err))
	}

	var sc Scores
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &sc); err != nil {
		return Scores{}, core.WrapError(core.ErrScoringFailed, fmt.Errorf("parsing %q: %w", resp.Content, err))
	}
	sc.Compound = clamp(sc.Compound, -1, 1)
	return sc, nil
}

// extractJSON trims prose or code fences some models wrap around the object.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
