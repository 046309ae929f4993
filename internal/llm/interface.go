package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/insight/internal/core"
)

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// JSONInstruction is appended to the system prompt by providers without a
// native JSON response mode.
const JSONInstruction = "Respond with a single JSON object and nothing else."

// WrapError classifies a provider failure as core.ErrLLMTimeout when the
// context deadline expired and core.ErrLLMFailed otherwise.
func WrapError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrLLMTimeout, fmt.Errorf("%s: %w", provider, err))
	}
	return core.WrapError(core.ErrLLMFailed, fmt.Errorf("%s: %w", provider, err))
}

// WithTimeout bounds every Chat call on p to d. A non-positive d returns p
// unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{Provider: p, timeout: d}
}

type timeoutProvider struct {
	Provider
	timeout time.Duration
}

func (t *timeoutProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Provider.Chat(ctx, req)
}
