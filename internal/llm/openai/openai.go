// Package openai adapts OpenAI and OpenAI-compatible chat endpoints to
// llm.Provider.
package openai

import (
	"context"
	"fmt"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel     = openai.GPT4oMini
	defaultMaxTokens = 256
)

type Provider struct {
	client *openai.Client
	model  string
}

// New returns a provider authenticated with apiKey. baseURL points the
// client at a compatible gateway (vLLM, LiteLLM, Azure proxies); empty uses
// api.openai.com.
func New(apiKey, model, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("openai api key required"))
	}
	if model == "" {
		model = defaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Provider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) buildRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	out := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		MaxTokens:   defaultMaxTokens,
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}
	if req.JSONMode {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

// Chat runs one chat completion and returns the first choice.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, llm.WrapError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.WrapError(p.Name(), fmt.Errorf("response has no choices"))
	}

	choice := resp.Choices[0]
	return &llm.ChatResponse{
		Content: choice.Message.Content,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: string(choice.FinishReason),
	}, nil
}
