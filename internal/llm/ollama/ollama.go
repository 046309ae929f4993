// Package ollama talks to a local Ollama server over its /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/llm"
)

const (
	defaultEndpoint = "http://localhost:11434"
	// Headline scoring needs a small instruction model, not a large one.
	defaultModel     = "llama3.1:8b"
	defaultMaxTokens = 256
)

// Provider scores text with a model served by Ollama.
type Provider struct {
	endpoint string
	model    string
	client   *http.Client
}

// New returns a provider for endpoint and model, filling in the local
// defaults for either when empty.
func New(endpoint, model string) (*Provider, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		// Callers bound each call through the context; this only caps a
		// model that is still loading.
		client: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (p *Provider) Name() string { return "ollama" }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options,omitempty"`
	Format   string    `json:"format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message         message `json:"message"`
	DoneReason      string  `json:"done_reason,omitempty"`
	PromptEvalCount int     `json:"prompt_eval_count,omitempty"`
	EvalCount       int     `json:"eval_count,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// buildRequest maps req onto the Ollama wire format. The system prompt
// becomes the leading message.
func (p *Provider) buildRequest(req llm.ChatRequest) chatRequest {
	msgs := make([]message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, message{Role: m.Role, Content: m.Content})
	}

	out := chatRequest{
		Model:    p.model,
		Messages: msgs,
		Options: options{
			NumPredict:  defaultMaxTokens,
			Temperature: req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		out.Options.NumPredict = req.MaxTokens
	}
	if req.JSONMode {
		out.Format = "json"
	}
	return out
}

// Chat runs one non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("ollama: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.WrapError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, llm.WrapError(p.Name(),
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, llm.WrapError(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return nil, llm.WrapError(p.Name(), fmt.Errorf("%s", out.Error))
	}

	return &llm.ChatResponse{
		Content:      out.Message.Content,
		Usage:        llm.Usage{InputTokens: out.PromptEvalCount, OutputTokens: out.EvalCount},
		FinishReason: out.DoneReason,
	}, nil
}
