// Package factory builds the configured llm.Provider for the sentiment
// scorer.
package factory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm"
	"github.com/newthinker/insight/internal/llm/claude"
	"github.com/newthinker/insight/internal/llm/ollama"
	"github.com/newthinker/insight/internal/llm/openai"
)

type builder func(cfg config.LLMConfig) (llm.Provider, error)

var builders = map[string]builder{
	"claude": func(cfg config.LLMConfig) (llm.Provider, error) {
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	},
	"openai": func(cfg config.LLMConfig) (llm.Provider, error) {
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	},
	"ollama": func(cfg config.LLMConfig) (llm.Provider, error) {
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	},
}

// Names lists the supported provider names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider named by cfg.Provider, bounded by cfg.Timeout.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	build, ok := builders[cfg.Provider]
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q (want one of %s)", cfg.Provider, strings.Join(Names(), ", ")))
	}
	p, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return llm.WithTimeout(p, cfg.Timeout), nil
}
