// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/binsig/internal/config"
	"github.com/newthinker/binsig/internal/llm"
	"github.com/newthinker/binsig/internal/llm/claude"
	"github.com/newthinker/binsig/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
// An empty provider name yields a nil provider and no error.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
