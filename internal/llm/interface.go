// Package llm abstracts the language-model providers used for market commentary.
package llm

import "context"

// Provider completes a single prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (*Completion, error)
}

// Prompt is a one-shot instruction plus input.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is the provider's answer.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens is used when a prompt leaves MaxTokens unset.
const DefaultMaxTokens = 512
