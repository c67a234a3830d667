package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/llm"
)

const narratorSystemPrompt = `You summarize simulated market analysis for a binary options signal sheet.
Write at most three short sentences covering trend, volatility and notable levels.
Do not give financial advice and do not invent figures that are not in the input.`

// Narrator turns an Analysis into a short commentary using an LLM.
type Narrator struct {
	provider llm.Provider
}

// NewNarrator creates a narrator. A nil provider disables commentary.
func NewNarrator(provider llm.Provider) *Narrator {
	return &Narrator{provider: provider}
}

// Enabled reports whether a provider is configured.
func (n *Narrator) Enabled() bool {
	return n != nil && n.provider != nil
}

// Narrate returns the commentary for a, or "" when disabled.
func (n *Narrator) Narrate(ctx context.Context, a *Analysis) (string, error) {
	if !n.Enabled() || a == nil {
		return "", nil
	}

	input, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encoding analysis: %w", err)
	}

	resp, err := n.provider.Complete(ctx, llm.Prompt{
		System:      narratorSystemPrompt,
		User:        string(input),
		MaxTokens:   200,
		Temperature: 0.2,
	})
	if err != nil {
		return "", core.WrapError(core.ErrLLMFailed, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
