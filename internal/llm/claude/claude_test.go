// internal/llm/claude/claude_test.go
package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/binsig/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", "model", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, p.model)
	}
	if p.Name() != "claude" {
		t.Errorf("unexpected name %s", p.Name())
	}
}

func TestProvider_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [{"type": "text", "text": "EUR/USD is trending up."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 42, "output_tokens": 7}
		}`))
	}))
	defer srv.Close()

	p, err := New("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := p.Complete(context.Background(), llm.Prompt{
		System:    "be brief",
		User:      `{"symbol":"EUR/USD"}`,
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if out.Text != "EUR/USD is trending up." {
		t.Errorf("unexpected text %q", out.Text)
	}
	if out.InputTokens != 42 || out.OutputTokens != 7 {
		t.Errorf("unexpected usage %d/%d", out.InputTokens, out.OutputTokens)
	}
	if got["model"] != "test-model" {
		t.Errorf("expected model test-model, got %v", got["model"])
	}
	if got["max_tokens"] != float64(100) {
		t.Errorf("expected max_tokens 100, got %v", got["max_tokens"])
	}
	if _, ok := got["temperature"]; ok {
		t.Error("temperature should be omitted when zero")
	}
}

func TestProvider_Complete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	p, _ := New("test-key", "", srv.URL)
	if _, err := p.Complete(context.Background(), llm.Prompt{User: "x"}); err == nil {
		t.Error("expected error from API")
	}
}
