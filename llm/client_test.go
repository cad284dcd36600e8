package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
)

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Provider: "anthropic", Model: "m", APIKey: "k", MaxTokens: 1024}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := Config{Provider: "anthropic"}
	if err := bad.Validate(); err == nil {
		t.Error("config without model/key should be rejected")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon", Model: "m", APIKey: "k", MaxTokens: 10})
	if err == nil {
		t.Error("unknown provider should error")
	}
}

func TestRenderPrompt_JSONFormat(t *testing.T) {
	prompt := renderPrompt(CompletionRequest{
		Prompt:         "plan the phases",
		ResponseFormat: FormatJSON,
		Schema:         map[string]interface{}{"type": "object"},
	})
	if !strings.Contains(prompt, "single JSON object") {
		t.Error("JSON format should append the JSON instruction")
	}
	if !strings.Contains(prompt, `"type": "object"`) {
		t.Error("schema should be embedded in the prompt")
	}

	plain := renderPrompt(CompletionRequest{Prompt: "hello"})
	if plain != "hello" {
		t.Errorf("text format should leave the prompt untouched, got %q", plain)
	}
}

func TestDecodeJSON_Plain(t *testing.T) {
	var out map[string]interface{}
	if err := DecodeJSON(`{"ok": true}`, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if out["ok"] != true {
		t.Errorf("unexpected decode result: %v", out)
	}
}

func TestDecodeJSON_Fenced(t *testing.T) {
	content := "```json\n{\"phases\": []}\n```"
	var out map[string]interface{}
	if err := DecodeJSON(content, &out); err != nil {
		t.Fatalf("fenced JSON should decode: %v", err)
	}
}

func TestDecodeJSON_SurroundingProse(t *testing.T) {
	content := "Here is the plan:\n{\"phases\": []}\nLet me know if you need changes."
	var out map[string]interface{}
	if err := DecodeJSON(content, &out); err != nil {
		t.Fatalf("JSON with surrounding prose should decode: %v", err)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	var out map[string]interface{}
	err := DecodeJSON("I cannot help with that.", &out)
	if !errors.Is(err, errors.ErrCodeLLMResponse) {
		t.Errorf("expected LLM_RESPONSE error, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("malformed model output should be retryable")
	}
}

func TestMockClient_QueueAndRecord(t *testing.T) {
	m := NewMockClient()
	m.QueueResponse("first")
	m.QueueResponse("second")

	ctx := context.Background()
	r1, _ := m.Complete(ctx, CompletionRequest{Prompt: "a"})
	r2, _ := m.Complete(ctx, CompletionRequest{Prompt: "b"})
	r3, _ := m.Complete(ctx, CompletionRequest{Prompt: "c"})

	if r1.Content != "first" || r2.Content != "second" || r3.Content != "second" {
		t.Errorf("unexpected responses: %q %q %q", r1.Content, r2.Content, r3.Content)
	}
	if m.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", m.CallCount())
	}
	if m.LastRequest().Prompt != "c" {
		t.Errorf("unexpected last request: %+v", m.LastRequest())
	}
}

func TestRetryClient_RetriesTransient(t *testing.T) {
	attempts := 0
	m := NewMockClient()
	m.CompleteFunc = func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("connection reset")
		}
		return &CompletionResponse{Content: "ok"}, nil
	}

	rc := NewRetryClient(m, RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	})

	resp, err := rc.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if resp.Content != "ok" || attempts != 3 {
		t.Errorf("expected success on attempt 3, got %q after %d attempts", resp.Content, attempts)
	}
}

func TestRetryClient_PermanentFailsFast(t *testing.T) {
	attempts := 0
	m := NewMockClient()
	m.CompleteFunc = func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		attempts++
		return nil, errors.TenantAccessDenied("planner")
	}

	rc := NewRetryClient(m, RetryConfig{InitialInterval: time.Millisecond, MaxElapsedTime: time.Second})
	_, err := rc.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("non-retryable errors must not be retried, got %d attempts", attempts)
	}
}
