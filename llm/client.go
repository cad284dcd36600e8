// Package llm provides the LLM boundary of the orchestration core: a
// single synchronous Complete call, provider adapters, and retry handling.
// Everything nondeterministic is isolated behind the Client interface so
// planning and agent logic stay testable without a model.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Response formats a caller may request.
const (
	// FormatText asks for free-form text.
	FormatText = "text"

	// FormatJSON asks for a single JSON object. Adapters append a JSON
	// instruction to the prompt; callers parse with DecodeJSON and treat
	// violations as retryable, never as a crash.
	FormatJSON = "json"
)

// CompletionRequest is one reasoning call.
type CompletionRequest struct {
	// Model overrides the adapter's configured model when non-empty.
	Model string `json:"model,omitempty"`

	// System is the system prompt, if any.
	System string `json:"system,omitempty"`

	// Prompt is the user-visible prompt.
	Prompt string `json:"prompt"`

	// ResponseFormat is FormatText or FormatJSON.
	ResponseFormat string `json:"responseFormat,omitempty"`

	// Schema optionally describes the expected JSON shape. It is rendered
	// into the prompt; adapters do not enforce it.
	Schema map[string]interface{} `json:"schema,omitempty"`

	// Temperature in [0,1]. Zero value means provider default.
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the response length. Zero uses the adapter default.
	MaxTokens int `json:"maxTokens,omitempty"`
}

// Usage reports token consumption for telemetry correlation.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Client is the interface all provider adapters implement.
type Client interface {
	// Complete sends one completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Config holds common adapter configuration.
type Config struct {
	Provider  string        `json:"provider"` // anthropic, openai, google
	Model     string        `json:"model"`
	APIKey    string        `json:"api_key"`
	BaseURL   string        `json:"base_url,omitempty"` // custom endpoint, where supported
	MaxTokens int           `json:"max_tokens"`
	Timeout   time.Duration `json:"timeout,omitempty"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.MaxTokens == 0 {
		return fmt.Errorf("max_tokens is required")
	}
	return nil
}

// New creates a provider adapter from configuration.
func New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	case "google":
		return NewGoogleClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// jsonInstruction is appended to prompts requesting FormatJSON.
const jsonInstruction = "\n\nRespond with a single JSON object and nothing else. No prose, no markdown fences."

// renderPrompt applies the response format and optional schema to a prompt.
func renderPrompt(req CompletionRequest) string {
	prompt := req.Prompt
	if req.ResponseFormat == FormatJSON {
		if len(req.Schema) > 0 {
			prompt += "\n\nThe JSON object must match this schema:\n" + MarshalSchema(req.Schema)
		}
		prompt += jsonInstruction
	}
	return prompt
}
