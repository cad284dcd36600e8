package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleClient implements Client using the official Google Gemini SDK.
type GoogleClient struct {
	client    *genai.Client
	modelName string
	maxTokens int32
}

// NewGoogleClient creates a new Google Gemini adapter.
func NewGoogleClient(cfg Config) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for google")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleClient{
		client:    client,
		modelName: cfg.Model,
		maxTokens: int32(cfg.MaxTokens),
	}, nil
}

// Close closes the underlying client.
func (c *GoogleClient) Close() error {
	return c.client.Close()
}

// Complete implements the Client interface. A fresh model handle is built
// per call; Complete is safe for concurrent use.
func (c *GoogleClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.MaxOutputTokens = &c.maxTokens
	applyRequestOptions(model, req)

	resp, err := model.GenerateContent(ctx, genai.Text(renderPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("google returned no candidates")
	}

	result := &CompletionResponse{Model: c.modelName}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.Content += string(text)
		}
	}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return result, nil
}

// applyRequestOptions maps per-request settings onto a model handle.
func applyRequestOptions(model *genai.GenerativeModel, req CompletionRequest) {
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		model.Temperature = &temp
	}
}
