package llm

import (
	"context"

	"github.com/gianmatteo-arcana/engine-lever-sub006/telemetry"
)

// TracingClient wraps a Client and records one otel span per completion.
// Wrap the outermost client (after retry) so a span covers the whole call
// including backoff.
type TracingClient struct {
	inner    Client
	tracer   *telemetry.Tracer
	provider string
}

// NewTracingClient wraps a client with span recording. A nil tracer yields
// a no-op span per call.
func NewTracingClient(inner Client, tracer *telemetry.Tracer, provider string) *TracingClient {
	if tracer == nil {
		tracer = telemetry.NewTracer(nil, "llm", false)
	}
	return &TracingClient{inner: inner, tracer: tracer, provider: provider}
}

// Complete implements the Client interface.
func (c *TracingClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := c.tracer.StartLLMSpan(ctx, "llm.complete")

	resp, err := c.inner.Complete(ctx, req)

	opts := telemetry.LLMSpanOptions{
		Model:    req.Model,
		Provider: c.provider,
		Prompt:   req.Prompt,
	}
	if resp != nil {
		opts.Model = resp.Model
		opts.TokensIn = resp.Usage.InputTokens
		opts.TokensOut = resp.Usage.OutputTokens
		opts.Response = resp.Content
	}
	c.tracer.EndLLMSpan(span, opts, err)

	return resp, err
}
