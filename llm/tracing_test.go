package llm

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gianmatteo-arcana/engine-lever-sub006/telemetry"
)

type recordingProvider struct {
	embedded.TracerProvider

	mu    sync.Mutex
	names []string
}

func (p *recordingProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{provider: p, inner: noop.NewTracerProvider().Tracer(name)}
}

type recordingTracer struct {
	embedded.Tracer

	provider *recordingProvider
	inner    trace.Tracer
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.provider.mu.Lock()
	t.provider.names = append(t.provider.names, name)
	t.provider.mu.Unlock()
	return t.inner.Start(ctx, name, opts...)
}

func TestTracingClient_RecordsSpanAndPassesThrough(t *testing.T) {
	mock := NewMockClient()
	mock.QueueResponse("traced answer")

	provider := &recordingProvider{}
	client := NewTracingClient(mock, telemetry.NewTracer(provider, "llm", false), "mock")

	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "question"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "traced answer" {
		t.Errorf("response should pass through unchanged, got %q", resp.Content)
	}

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.names) != 1 || provider.names[0] != "llm.complete" {
		t.Errorf("expected one llm.complete span, got %v", provider.names)
	}
}

func TestTracingClient_NilTracerStillCompletes(t *testing.T) {
	mock := NewMockClient()
	mock.QueueResponse("ok")

	client := NewTracingClient(mock, nil, "mock")
	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "q"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("unexpected content %q", resp.Content)
	}
}
