package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

// spyProvider records span names so tests can assert what a Tracer emits.
type spyProvider struct {
	embedded.TracerProvider

	mu    sync.Mutex
	names []string
}

func (p *spyProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &spyTracer{provider: p, inner: noop.NewTracerProvider().Tracer(name)}
}

func (p *spyProvider) spanNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

type spyTracer struct {
	embedded.Tracer

	provider *spyProvider
	inner    trace.Tracer
}

func (t *spyTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.provider.mu.Lock()
	t.provider.names = append(t.provider.names, name)
	t.provider.mu.Unlock()
	return t.inner.Start(ctx, name, opts...)
}

func TestTracer_EmitsSpanPerLevel(t *testing.T) {
	spy := &spyProvider{}
	tracer := NewTracer(spy, "test", false)
	ctx := context.Background()

	ctx, round := tracer.StartRoundSpan(ctx, "ctx-1", 1)
	ctx, phase := tracer.StartPhaseSpan(ctx, "discovery", []string{"entity_discovery"})
	ctx, agentSpan := tracer.StartAgentSpan(ctx, "entity_discovery")
	_, llmSpan := tracer.StartLLMSpan(ctx, "llm.complete")

	tracer.EndLLMSpan(llmSpan, LLMSpanOptions{Model: "m", Provider: "mock"}, nil)
	tracer.EndAgentSpan(agentSpan, "complete", 1, nil)
	tracer.EndPhaseSpan(phase, "complete", nil)
	tracer.EndRoundSpan(round, "complete", nil)

	want := []string{"orchestrate.round", "phase.discovery", "agent.entity_discovery", "llm.complete"}
	got := spy.spanNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d spans, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("span %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNewTracer_NilProviderIsNoop(t *testing.T) {
	tracer := NewTracer(nil, "test", false)

	ctx, span := tracer.StartSpan(context.Background(), "anything")
	if span.IsRecording() {
		t.Error("nil provider should yield non-recording spans")
	}
	tracer.EndRoundSpan(span, "complete", errors.New("ignored"))

	if ctx == nil {
		t.Fatal("context must be returned even without a provider")
	}
}

func TestContextPropagation_MapCarrierRoundtrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	if err != nil {
		t.Fatalf("TraceIDFromHex failed: %v", err)
	}
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	if err != nil {
		t.Fatalf("SpanIDFromHex failed: %v", err)
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	carrier := MapCarrier{}
	InjectContext(ctx, carrier)
	if len(carrier.Keys()) == 0 {
		t.Fatal("inject should write propagation headers")
	}

	extracted := trace.SpanContextFromContext(ExtractContext(context.Background(), carrier))
	if extracted.TraceID() != traceID {
		t.Errorf("trace id lost in roundtrip: %s", extracted.TraceID())
	}
	if !extracted.IsRemote() {
		t.Error("extracted context should be marked remote")
	}
}
