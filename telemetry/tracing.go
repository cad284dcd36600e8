// OpenTelemetry tracing support for distributed orchestration observability.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps OpenTelemetry tracing with orchestration-specific helpers.
// Construct one and pass it to the components that trace; there is no
// global instance.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include content in span attributes
}

// NewTracer creates a tracer from a provider. A nil provider yields a
// no-op tracer, so callers can trace unconditionally.
func NewTracer(tp trace.TracerProvider, name string, debug bool) *Tracer {
	if tp == nil {
		tp = trace.NewNoopTracerProvider()
	}
	return &Tracer{
		tracer: tp.Tracer(name),
		debug:  debug,
	}
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Round Spans ---

// StartRoundSpan starts a span for one orchestration round.
func (t *Tracer) StartRoundSpan(ctx context.Context, contextID string, round int) (context.Context, trace.Span) {
	spanCtx, span := t.tracer.Start(ctx, "orchestrate.round", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("task.context_id", contextID),
		attribute.Int("task.round", round),
	)
	return spanCtx, span
}

// EndRoundSpan ends a round span with its terminal status.
func (t *Tracer) EndRoundSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("task.round_status", status))
	endSpan(span, err)
}

// --- Phase Spans ---

// StartPhaseSpan starts a span for a phase execution.
func (t *Tracer) StartPhaseSpan(ctx context.Context, phaseID string, agents []string) (context.Context, trace.Span) {
	spanCtx, span := t.tracer.Start(ctx, "phase."+phaseID, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("phase.id", phaseID),
		attribute.StringSlice("phase.agents", agents),
	)
	return spanCtx, span
}

// EndPhaseSpan ends a phase span with its outcome.
func (t *Tracer) EndPhaseSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("phase.status", status))
	endSpan(span, err)
}

// --- Agent Spans ---

// StartAgentSpan starts a span for one agent dispatch.
func (t *Tracer) StartAgentSpan(ctx context.Context, role string) (context.Context, trace.Span) {
	spanCtx, span := t.tracer.Start(ctx, "agent."+role, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("agent.role", role))
	return spanCtx, span
}

// EndAgentSpan ends an agent span with its result status and attempt count.
func (t *Tracer) EndAgentSpan(span trace.Span, status string, attempts int, err error) {
	span.SetAttributes(
		attribute.String("agent.status", status),
		attribute.Int("agent.attempts", attempts),
	)
	endSpan(span, err)
}

// --- LLM Spans ---

// LLMSpanOptions contains options for LLM call spans.
type LLMSpanOptions struct {
	Model     string
	Provider  string
	TokensIn  int
	TokensOut int
	Prompt    string // Only included if debug=true
	Response  string // Only included if debug=true
}

// StartLLMSpan starts a span for an LLM call.
func (t *Tracer) StartLLMSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
}

// EndLLMSpan ends an LLM span with attributes.
func (t *Tracer) EndLLMSpan(span trace.Span, opts LLMSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("llm.model", opts.Model),
		attribute.String("llm.provider", opts.Provider),
		attribute.Int("llm.tokens.input", opts.TokensIn),
		attribute.Int("llm.tokens.output", opts.TokensOut),
	}

	if t.debug {
		if opts.Prompt != "" {
			attrs = append(attrs, attribute.String("llm.prompt", truncate(opts.Prompt, 4000)))
		}
		if opts.Response != "" {
			attrs = append(attrs, attribute.String("llm.response", truncate(opts.Response, 4000)))
		}
	}

	span.SetAttributes(attrs...)
	endSpan(span, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier for context propagation.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
