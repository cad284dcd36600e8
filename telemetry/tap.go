package telemetry

import (
	"sync"
	"time"
)

// Tap correlates named spans to task contexts and feeds them to an
// exporter. All methods are safe for concurrent use; agents running in
// parallel report through the same tap.
type Tap struct {
	mu       sync.Mutex
	exporter Exporter
	spans    map[string][]Span // contextID -> completed spans
}

// NewTap creates a tap. A nil exporter records spans without exporting.
func NewTap(exporter Exporter) *Tap {
	if exporter == nil {
		exporter = NewNoopExporter()
	}
	return &Tap{
		exporter: exporter,
		spans:    make(map[string][]Span),
	}
}

// ActiveSpan is a span that has started but not ended.
type ActiveSpan struct {
	tap   *Tap
	span  Span
	ended bool
	mu    sync.Mutex
}

// StartSpan begins a named span for a task context.
func (t *Tap) StartSpan(contextID, name string) *ActiveSpan {
	return &ActiveSpan{
		tap: t,
		span: Span{
			ContextID: contextID,
			Name:      name,
			Start:     time.Now(),
		},
	}
}

// SetAttr attaches an attribute to the span.
func (s *ActiveSpan) SetAttr(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.span.Attrs == nil {
		s.span.Attrs = make(map[string]string)
	}
	s.span.Attrs[key] = value
}

// End completes the span. Ending twice is a no-op.
func (s *ActiveSpan) End(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	s.span.End = time.Now()
	s.span.Duration = s.span.End.Sub(s.span.Start)
	if err != nil {
		s.span.Error = err.Error()
	}
	s.tap.record(s.span)
}

func (t *Tap) record(span Span) {
	t.mu.Lock()
	t.spans[span.ContextID] = append(t.spans[span.ContextID], span)
	t.mu.Unlock()
	t.exporter.LogSpan(span)
}

// LogEvent forwards an event to the exporter.
func (t *Tap) LogEvent(name string, data map[string]interface{}) {
	t.exporter.LogEvent(name, data)
}

// Snapshot returns the completed spans for a context, in completion order.
func (t *Tap) Snapshot(contextID string) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Span, len(t.spans[contextID]))
	copy(out, t.spans[contextID])
	return out
}

// Flush flushes the exporter.
func (t *Tap) Flush() error {
	return t.exporter.Flush()
}

// Close flushes and closes the exporter.
func (t *Tap) Close() error {
	return t.exporter.Close()
}
