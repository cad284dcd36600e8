package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTap_SpansCorrelateToContext(t *testing.T) {
	tap := NewTap(nil)

	span := tap.StartSpan("ctx-1", "phase.discovery")
	span.SetAttr("agents", "2")
	time.Sleep(time.Millisecond)
	span.End(nil)

	other := tap.StartSpan("ctx-2", "phase.profile")
	other.End(errors.New("boom"))

	spans := tap.Snapshot("ctx-1")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span for ctx-1, got %d", len(spans))
	}
	if spans[0].Name != "phase.discovery" || spans[0].Attrs["agents"] != "2" {
		t.Errorf("unexpected span: %+v", spans[0])
	}
	if spans[0].Duration <= 0 {
		t.Error("span should have a positive duration")
	}

	failed := tap.Snapshot("ctx-2")
	if len(failed) != 1 || failed[0].Error != "boom" {
		t.Errorf("error should be recorded on the span, got %+v", failed)
	}
}

func TestTap_EndTwiceRecordsOnce(t *testing.T) {
	tap := NewTap(nil)
	span := tap.StartSpan("ctx-1", "op")
	span.End(nil)
	span.End(nil)

	if got := len(tap.Snapshot("ctx-1")); got != 1 {
		t.Errorf("double End must record once, got %d spans", got)
	}
}

func TestTap_ConcurrentSpans(t *testing.T) {
	tap := NewTap(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			span := tap.StartSpan("ctx-1", "agent.run")
			span.End(nil)
		}()
	}
	wg.Wait()

	if got := len(tap.Snapshot("ctx-1")); got != 20 {
		t.Errorf("expected 20 spans, got %d", got)
	}
}

func TestFileExporter_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	exporter, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}

	exporter.LogEvent("plan_created", map[string]interface{}{"phases": 3})
	exporter.LogSpan(Span{ContextID: "ctx-1", Name: "phase.discovery"})
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "plan_created") || !strings.Contains(lines[1], "ctx-1") {
		t.Errorf("unexpected output: %v", lines)
	}
}

func TestNewExporter_Protocols(t *testing.T) {
	if _, err := NewExporter("noop", ""); err != nil {
		t.Errorf("noop exporter should construct: %v", err)
	}
	if _, err := NewExporter("", ""); err != nil {
		t.Errorf("empty protocol should default to noop: %v", err)
	}
	if _, err := NewExporter("carrier-pigeon", ""); err == nil {
		t.Error("unknown protocol should error")
	}
}
