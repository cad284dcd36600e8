package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("levels below minimum should be suppressed, got: %s", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("warn and error should pass through, got: %s", out)
	}
}

func TestLogger_ComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	scoped := l.WithComponent("orchestrator").WithContextID("ctx-42")
	scoped.Info("phase_start", map[string]interface{}{"phase": "discovery"})

	out := buf.String()
	if !strings.Contains(out, "[orchestrator]") {
		t.Errorf("expected component in output, got: %s", out)
	}
	if !strings.Contains(out, "context=ctx-42") {
		t.Errorf("expected context ID in output, got: %s", out)
	}
	if !strings.Contains(out, "phase=discovery") {
		t.Errorf("expected fields in output, got: %s", out)
	}
}

func TestLogger_WithComponent_DoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	_ = l.WithComponent("planner")
	l.Info("plain")

	if strings.Contains(buf.String(), "[planner]") {
		t.Error("parent logger should be unaffected by WithComponent")
	}
}

func TestLogger_AgentResult(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelDebug)

	l.AgentResult("business_discovery", "complete", 120*time.Millisecond, nil)
	if !strings.Contains(buf.String(), "agent_result") {
		t.Errorf("expected agent_result line, got: %s", buf.String())
	}
}
