package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validTemplate = `
id: business_onboarding
name: Business Onboarding
version: "1.0"
goals:
  primary:
    - id: identify_business
      description: Identify the business entity and its registration details
      required: true
      success_criteria:
        - legal name confirmed
        - entity type known
    - id: collect_profile
      description: Collect the compliance profile for the business
      required: true
  secondary:
    - id: suggest_filings
      description: Suggest upcoming compliance filings
phases:
  - id: discovery
    name: Business Discovery
    estimated_duration: 30s
    background: true
  - id: profile
    name: Profile Collection
    user_interaction: true
fallback_strategies:
  - trigger: TIMEOUT
    action: retry
    message: retry with extended timeout
  - trigger: AGENT_EXECUTION_ERROR
    action: escalate
    message: escalate to manual review
`

func TestParse_Valid(t *testing.T) {
	tmpl, err := Parse([]byte(validTemplate))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tmpl.ID != "business_onboarding" {
		t.Errorf("unexpected ID: %s", tmpl.ID)
	}
	if len(tmpl.Goals.Primary) != 2 {
		t.Errorf("expected 2 primary goals, got %d", len(tmpl.Goals.Primary))
	}
	if len(tmpl.Phases) != 2 || !tmpl.Phases[1].UserInteraction {
		t.Errorf("phase hints not decoded: %+v", tmpl.Phases)
	}
}

func TestParse_RejectsPrescriptiveTemplate(t *testing.T) {
	// Templates must describe WHAT, never HOW: a steps list under a phase
	// is an execution script and must fail strict decoding.
	prescriptive := `
id: scripted
name: Scripted
goals:
  primary:
    - id: g1
      description: goal
      required: true
phases:
  - id: p1
    name: Phase One
    steps:
      - call_agent: business_discovery
`
	_, err := Parse([]byte(prescriptive))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("prescriptive template should be rejected, got %v", err)
	}
}

func TestParse_RequiresPrimaryGoals(t *testing.T) {
	_, err := Parse([]byte("id: empty\nname: Empty\ngoals: {}\n"))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("template without primary goals should be rejected, got %v", err)
	}
}

func TestValidate_UnknownFallbackAction(t *testing.T) {
	tmpl, _ := Parse([]byte(validTemplate))
	tmpl.FallbackStrategies = append(tmpl.FallbackStrategies, FallbackStrategy{
		Trigger: "X", Action: "reboot",
	})
	if err := tmpl.Validate(); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("unknown fallback action should be rejected, got %v", err)
	}
}

func TestMatchFallback(t *testing.T) {
	tmpl, _ := Parse([]byte(validTemplate))

	f := tmpl.MatchFallback("AGENT_TIMEOUT", "agent execution timed out")
	if f == nil || f.Action != ActionRetry {
		t.Fatalf("expected retry strategy for timeout, got %+v", f)
	}

	f = tmpl.MatchFallback("AGENT_EXECUTION_ERROR", "search failed")
	if f == nil || f.Action != ActionEscalate {
		t.Fatalf("expected escalate strategy, got %+v", f)
	}

	if tmpl.MatchFallback("UNRELATED", "nothing matches here") != nil {
		t.Error("no strategy should match an unrelated error")
	}
}

func TestSnapshot_FrozenCopy(t *testing.T) {
	tmpl, _ := Parse([]byte(validTemplate))
	snap, err := tmpl.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	// Mutating the live template must not affect the snapshot.
	tmpl.Name = "Renamed"
	if snap["name"] != "Business Onboarding" {
		t.Errorf("snapshot should be frozen, got %v", snap["name"])
	}
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "onboarding.yaml"), []byte(validTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-YAML files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if _, err := r.Get("business_onboarding"); err != nil {
		t.Errorf("expected template registered, got %v", err)
	}
	if ids := r.List(); len(ids) != 1 {
		t.Errorf("expected 1 template, got %v", ids)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := NewRegistry()
	tmpl, _ := Parse([]byte(validTemplate))
	if err := r.Register(tmpl); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register(tmpl); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}
