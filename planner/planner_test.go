package planner

import (
	"context"
	"strings"
	"testing"

	"github.com/gianmatteo-arcana/engine-lever-sub006/llm"
	"github.com/gianmatteo-arcana/engine-lever-sub006/registry"
	"github.com/gianmatteo-arcana/engine-lever-sub006/taskctx"
	"github.com/gianmatteo-arcana/engine-lever-sub006/template"
)

func rosterFixture(t *testing.T) registry.Roster {
	t.Helper()
	r := registry.NewMemoryRoster()
	for role, cap := range map[string]string{
		"business_discovery": "search public business registries",
		"profile_collection": "collect business profile from user",
		"entity_compliance":  "determine compliance requirements",
	} {
		if err := r.Register(registry.AgentInfo{Role: role, Capabilities: []string{cap}}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	return r
}

func templateFixture() *template.TaskTemplate {
	return &template.TaskTemplate{
		ID:   "business_onboarding",
		Name: "Business Onboarding",
		Goals: template.Goals{
			Primary: []template.Goal{
				{ID: "identify_business", Description: "Identify the business entity", Required: true},
				{ID: "collect_profile", Description: "Collect the business profile", Required: true},
			},
		},
		Phases: []template.PhaseHint{
			{ID: "business_discovery", Name: "Discovery"},
			{ID: "profile_collection", Name: "Profile", UserInteraction: true},
		},
	}
}

const validPlanJSON = `{
	"phases": [
		{"id": "discovery", "name": "Discovery", "requiredAgents": ["business_discovery"], "parallelizable": true},
		{"id": "compliance", "name": "Compliance", "requiredAgents": ["entity_compliance"], "parallelizable": true},
		{"id": "profile", "name": "Profile", "requiredAgents": ["profile_collection"], "prerequisites": ["discovery"]}
	],
	"reasoning": "discovery and compliance are independent; profile needs the discovered entity"
}`

func TestPlan_AcceptsValidProposal(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(validPlanJSON)

	p := New(mock, rosterFixture(t))
	graph, err := p.Plan(context.Background(), templateFixture(), taskctx.CurrentState{Status: taskctx.StatusCreated})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(graph.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(graph.Phases))
	}
	if graph.Reasoning == "" {
		t.Error("plan must carry reasoning")
	}
	if mock.CallCount() != 1 {
		t.Errorf("valid plan should take one call, took %d", mock.CallCount())
	}
}

func TestPlan_PromptCarriesGoalsAndRosterNotSteps(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(validPlanJSON)

	p := New(mock, rosterFixture(t))
	state := taskctx.CurrentState{
		Status: taskctx.StatusInProgress,
		Data:   map[string]interface{}{"entityType": "LLC"},
	}
	if _, err := p.Plan(context.Background(), templateFixture(), state); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	prompt := mock.LastRequest().Prompt
	for _, want := range []string{"Identify the business entity", "business_discovery", "entityType"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestPlan_RepromptsOnceWithProblems(t *testing.T) {
	mock := llm.NewMockClient()
	// First proposal names an agent that does not exist.
	mock.QueueResponse(`{"phases": [{"id": "p1", "name": "P1", "requiredAgents": ["tax_wizard"]}], "reasoning": "r"}`)
	mock.QueueResponse(validPlanJSON)

	p := New(mock, rosterFixture(t))
	graph, err := p.Plan(context.Background(), templateFixture(), taskctx.CurrentState{})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if mock.CallCount() != 2 {
		t.Fatalf("expected one re-prompt, got %d calls", mock.CallCount())
	}
	if !strings.Contains(mock.LastRequest().Prompt, "tax_wizard") {
		t.Error("re-prompt should carry the validation problems")
	}
	if len(graph.Phases) != 3 {
		t.Errorf("re-prompted plan should be used, got %d phases", len(graph.Phases))
	}
}

func TestPlan_FallsBackToSequentialPlan(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse("not json at all")

	p := New(mock, rosterFixture(t))
	graph, err := p.Plan(context.Background(), templateFixture(), taskctx.CurrentState{})
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}

	if mock.CallCount() != 2 {
		t.Errorf("expected two attempts before fallback, got %d", mock.CallCount())
	}
	// Sequential plan from the template's hints.
	if len(graph.Phases) != 2 {
		t.Fatalf("expected 2 fallback phases, got %d", len(graph.Phases))
	}
	if graph.Phases[0].ID != "business_discovery" {
		t.Errorf("fallback should follow hint order, got %s", graph.Phases[0].ID)
	}
	if len(graph.Phases[1].Prerequisites) != 1 || graph.Phases[1].Prerequisites[0] != "business_discovery" {
		t.Errorf("fallback phases must be sequential, got %+v", graph.Phases[1])
	}
}

func TestPlan_NoAgentsAvailable(t *testing.T) {
	p := New(llm.NewMockClient(), registry.NewMemoryRoster())
	if _, err := p.Plan(context.Background(), templateFixture(), taskctx.CurrentState{}); err == nil {
		t.Fatal("planning with an empty roster must fail")
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	graph := &PhaseGraph{Phases: []Phase{
		{ID: "a", Name: "A", RequiredAgents: []string{"nobody"}},
		{ID: "a", Name: "A again", RequiredAgents: []string{"business_discovery"}},
		{ID: "b", Name: "B", RequiredAgents: []string{"business_discovery"}, Prerequisites: []string{"ghost"}},
	}}

	agents := []registry.AgentInfo{{Role: "business_discovery", Capabilities: []string{"x"}}}
	_, err := graph.Validate(agents)
	if err == nil {
		t.Fatal("invalid graph must fail validation")
	}

	msg := err.Error()
	for _, want := range []string{"duplicate phase id", "unknown agent", "dangling prerequisite"} {
		if !strings.Contains(msg, want) {
			t.Errorf("validation error should mention %q, got %q", want, msg)
		}
	}
}

func TestValidate_RejectsCycle(t *testing.T) {
	graph := &PhaseGraph{Phases: []Phase{
		{ID: "a", Name: "A", RequiredAgents: []string{"business_discovery"}, Prerequisites: []string{"b"}},
		{ID: "b", Name: "B", RequiredAgents: []string{"business_discovery"}, Prerequisites: []string{"a"}},
	}}

	agents := []registry.AgentInfo{{Role: "business_discovery", Capabilities: []string{"x"}}}
	if _, err := graph.Validate(agents); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("cyclic graph must be rejected, got %v", err)
	}
}

func TestValidate_ReturnsTopologicalOrder(t *testing.T) {
	graph := &PhaseGraph{Phases: []Phase{
		{ID: "late", Name: "Late", RequiredAgents: []string{"business_discovery"}, Prerequisites: []string{"early"}},
		{ID: "early", Name: "Early", RequiredAgents: []string{"business_discovery"}},
	}}

	agents := []registry.AgentInfo{{Role: "business_discovery", Capabilities: []string{"x"}}}
	order, err := graph.Validate(agents)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(order) != 2 || order[0] != "early" {
		t.Errorf("expected early before late, got %v", order)
	}
}
