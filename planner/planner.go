// Package planner turns template goals and accumulated context into a
// validated phase plan.
//
// The LLM proposes; deterministic code disposes. Every proposed plan is
// validated against the agent roster and topologically checked before the
// orchestrator sees it. A failed validation earns the model exactly one
// re-prompt carrying the full problem list; after that the planner falls
// back to a deterministic sequential plan built from the template's phase
// hints, so planning never dead-ends on a misbehaving model.
package planner

import (
	"context"
	"fmt"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/llm"
	"github.com/gianmatteo-arcana/engine-lever-sub006/logging"
	"github.com/gianmatteo-arcana/engine-lever-sub006/registry"
	"github.com/gianmatteo-arcana/engine-lever-sub006/taskctx"
	"github.com/gianmatteo-arcana/engine-lever-sub006/template"
)

// Planner produces phase plans.
type Planner struct {
	client llm.Client
	roster registry.Roster
	logger *logging.Logger

	model       string
	temperature float64
}

// Option configures a Planner.
type Option func(*Planner)

// WithModel overrides the client's default model.
func WithModel(model string) Option {
	return func(p *Planner) { p.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(p *Planner) { p.temperature = t }
}

// WithLogger sets the planner's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// New creates a Planner.
func New(client llm.Client, roster registry.Roster, opts ...Option) *Planner {
	p := &Planner{
		client: client,
		roster: roster,
		logger: logging.New().WithComponent("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan produces a validated phase graph for one round of execution.
func (p *Planner) Plan(ctx context.Context, tmpl *template.TaskTemplate, state taskctx.CurrentState) (*PhaseGraph, error) {
	agents, err := p.roster.Available()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read agent roster")
	}
	if len(agents) == 0 {
		return nil, errors.PlanValidation("no agents available")
	}

	prompt := buildPrompt(tmpl, state, agents)

	graph, planErr := p.propose(ctx, prompt, agents)
	if planErr != nil {
		p.logger.Warn("plan proposal rejected, re-prompting", map[string]interface{}{"error": planErr.Error()})

		retryPrompt := prompt + fmt.Sprintf("\n\nYour previous plan was rejected:\n%s\nFix every listed problem.", planErr.Error())
		graph, planErr = p.propose(ctx, retryPrompt, agents)
	}
	if planErr != nil {
		p.logger.Warn("re-prompt rejected, using fallback plan", map[string]interface{}{"error": planErr.Error()})
		return p.fallbackPlan(tmpl, agents)
	}
	return graph, nil
}

// propose makes one LLM call and validates the result.
func (p *Planner) propose(ctx context.Context, prompt string, agents []registry.AgentInfo) (*PhaseGraph, error) {
	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		Model:          p.model,
		System:         plannerSystem,
		Prompt:         prompt,
		ResponseFormat: llm.FormatJSON,
		Schema:         planSchema,
		Temperature:    p.temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, "plan completion failed")
	}

	var graph PhaseGraph
	if err := llm.DecodeJSON(resp.Content, &graph); err != nil {
		return nil, err
	}
	if _, err := graph.Validate(agents); err != nil {
		return nil, err
	}
	return &graph, nil
}

// fallbackPlan builds a deterministic sequential plan from the template's
// phase hints. Hints with no matching roster role are skipped; if nothing
// matches, the whole available roster runs as one phase. The result is
// validated like any other plan.
func (p *Planner) fallbackPlan(tmpl *template.TaskTemplate, agents []registry.AgentInfo) (*PhaseGraph, error) {
	known := make(map[string]bool, len(agents))
	for _, a := range agents {
		known[a.Role] = true
	}

	graph := &PhaseGraph{
		Reasoning: "deterministic fallback: sequential plan from template phase hints",
	}
	prev := ""
	for _, hint := range tmpl.Phases {
		if !known[hint.ID] {
			continue
		}
		phase := Phase{
			ID:             hint.ID,
			Name:           hint.Name,
			RequiredAgents: []string{hint.ID},
		}
		if prev != "" {
			phase.Prerequisites = []string{prev}
		}
		graph.Phases = append(graph.Phases, phase)
		prev = hint.ID
	}

	if len(graph.Phases) == 0 {
		roles := make([]string, 0, len(agents))
		for _, a := range agents {
			roles = append(roles, a.Role)
		}
		graph.Phases = []Phase{{
			ID:             "execute_goals",
			Name:           "Work toward all primary goals",
			RequiredAgents: roles,
		}}
	}

	if _, err := graph.Validate(agents); err != nil {
		return nil, err
	}
	return graph, nil
}
