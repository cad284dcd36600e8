package planner

import (
	"fmt"
	"strings"

	"github.com/gammazero/toposort"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/registry"
)

// Phase is one node of an execution plan.
type Phase struct {
	// ID uniquely identifies the phase within its graph.
	ID string `json:"id"`

	// Name is a human-readable phase name.
	Name string `json:"name"`

	// RequiredAgents are the roster roles that must complete for the phase
	// to complete.
	RequiredAgents []string `json:"requiredAgents"`

	// Prerequisites are phase IDs that must complete before this phase
	// starts.
	Prerequisites []string `json:"prerequisites,omitempty"`

	// Parallelizable marks phases that may run alongside other ready
	// parallelizable phases.
	Parallelizable bool `json:"parallelizable,omitempty"`

	// Goals names the template goals this phase works toward.
	Goals []string `json:"goals,omitempty"`
}

// PhaseGraph is a validated execution plan: a DAG of phases.
type PhaseGraph struct {
	Phases []Phase `json:"phases"`

	// Reasoning is the planner's explanation, recorded with the
	// plan_created entry.
	Reasoning string `json:"reasoning,omitempty"`
}

// Phase looks up a phase by ID.
func (g *PhaseGraph) Phase(id string) *Phase {
	for i := range g.Phases {
		if g.Phases[i].ID == id {
			return &g.Phases[i]
		}
	}
	return nil
}

// Validate checks the graph deterministically against the roster and
// returns a topological order over its phases. Every problem is collected
// so one validation pass reports the full fix list: duplicate or missing
// IDs, phases without agents, agents not in the roster, dangling
// prerequisites, and cycles.
func (g *PhaseGraph) Validate(agents []registry.AgentInfo) ([]string, error) {
	var problems []string

	if len(g.Phases) == 0 {
		problems = append(problems, "plan has no phases")
	}

	known := make(map[string]bool, len(agents))
	for _, a := range agents {
		known[a.Role] = true
	}

	ids := make(map[string]bool, len(g.Phases))
	for _, p := range g.Phases {
		if p.ID == "" {
			problems = append(problems, "phase without id")
			continue
		}
		if ids[p.ID] {
			problems = append(problems, fmt.Sprintf("duplicate phase id %q", p.ID))
		}
		ids[p.ID] = true

		if len(p.RequiredAgents) == 0 {
			problems = append(problems, fmt.Sprintf("phase %q has no required agents", p.ID))
		}
		for _, role := range p.RequiredAgents {
			if !known[role] {
				problems = append(problems, fmt.Sprintf("phase %q requires unknown agent %q", p.ID, role))
			}
		}
	}

	for _, p := range g.Phases {
		for _, pre := range p.Prerequisites {
			if !ids[pre] {
				problems = append(problems, fmt.Sprintf("phase %q has dangling prerequisite %q", p.ID, pre))
			}
		}
	}

	var order []string
	if len(problems) == 0 {
		var edges []toposort.Edge
		for _, p := range g.Phases {
			if len(p.Prerequisites) == 0 {
				edges = append(edges, toposort.Edge{nil, p.ID})
			}
			for _, pre := range p.Prerequisites {
				edges = append(edges, toposort.Edge{pre, p.ID})
			}
		}
		sorted, err := toposort.Toposort(edges)
		if err != nil {
			problems = append(problems, fmt.Sprintf("plan contains a cycle: %v", err))
		} else {
			for _, id := range sorted {
				if id != nil {
					order = append(order, id.(string))
				}
			}
		}
	}

	if len(problems) > 0 {
		return nil, errors.PlanValidation(strings.Join(problems, "; "))
	}
	return order, nil
}
