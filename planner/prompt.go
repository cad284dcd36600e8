package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gianmatteo-arcana/engine-lever-sub006/registry"
	"github.com/gianmatteo-arcana/engine-lever-sub006/taskctx"
	"github.com/gianmatteo-arcana/engine-lever-sub006/template"
)

const plannerSystem = `You plan compliance workflows by decomposing goals into phases.
You decide WHICH phases are needed and in what dependency order.
You never decide HOW an agent does its work and you never write step lists.
Only use agents from the provided roster.`

// planSchema describes the JSON plan the model must return.
var planSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"phases": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id", "name", "requiredAgents"},
				"properties": map[string]interface{}{
					"id":             map[string]interface{}{"type": "string"},
					"name":           map[string]interface{}{"type": "string"},
					"requiredAgents": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"prerequisites":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"parallelizable": map[string]interface{}{"type": "boolean"},
					"goals":          map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
			},
		},
		"reasoning": map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{"phases", "reasoning"},
}

// buildPrompt renders the planning prompt from goals, accumulated context,
// and the agent roster. Deliberately absent: any step list or agent
// instructions. The plan is derived from what must be achieved and what is
// already known, nothing else.
func buildPrompt(tmpl *template.TaskTemplate, state taskctx.CurrentState, agents []registry.AgentInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Workflow: %s\n\n", tmpl.Name)

	b.WriteString("Primary goals (all required):\n")
	for _, g := range tmpl.Goals.Primary {
		fmt.Fprintf(&b, "- %s: %s\n", g.ID, g.Description)
		for _, c := range g.SuccessCriteria {
			fmt.Fprintf(&b, "  success: %s\n", c)
		}
	}
	if len(tmpl.Goals.Secondary) > 0 {
		b.WriteString("\nSecondary goals (best effort):\n")
		for _, g := range tmpl.Goals.Secondary {
			fmt.Fprintf(&b, "- %s: %s\n", g.ID, g.Description)
		}
	}

	if len(tmpl.Phases) > 0 {
		b.WriteString("\nPhase hints (advisory, not binding):\n")
		for _, p := range tmpl.Phases {
			fmt.Fprintf(&b, "- %s: %s", p.ID, p.Name)
			if p.UserInteraction {
				b.WriteString(" (may need user input)")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nAvailable agents:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Role, strings.Join(a.Capabilities, "; "))
	}

	fmt.Fprintf(&b, "\nTask status: %s", state.Status)
	if len(state.Data) > 0 {
		if data, err := json.MarshalIndent(state.Data, "", "  "); err == nil {
			b.WriteString("\nAlready known:\n")
			b.Write(data)
		}
	}

	b.WriteString("\n\nProduce the phase plan. Phases with no unmet prerequisites and parallelizable=true may run concurrently. Skip work the known data already covers.")
	return b.String()
}
