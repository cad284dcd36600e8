package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/fluidui"
	"github.com/gianmatteo-arcana/engine-lever-sub006/llm"
	"github.com/gianmatteo-arcana/engine-lever-sub006/tenant"
)

// defaultAgentSystem frames every LLM-backed agent the same way; the role
// prompt adds the specifics.
const defaultAgentSystem = `You are an autonomous agent in a business compliance workflow.
Work only from the task instruction, the provided context data, and the tenant's business records.
If you cannot proceed without information only the user has, request it instead of guessing.`

// resultSchema describes the JSON shape LLM-backed agents must return.
var resultSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"status": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"complete", "pending_user_input", "error", "escalated"},
		},
		"output":    map[string]interface{}{"type": "object"},
		"reasoning": map[string]interface{}{"type": "string"},
		"uiRequests": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"requestId", "templateType"},
			},
		},
	},
	"required": []interface{}{"status", "reasoning"},
}

// LLMAgent is a generic LLM-backed executor. It renders the task into a
// role prompt, asks the model for a structured result, and persists the
// output through the tenant-scoped handle. Wrap it with NewContractExecutor
// before dispatching to it.
type LLMAgent struct {
	role    string
	client  llm.Client
	handles tenant.HandleFactory

	rolePrompt  string
	model       string
	temperature float64
}

// LLMAgentOption configures an LLMAgent.
type LLMAgentOption func(*LLMAgent)

// WithRolePrompt sets the role-specific portion of the system prompt.
func WithRolePrompt(prompt string) LLMAgentOption {
	return func(a *LLMAgent) { a.rolePrompt = prompt }
}

// WithModel overrides the client's default model.
func WithModel(model string) LLMAgentOption {
	return func(a *LLMAgent) { a.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LLMAgentOption {
	return func(a *LLMAgent) { a.temperature = t }
}

// NewLLMAgent creates an LLM-backed executor for one agent role.
func NewLLMAgent(role string, client llm.Client, handles tenant.HandleFactory, opts ...LLMAgentOption) *LLMAgent {
	a := &LLMAgent{
		role:    role,
		client:  client,
		handles: handles,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Role returns the agent's role.
func (a *LLMAgent) Role() string {
	return a.role
}

// llmResult is the model's structured reply.
type llmResult struct {
	Status     string                 `json:"status"`
	Output     map[string]interface{} `json:"output"`
	Reasoning  string                 `json:"reasoning"`
	UIRequests []fluidui.UIRequest    `json:"uiRequests"`
}

// ExecuteTask implements Executor.
func (a *LLMAgent) ExecuteTask(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
	handle, err := a.handles.ForToken(task.Tenant.UserToken)
	if err != nil {
		return A2ATaskResult{}, errors.WrapWithCode(err, errors.ErrCodeMissingUserToken,
			"cannot derive tenant data handle",
			errors.WithAgentRole(a.role), errors.WithContextID(task.ContextID))
	}

	business, err := handle.Get(ctx, "businesses", task.Tenant.BusinessID)
	if err != nil && err != tenant.ErrRecordNotFound {
		return A2ATaskResult{}, err
	}

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Model:          a.model,
		System:         a.system(),
		Prompt:         a.prompt(task, business),
		ResponseFormat: llm.FormatJSON,
		Schema:         resultSchema,
		Temperature:    a.temperature,
	})
	if err != nil {
		return A2ATaskResult{}, err
	}

	var parsed llmResult
	if err := llm.DecodeJSON(resp.Content, &parsed); err != nil {
		return A2ATaskResult{}, err
	}

	result := A2ATaskResult{
		TaskID:     task.TaskID,
		Status:     Status(parsed.Status),
		Output:     parsed.Output,
		Reasoning:  parsed.Reasoning,
		UIRequests: parsed.UIRequests,
	}

	if result.Status == StatusComplete && len(parsed.Output) > 0 {
		record := map[string]interface{}{
			"role":   a.role,
			"taskId": task.TaskID,
			"output": parsed.Output,
		}
		if err := handle.Put(ctx, "agent_results", task.TaskID, record); err != nil {
			return A2ATaskResult{}, err
		}
	}
	return result, nil
}

// system assembles the framing and role prompts.
func (a *LLMAgent) system() string {
	if a.rolePrompt == "" {
		return defaultAgentSystem
	}
	return defaultAgentSystem + "\n\n" + a.rolePrompt
}

// prompt renders the task for the model.
func (a *LLMAgent) prompt(task A2ATask, business map[string]interface{}) string {
	prompt := fmt.Sprintf("Role: %s\n\nTask: %s\n", a.role, task.Instruction)
	if len(task.Input) > 0 {
		prompt += "\nContext data:\n" + marshalIndent(task.Input)
	}
	if len(business) > 0 {
		prompt += "\nBusiness records:\n" + marshalIndent(business)
	}
	return prompt
}

func marshalIndent(v map[string]interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
