package agent

import (
	"context"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/fluidui"
	"github.com/gianmatteo-arcana/engine-lever-sub006/tenant"
)

// Status is the outcome of one agent task execution.
type Status string

const (
	// StatusComplete means the agent finished its task.
	StatusComplete Status = "complete"

	// StatusPendingUserInput means the agent needs user input to continue.
	// The result carries the UI requests describing what is needed.
	StatusPendingUserInput Status = "pending_user_input"

	// StatusError means the agent failed. The result's Error carries the
	// structured code the fallback strategies match against.
	StatusError Status = "error"

	// StatusEscalated means the agent handed the task to a human operator.
	StatusEscalated Status = "escalated"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusComplete, StatusPendingUserInput, StatusError, StatusEscalated:
		return true
	default:
		return false
	}
}

// A2ATask is one unit of work dispatched to an agent.
type A2ATask struct {
	// TaskID uniquely identifies this dispatch.
	TaskID string `json:"taskId"`

	// ContextID is the task context the work belongs to.
	ContextID string `json:"contextId"`

	// Role is the agent role being invoked.
	Role string `json:"role"`

	// Instruction describes what the agent should accomplish, in terms of
	// goals rather than steps.
	Instruction string `json:"instruction"`

	// Input is the relevant accumulated context data for this task.
	Input map[string]interface{} `json:"input,omitempty"`

	// Tenant scopes the execution. The tenant guard checks it before any
	// side effect; data handles derive from its user token.
	Tenant tenant.Context `json:"tenant"`
}

// TaskError is the structured failure carried in an error result. Its Code
// is what template fallback strategies match against.
type TaskError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// A2ATaskResult is the outcome of one agent execution.
type A2ATaskResult struct {
	// TaskID echoes the dispatched task.
	TaskID string `json:"taskId"`

	// Status is the execution outcome.
	Status Status `json:"status"`

	// Output is the agent's produced data, merged into the task context by
	// the orchestrator when the phase completes.
	Output map[string]interface{} `json:"output,omitempty"`

	// Reasoning explains the outcome. Required: agent results become
	// context entries, and non-user entries must carry reasoning.
	Reasoning string `json:"reasoning,omitempty"`

	// UIRequests describe needed user interaction when Status is
	// pending_user_input.
	UIRequests []fluidui.UIRequest `json:"uiRequests,omitempty"`

	// Error is set when Status is error.
	Error *TaskError `json:"error,omitempty"`
}

// Executor executes agent tasks. Implementations contain only agent logic;
// the execution contract (guard, audit, timeout, recovery) is layered on
// with Chain.
type Executor interface {
	ExecuteTask(ctx context.Context, task A2ATask) (A2ATaskResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task A2ATask) (A2ATaskResult, error)

// ExecuteTask implements Executor.
func (f ExecutorFunc) ExecuteTask(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
	return f(ctx, task)
}

// ToTaskError converts any error into the structured TaskError carried in
// an error result. Structured errors keep their code; raw errors become
// AGENT_EXECUTION_ERROR.
func ToTaskError(err error) *TaskError {
	if err == nil {
		return nil
	}

	taskErr := &TaskError{
		Code:    string(errors.ErrCodeAgentExecution),
		Message: err.Error(),
	}
	if structured := errors.AsError(err); structured != nil {
		taskErr.Code = string(structured.Code())
		taskErr.Details = structured.Metadata()
	}
	return taskErr
}

// ErrorResult builds an error-status result for a task.
func ErrorResult(task A2ATask, err error, reasoning string) A2ATaskResult {
	return A2ATaskResult{
		TaskID:    task.TaskID,
		Status:    StatusError,
		Reasoning: reasoning,
		Error:     ToTaskError(err),
	}
}
