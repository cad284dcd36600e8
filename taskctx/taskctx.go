package taskctx

import (
	"time"
)

// ActorType identifies the kind of actor that produced a context entry.
type ActorType string

const (
	// ActorSystem is the orchestration core itself.
	ActorSystem ActorType = "system"

	// ActorAgent is an autonomous agent executing a task.
	ActorAgent ActorType = "agent"

	// ActorUser is a human providing input.
	ActorUser ActorType = "user"
)

// Valid returns true if the actor type is a known value.
func (a ActorType) Valid() bool {
	switch a {
	case ActorSystem, ActorAgent, ActorUser:
		return true
	default:
		return false
	}
}

// Actor records who produced a context entry.
type Actor struct {
	// Type is the kind of actor.
	Type ActorType `json:"type"`

	// ID identifies the specific actor (agent role, user ID, or component name).
	ID string `json:"id"`

	// Version is the actor's version, for replay fidelity.
	Version string `json:"version,omitempty"`
}

// Well-known operations appended by the core. Agents may append additional
// free-form operation verbs (e.g. "business_found"); the projection treats
// anything it does not recognize as a generic data merge.
const (
	OpTaskCreated         = "task_created"
	OpPlanCreated         = "plan_created"
	OpPhaseStarted        = "phase_started"
	OpPhaseCompleted      = "phase_completed"
	OpRequestingUserInput = "requesting_user_input"
	OpUserInput           = "user_input"
	OpUIRequestCreated    = "ui_request_created"
	OpFallbackApplied     = "fallback_applied"
	OpExecutionError      = "execution_error"
	OpRoundCompleted      = "round_completed"
)

// ContextEntry is one immutable fact in a task's history.
// Entries are never mutated or removed; corrections are new entries
// referencing the corrected entry via Trigger.
type ContextEntry struct {
	// EntryID uniquely identifies this entry. Used for idempotent re-append.
	EntryID string `json:"entryId"`

	// Timestamp is when the entry was produced. Informational only:
	// SequenceNumber is the sole ordering authority.
	Timestamp time.Time `json:"timestamp"`

	// SequenceNumber is assigned by the store at append time and is
	// strictly increasing per context.
	SequenceNumber uint64 `json:"sequenceNumber"`

	// Actor is who produced this entry.
	Actor Actor `json:"actor"`

	// Operation is a free-form verb describing what happened.
	Operation string `json:"operation"`

	// Data is the operation-specific payload as a JSON object.
	Data map[string]interface{} `json:"data,omitempty"`

	// Reasoning is a human-readable justification. Mandatory for system
	// and agent actors, optional for users.
	Reasoning string `json:"reasoning,omitempty"`

	// Trigger records what caused this entry (request ID, source entry ID).
	Trigger string `json:"trigger,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e *ContextEntry) Clone() *ContextEntry {
	clone := *e
	clone.Data = cloneData(e.Data)
	return &clone
}

// Status values for a task context's projected state.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusNeedsInput Status = "needs_input"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusEscalated  Status = "escalated"
)

// IsTerminal reports whether a round ending in this status requires new
// external input before another round can make progress.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusError, StatusNeedsInput, StatusEscalated:
		return true
	default:
		return false
	}
}

// CurrentState is a projection over a context's history. It is never a
// source of truth: it must be derivable purely by folding history in order.
type CurrentState struct {
	// Status is the task's lifecycle status.
	Status Status `json:"status"`

	// Phase is the most recently started phase ID.
	Phase string `json:"phase,omitempty"`

	// Completeness is a 0-100 progress estimate.
	Completeness int `json:"completeness"`

	// Data is the accumulated task data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// TaskContext is the full state of one compliance workflow instance.
type TaskContext struct {
	// ContextID is the immutable identity of this task.
	ContextID string `json:"contextId"`

	// TenantID is the isolation boundary this task belongs to.
	TenantID string `json:"tenantId"`

	// TemplateID names the task template this context was created from.
	TemplateID string `json:"templateId"`

	// TemplateSnapshot is the template as loaded at creation time, frozen
	// so behavior is reproducible even if the template changes later.
	// Stored as a JSON object rather than a live reference.
	TemplateSnapshot map[string]interface{} `json:"templateSnapshot,omitempty"`

	// CreatedAt is when the context was instantiated.
	CreatedAt time.Time `json:"createdAt"`

	// CurrentState is the projection of History at read time.
	CurrentState CurrentState `json:"currentState"`

	// History is the append-only, sequence-ordered event log.
	History []ContextEntry `json:"history,omitempty"`
}

// cloneData deep-copies a JSON-object payload. Only JSON value shapes
// (maps, slices, scalars) are expected.
func cloneData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneData(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
