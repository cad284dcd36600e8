// Package audit provides the audit sink for agent task execution.
//
// Audit is fire-and-forget: recording failures are logged but never abort
// or alter a task result. Task semantics are carried by the event log, not
// the audit trail; the trail exists for security review.
package audit

import (
	"context"
	"sync"
	"time"
)

// Actions recorded by the agent execution pipeline.
const (
	ActionExecutionStarted   = "task_execution_started"
	ActionExecutionCompleted = "task_execution_completed"
	ActionExecutionFailed    = "task_execution_failed"
	ActionAccessDenied       = "tenant_access_denied"
)

// Entry is one audit record.
type Entry struct {
	// TaskID is the A2A task being executed.
	TaskID string `json:"task_id"`

	// ContextID is the task context the execution belongs to.
	ContextID string `json:"context_id,omitempty"`

	// AgentRole is the executing agent's role.
	AgentRole string `json:"agent_role"`

	// Action is what happened.
	Action string `json:"action"`

	// TenantID and UserID record on whose behalf the agent acted.
	TenantID string `json:"tenant_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`

	// Details carries action-specific context (status, error code).
	Details map[string]string `json:"details,omitempty"`

	// Duration is set on completion/failure entries.
	Duration time.Duration `json:"duration,omitempty"`

	// Timestamp is when the entry was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Recorder is the audit sink interface.
type Recorder interface {
	// Record writes one audit entry. Best-effort: implementations log
	// failures internally and never return them to task logic.
	Record(ctx context.Context, entry Entry)
}

// NopRecorder discards all entries.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, entry Entry) {}

// MemoryRecorder keeps entries in memory for tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(ctx context.Context, entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Entries returns a copy of all recorded entries.
func (r *MemoryRecorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByAction returns recorded entries with the given action.
func (r *MemoryRecorder) ByAction(action string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
