package taskctx

import (
	"context"
	"errors"
)

// Common errors.
var (
	// ErrContextNotFound indicates the requested context does not exist.
	ErrContextNotFound = errors.New("task context not found")

	// ErrContextExists indicates a context with the same ID already exists.
	ErrContextExists = errors.New("task context already exists")

	// ErrInvalidEntry indicates the entry is missing required fields.
	ErrInvalidEntry = errors.New("invalid context entry")

	// ErrReasoningRequired indicates a system or agent entry lacks reasoning.
	ErrReasoningRequired = errors.New("reasoning required for non-user actors")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("event store closed")
)

// EventStore is the append-only event log for task contexts.
//
// Append is atomic and monotonic: concurrent appends to the same context
// are serialized and the assigned sequence number is the log's only source
// of ordering truth. Append is idempotent by entry ID: re-appending an
// entry that is already in the log returns the original sequence number
// without duplicating it.
type EventStore interface {
	// CreateContext registers a new task context.
	// Returns ErrContextExists if the context ID is already in use.
	CreateContext(ctx context.Context, tc TaskContext) error

	// GetContext returns the context metadata with its projected state.
	// History is not populated; use Read for entries.
	GetContext(ctx context.Context, contextID string) (*TaskContext, error)

	// Append adds an entry to a context's history and returns the assigned
	// sequence number. Entries from system or agent actors must carry
	// reasoning.
	Append(ctx context.Context, contextID string, entry ContextEntry) (uint64, error)

	// Read returns entries with sequence number greater than fromSeq,
	// in sequence order. Pass 0 for the full history.
	Read(ctx context.Context, contextID string, fromSeq uint64) ([]ContextEntry, error)

	// Project folds the context's history into its current state.
	Project(ctx context.Context, contextID string) (CurrentState, error)

	// ListContexts returns the IDs of all known contexts.
	ListContexts(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// ValidateEntry checks that an entry satisfies the append invariants.
func ValidateEntry(entry ContextEntry) error {
	if entry.EntryID == "" {
		return ErrInvalidEntry
	}
	if entry.Operation == "" {
		return ErrInvalidEntry
	}
	if !entry.Actor.Type.Valid() || entry.Actor.ID == "" {
		return ErrInvalidEntry
	}
	if entry.Actor.Type != ActorUser && entry.Reasoning == "" {
		return ErrReasoningRequired
	}
	return nil
}
