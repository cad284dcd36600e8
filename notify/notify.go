// Package notify streams task context updates to interested consumers.
//
// The core never calls a UI or webhook directly. Every append to a task
// context produces an Update on the notifier; delivery is best-effort and
// lossy by design, because any consumer can recover the authoritative
// state by reading the event log from its last seen sequence number.
package notify

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed         = errors.New("notifier closed")
	ErrInvalidContext = errors.New("invalid context id")
)

// Update announces one appended context entry.
type Update struct {
	// ContextID is the task context that changed.
	ContextID string `json:"contextId"`

	// SequenceNumber is the appended entry's sequence number. Consumers
	// use it to read the log from where they left off.
	SequenceNumber uint64 `json:"sequenceNumber"`

	// Operation is the appended entry's operation verb.
	Operation string `json:"operation"`

	// Status is the projected task status after the append, when known.
	Status string `json:"status,omitempty"`

	// Timestamp is when the update was published.
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes context updates.
type Notifier interface {
	// Publish announces an update to all subscribers of its context.
	Publish(update Update) error

	// Subscribe streams updates for one context. An empty contextID
	// subscribes to all contexts.
	Subscribe(contextID string) (Subscription, error)

	// Close shuts down the notifier.
	Close() error
}

// Subscription is an active update stream.
type Subscription interface {
	// Updates returns the channel of incoming updates.
	// The channel is closed when the subscription ends.
	Updates() <-chan Update

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds common notifier configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}
