package taskctx

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryStore implements EventStore using in-memory storage.
// Useful for testing and single-process scenarios.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*contextLog
	closed   atomic.Bool
}

// contextLog holds one context's metadata and ordered history.
// Each log has its own mutex so appends to different contexts never
// contend; appends to the same context are serialized.
type contextLog struct {
	mu      sync.Mutex
	meta    TaskContext
	entries []ContextEntry
	byID    map[string]uint64 // entryID -> assigned sequence
	seq     uint64
}

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contexts: make(map[string]*contextLog),
	}
}

// CreateContext registers a new task context.
func (s *MemoryStore) CreateContext(ctx context.Context, tc TaskContext) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if tc.ContextID == "" {
		return ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contexts[tc.ContextID]; exists {
		return ErrContextExists
	}

	if tc.CreatedAt.IsZero() {
		tc.CreatedAt = time.Now().UTC()
	}
	tc.History = nil
	tc.TemplateSnapshot = cloneData(tc.TemplateSnapshot)

	s.contexts[tc.ContextID] = &contextLog{
		meta: tc,
		byID: make(map[string]uint64),
	}
	return nil
}

// GetContext returns context metadata with its projected state.
func (s *MemoryStore) GetContext(ctx context.Context, contextID string) (*TaskContext, error) {
	log, err := s.log(contextID)
	if err != nil {
		return nil, err
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	tc := log.meta
	tc.TemplateSnapshot = cloneData(log.meta.TemplateSnapshot)
	tc.CurrentState = Project(log.entries)
	return &tc, nil
}

// Append adds an entry to a context's history.
// Re-appending an entry ID already in the log returns the original sequence
// number, making caller retries idempotent.
func (s *MemoryStore) Append(ctx context.Context, contextID string, entry ContextEntry) (uint64, error) {
	if s.closed.Load() {
		return 0, ErrStoreClosed
	}
	if err := ValidateEntry(entry); err != nil {
		return 0, err
	}

	log, err := s.log(contextID)
	if err != nil {
		return 0, err
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	if seq, seen := log.byID[entry.EntryID]; seen {
		return seq, nil
	}

	log.seq++
	entry.SequenceNumber = log.seq
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Data = cloneData(entry.Data)

	log.entries = append(log.entries, entry)
	log.byID[entry.EntryID] = entry.SequenceNumber
	return entry.SequenceNumber, nil
}

// Read returns entries with sequence number greater than fromSeq.
func (s *MemoryStore) Read(ctx context.Context, contextID string, fromSeq uint64) ([]ContextEntry, error) {
	log, err := s.log(contextID)
	if err != nil {
		return nil, err
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	// Entries are stored in append order, which is sequence order.
	idx := sort.Search(len(log.entries), func(i int) bool {
		return log.entries[i].SequenceNumber > fromSeq
	})

	out := make([]ContextEntry, 0, len(log.entries)-idx)
	for _, e := range log.entries[idx:] {
		out = append(out, *e.Clone())
	}
	return out, nil
}

// Project folds the context's history into its current state.
func (s *MemoryStore) Project(ctx context.Context, contextID string) (CurrentState, error) {
	log, err := s.log(contextID)
	if err != nil {
		return CurrentState{}, err
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	return Project(log.entries), nil
}

// ListContexts returns the IDs of all known contexts.
func (s *MemoryStore) ListContexts(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.contexts))
	for id := range s.contexts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close shuts down the store.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// log looks up a context's log.
func (s *MemoryStore) log(contextID string) (*contextLog, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.contexts[contextID]
	if !ok {
		return nil, ErrContextNotFound
	}
	return log, nil
}
