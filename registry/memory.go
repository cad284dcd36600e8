package registry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRoster implements Roster using in-memory storage.
type MemoryRoster struct {
	mu     sync.RWMutex
	agents map[string]AgentInfo
	closed atomic.Bool
}

// NewMemoryRoster creates an empty in-memory roster.
func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{
		agents: make(map[string]AgentInfo),
	}
}

// Register adds or updates an agent.
func (r *MemoryRoster) Register(info AgentInfo) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := ValidateAgentInfo(info); err != nil {
		return err
	}

	if info.Availability == "" {
		info.Availability = AvailabilityReady
	}
	info.LastSeen = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[info.Role] = info
	return nil
}

// Deregister removes an agent.
func (r *MemoryRoster) Deregister(role string) error {
	if r.closed.Load() {
		return ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[role]; !ok {
		return ErrNotFound
	}
	delete(r.agents, role)
	return nil
}

// Get retrieves an agent by role.
func (r *MemoryRoster) Get(role string) (*AgentInfo, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.agents[role]
	if !ok {
		return nil, ErrNotFound
	}
	return &info, nil
}

// List returns all agents sorted by role.
func (r *MemoryRoster) List() ([]AgentInfo, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AgentInfo, 0, len(r.agents))
	for _, info := range r.agents {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

// Available returns ready agents sorted by role.
func (r *MemoryRoster) Available() ([]AgentInfo, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, info := range all {
		if info.Availability == AvailabilityReady {
			out = append(out, info)
		}
	}
	return out, nil
}

// Close shuts down the roster.
func (r *MemoryRoster) Close() error {
	r.closed.Store(true)
	return nil
}
