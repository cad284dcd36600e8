// Package registry provides the roster of available agents.
//
// Agents register with a role and declared capabilities. The planner builds
// its prompt from this roster — it must never invent an agent that is not
// registered — and the orchestrator resolves a plan's required agents
// through it before dispatch.
package registry

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrNotFound    = errors.New("agent not found")
	ErrClosed      = errors.New("roster closed")
	ErrInvalidRole = errors.New("invalid agent role")
)

// Availability represents an agent's operational state.
type Availability string

const (
	AvailabilityReady   Availability = "ready"
	AvailabilityBusy    Availability = "busy"
	AvailabilityOffline Availability = "offline"
)

// AgentInfo describes one registered agent.
type AgentInfo struct {
	// Role uniquely identifies the agent within the roster
	// (e.g. "business_discovery", "profile_collection").
	Role string

	// Name is a human-readable name.
	Name string

	// Capabilities describe what the agent can do, in terms the planner
	// can reason about (e.g. "search public business registries").
	Capabilities []string

	// Availability is the agent's operational state.
	Availability Availability

	// Version is the agent implementation version, recorded into entry
	// provenance for replay fidelity.
	Version string

	// Metadata contains additional key-value pairs.
	Metadata map[string]string

	// LastSeen is when the agent last updated its registration.
	LastSeen time.Time
}

// Roster provides agent registration and discovery.
type Roster interface {
	// Register adds or updates an agent. Same role updates in place.
	Register(info AgentInfo) error

	// Deregister removes an agent from the roster.
	// Returns ErrNotFound if the role is not registered.
	Deregister(role string) error

	// Get retrieves a specific agent by role.
	Get(role string) (*AgentInfo, error)

	// List returns all registered agents, sorted by role.
	List() ([]AgentInfo, error)

	// Available returns agents currently accepting work, sorted by role.
	Available() ([]AgentInfo, error)

	// Close shuts down the roster.
	Close() error
}

// ValidateAgentInfo checks if agent info is valid.
func ValidateAgentInfo(info AgentInfo) error {
	if info.Role == "" {
		return ErrInvalidRole
	}
	if len(info.Capabilities) == 0 {
		return errors.New("agent must declare at least one capability")
	}
	return nil
}
