// Package heartbeat keeps the agent roster honest.
//
// Agents beat periodically; the monitor marks agents that miss their
// window offline in the roster so the planner stops assigning work to
// them. A late beat brings the agent back to ready.
package heartbeat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gianmatteo-arcana/engine-lever-sub006/logging"
	"github.com/gianmatteo-arcana/engine-lever-sub006/registry"
)

// Defaults for the monitor.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultCheckInterval = 10 * time.Second
)

// Config tunes the monitor.
type Config struct {
	// Timeout is how long an agent may stay silent before it is marked
	// offline.
	Timeout time.Duration

	// CheckInterval is how often silent agents are swept.
	CheckInterval time.Duration

	// Logger defaults to a component-scoped logger.
	Logger *logging.Logger
}

// Monitor tracks agent liveness and reflects it into the roster.
type Monitor struct {
	roster        registry.Roster
	timeout       time.Duration
	checkInterval time.Duration
	logger        *logging.Logger

	mu       sync.Mutex
	lastBeat map[string]time.Time

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMonitor creates a monitor over a roster.
func NewMonitor(roster registry.Roster, cfg Config) *Monitor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New().WithComponent("heartbeat")
	}
	return &Monitor{
		roster:        roster,
		timeout:       cfg.Timeout,
		checkInterval: cfg.CheckInterval,
		logger:        cfg.Logger,
		lastBeat:      make(map[string]time.Time),
	}
}

// Beat records a heartbeat for a role. An offline agent that beats again
// is restored to ready.
func (m *Monitor) Beat(role string) error {
	now := time.Now().UTC()

	m.mu.Lock()
	m.lastBeat[role] = now
	m.mu.Unlock()

	info, err := m.roster.Get(role)
	if err != nil {
		return err
	}
	if info.Availability == registry.AvailabilityOffline {
		m.logger.Info("agent back online", map[string]interface{}{"role": role})
		info.Availability = registry.AvailabilityReady
	}
	info.LastSeen = now
	return m.roster.Register(*info)
}

// Start launches the background sweep. Calling Start twice is a no-op.
func (m *Monitor) Start() {
	if m.running.Swap(true) {
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go func() {
		defer close(m.doneCh)
		ticker := time.NewTicker(m.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// Sweep marks every agent whose last beat is older than the timeout
// offline. Exposed so tests and callers without the background loop can
// drive it directly.
func (m *Monitor) Sweep() {
	cutoff := time.Now().UTC().Add(-m.timeout)

	m.mu.Lock()
	var silent []string
	for role, at := range m.lastBeat {
		if at.Before(cutoff) {
			silent = append(silent, role)
		}
	}
	m.mu.Unlock()

	for _, role := range silent {
		info, err := m.roster.Get(role)
		if err != nil {
			continue
		}
		if info.Availability == registry.AvailabilityOffline {
			continue
		}
		info.Availability = registry.AvailabilityOffline
		if err := m.roster.Register(*info); err != nil {
			continue
		}
		m.logger.Warn("agent missed heartbeat window",
			map[string]interface{}{"role": role, "timeout": m.timeout.String()})
	}
}

// Stop halts the background sweep and waits for it to exit.
func (m *Monitor) Stop() {
	if !m.running.Swap(false) {
		return
	}
	close(m.stopCh)
	<-m.doneCh
}
