package heartbeat

import (
	"testing"
	"time"

	"github.com/gianmatteo-arcana/engine-lever-sub006/registry"
)

func newRoster(t *testing.T, roles ...string) *registry.MemoryRoster {
	t.Helper()
	roster := registry.NewMemoryRoster()
	t.Cleanup(func() { roster.Close() })
	for _, role := range roles {
		err := roster.Register(registry.AgentInfo{
			Role:         role,
			Capabilities: []string{"test"},
		})
		if err != nil {
			t.Fatalf("register %s: %v", role, err)
		}
	}
	return roster
}

func TestSweep_MarksSilentAgentsOffline(t *testing.T) {
	roster := newRoster(t, "business_discovery", "profile_collection")
	m := NewMonitor(roster, Config{Timeout: 50 * time.Millisecond})

	if err := m.Beat("business_discovery"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	if err := m.Beat("profile_collection"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	if err := m.Beat("profile_collection"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	m.Sweep()

	discovery, err := roster.Get("business_discovery")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if discovery.Availability != registry.AvailabilityOffline {
		t.Errorf("silent agent should be offline, got %s", discovery.Availability)
	}

	profile, err := roster.Get("profile_collection")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if profile.Availability != registry.AvailabilityReady {
		t.Errorf("beating agent should stay ready, got %s", profile.Availability)
	}
}

func TestBeat_RestoresOfflineAgent(t *testing.T) {
	roster := newRoster(t, "business_discovery")
	m := NewMonitor(roster, Config{Timeout: 10 * time.Millisecond})

	if err := m.Beat("business_discovery"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	m.Sweep()

	info, _ := roster.Get("business_discovery")
	if info.Availability != registry.AvailabilityOffline {
		t.Fatalf("agent should be offline, got %s", info.Availability)
	}

	if err := m.Beat("business_discovery"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	info, _ = roster.Get("business_discovery")
	if info.Availability != registry.AvailabilityReady {
		t.Errorf("late beat should restore ready, got %s", info.Availability)
	}
	if info.LastSeen.IsZero() {
		t.Error("LastSeen should be stamped")
	}
}

func TestSweep_AffectsPlannerVisibility(t *testing.T) {
	roster := newRoster(t, "business_discovery", "entity_compliance")
	m := NewMonitor(roster, Config{Timeout: 10 * time.Millisecond})

	if err := m.Beat("business_discovery"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	m.Sweep()

	// entity_compliance never beat, so only the sweep's view of
	// business_discovery changes; agents the monitor has never seen
	// are left alone.
	available, err := roster.Available()
	if err != nil {
		t.Fatalf("Available failed: %v", err)
	}
	if len(available) != 1 || available[0].Role != "entity_compliance" {
		t.Fatalf("expected only entity_compliance available, got %+v", available)
	}
}

func TestBeat_UnknownRole(t *testing.T) {
	roster := newRoster(t)
	m := NewMonitor(roster, Config{})

	if err := m.Beat("ghost"); err == nil {
		t.Fatal("beating an unregistered role must fail")
	}
}

func TestStartStop(t *testing.T) {
	roster := newRoster(t, "business_discovery")
	m := NewMonitor(roster, Config{Timeout: 5 * time.Millisecond, CheckInterval: 5 * time.Millisecond})

	if err := m.Beat("business_discovery"); err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	m.Start()
	m.Start() // second call is a no-op

	deadline := time.After(time.Second)
	for {
		info, _ := roster.Get("business_discovery")
		if info.Availability == registry.AvailabilityOffline {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background sweep never marked the agent offline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Stop()
	m.Stop() // idempotent
}
