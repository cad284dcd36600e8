// Package template defines declarative task templates: the goals a
// compliance workflow must achieve, hints about its phases, and fallback
// strategies for partial failure.
//
// Templates are intentionally not execution scripts. A template never lists
// agent calls or step sequences; the orchestrator is the only component
// that decides execution order, using the template purely as goal input to
// planning. Loading is strict: unknown fields (such as a steps list) are
// rejected rather than silently ignored.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Common errors.
var (
	// ErrNotFound indicates the requested template does not exist.
	ErrNotFound = errors.New("template not found")

	// ErrInvalidTemplate indicates the template failed validation.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrDuplicateID indicates a template with the same ID is registered.
	ErrDuplicateID = errors.New("duplicate template ID")
)

// Fallback actions a strategy may declare.
const (
	// ActionRetry re-runs the failed phase with bounded attempts.
	ActionRetry = "retry"

	// ActionEscalate marks the phase escalated for human review.
	ActionEscalate = "escalate"
)

// Duration wraps time.Duration so templates can write "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidTemplate, value.Value)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration in its string form for snapshots.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON parses the string form back, so snapshots embedded in task
// contexts round-trip.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidTemplate, s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Goal is one required or optional outcome of a task.
type Goal struct {
	ID              string   `yaml:"id" json:"id"`
	Description     string   `yaml:"description" json:"description"`
	Required        bool     `yaml:"required" json:"required"`
	SuccessCriteria []string `yaml:"success_criteria,omitempty" json:"successCriteria,omitempty"`
}

// Goals groups a template's outcomes by importance.
type Goals struct {
	// Primary goals are required outcomes.
	Primary []Goal `yaml:"primary" json:"primary"`

	// Secondary goals are best-effort.
	Secondary []Goal `yaml:"secondary,omitempty" json:"secondary,omitempty"`
}

// PhaseHint is a non-prescriptive hint about a likely phase of execution.
// It deliberately has no field for steps, actions, or agent ordering.
type PhaseHint struct {
	ID string `yaml:"id" json:"id"`

	Name string `yaml:"name" json:"name"`

	// EstimatedDuration is advisory only.
	EstimatedDuration Duration `yaml:"estimated_duration,omitempty" json:"estimatedDuration,omitempty"`

	// Background marks phases that may run without user attention.
	Background bool `yaml:"background,omitempty" json:"background,omitempty"`

	// UserInteraction marks phases that may require user input.
	UserInteraction bool `yaml:"user_interaction,omitempty" json:"userInteraction,omitempty"`
}

// FallbackStrategy declares how the orchestrator should react when an agent
// error matches the trigger.
type FallbackStrategy struct {
	// Trigger is matched as a substring against the error code and message.
	Trigger string `yaml:"trigger" json:"trigger"`

	// Action is one of the declared fallback actions.
	Action string `yaml:"action" json:"action"`

	// Message is the human-readable explanation recorded with the decision.
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// TaskTemplate is a declarative goal description for one workflow type.
type TaskTemplate struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	Goals Goals `yaml:"goals" json:"goals"`

	Phases []PhaseHint `yaml:"phases,omitempty" json:"phases,omitempty"`

	FallbackStrategies []FallbackStrategy `yaml:"fallback_strategies,omitempty" json:"fallbackStrategies,omitempty"`
}

// Validate checks template invariants.
func (t *TaskTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	}
	if len(t.Goals.Primary) == 0 {
		return fmt.Errorf("%w: template %q has no primary goals", ErrInvalidTemplate, t.ID)
	}
	for _, g := range t.Goals.Primary {
		if g.ID == "" || g.Description == "" {
			return fmt.Errorf("%w: template %q has a primary goal without id or description", ErrInvalidTemplate, t.ID)
		}
	}
	seen := make(map[string]bool, len(t.Phases))
	for _, p := range t.Phases {
		if p.ID == "" {
			return fmt.Errorf("%w: template %q has a phase hint without id", ErrInvalidTemplate, t.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: template %q repeats phase hint %q", ErrInvalidTemplate, t.ID, p.ID)
		}
		seen[p.ID] = true
	}
	for _, f := range t.FallbackStrategies {
		if f.Trigger == "" {
			return fmt.Errorf("%w: template %q has a fallback strategy without trigger", ErrInvalidTemplate, t.ID)
		}
		if f.Action != ActionRetry && f.Action != ActionEscalate {
			return fmt.Errorf("%w: template %q declares unknown fallback action %q", ErrInvalidTemplate, t.ID, f.Action)
		}
	}
	return nil
}

// MatchFallback returns the first strategy whose trigger is a substring of
// the given error code or message. Returns nil if nothing matches.
func (t *TaskTemplate) MatchFallback(code, message string) *FallbackStrategy {
	for i := range t.FallbackStrategies {
		f := &t.FallbackStrategies[i]
		if containsFold(code, f.Trigger) || containsFold(message, f.Trigger) {
			return f
		}
	}
	return nil
}

// Snapshot returns the template as a frozen JSON object for embedding into
// a task context at creation time.
func (t *TaskTemplate) Snapshot() (map[string]interface{}, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var snap map[string]interface{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// containsFold reports whether substr occurs in s, case-insensitively.
// Empty triggers never match.
func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
