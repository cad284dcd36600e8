// Package logging provides real-time log output for the orchestration core.
// The event log is THE forensic record. This package provides optional
// real-time console output for monitoring, derived from orchestration events.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
// This is for real-time monitoring only - forensic analysis uses the event log.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	contextID string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		contextID: l.contextID,
	}
}

// WithContextID returns a new logger scoped to a task context.
func (l *Logger) WithContextID(contextID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		contextID: contextID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.contextID != "" {
		fieldStr = " context=" + l.contextID + fieldStr
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event-derived logging methods ---
// These are called by the orchestrator as entries are appended to the event
// log. They provide real-time console output without duplicating data.

// PlanCreated logs that a new execution plan was generated.
func (l *Logger) PlanCreated(round, phases int) {
	l.Info("plan_created", map[string]interface{}{
		"round":  round,
		"phases": phases,
	})
}

// PhaseStart logs the start of a phase execution.
func (l *Logger) PhaseStart(phase string, agents int) {
	l.Info("phase_start", map[string]interface{}{
		"phase":  phase,
		"agents": agents,
	})
}

// PhaseComplete logs the completion of a phase.
func (l *Logger) PhaseComplete(phase string, duration time.Duration) {
	l.Info("phase_complete", map[string]interface{}{
		"phase":    phase,
		"duration": duration.String(),
	})
}

// AgentResult logs an agent invocation result.
func (l *Logger) AgentResult(role, status string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"agent":    role,
		"status":   status,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("agent_error", fields)
	} else {
		l.Debug("agent_result", fields)
	}
}

// RoundComplete logs the terminal status of an orchestration round.
func (l *Logger) RoundComplete(round int, status string, duration time.Duration) {
	l.Info("round_complete", map[string]interface{}{
		"round":    round,
		"status":   status,
		"duration": duration.String(),
	})
}
