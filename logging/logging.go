// Package logging provides real-time console output for plan
// execution. Hook observers and the episode store are the forensic
// record; this package is optional monitoring output derived from the
// same lifecycle points.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/planfall/plankit/tree"
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
// This is for real-time monitoring only.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	path      string
	taskID    string
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
	c := l.clone()
	c.component = component
	return c
}

// WithPath returns a new logger stamped with a code path.
func (l *Logger) WithPath(p tree.Path) *Logger {
	c := l.clone()
	c.path = p.String()
	return c
}

// WithTaskID returns a new logger stamped with a task ID.
func (l *Logger) WithTaskID(taskID string) *Logger {
	c := l.clone()
	c.taskID = taskID
	return c
}

func (l *Logger) clone() *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		path:      l.path,
		taskID:    l.taskID,
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

// log writes a log entry in traditional format:
// LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.path != "" {
		fieldStr += " path=" + l.path
	}
	if l.taskID != "" {
		fieldStr += " task=" + l.taskID
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

// --- Lifecycle logging methods ---
// Called by the runtime at failure-protocol lifecycle points. They
// mirror hook events for real-time console output.

// FailureRaised logs a raised failure.
func (l *Logger) FailureRaised(kind, message string, path tree.Path) {
	l.Info("failure_raised", map[string]interface{}{
		"kind": kind,
		"msg":  message,
		"at":   path.String(),
	})
}

// ScopeRetry logs a handling-scope retry.
func (l *Logger) ScopeRetry(scopeID string, attempt int, cleared int) {
	fields := map[string]interface{}{
		"scope":   scopeID,
		"attempt": attempt,
	}
	if cleared > 0 {
		fields["cleared_nodes"] = cleared
	}
	l.Info("scope_retry", fields)
}

// TaskSpawned logs a spawned task.
func (l *Logger) TaskSpawned(taskID string, path tree.Path) {
	l.Debug("task_spawned", map[string]interface{}{
		"task": taskID,
		"at":   path.String(),
	})
}

// TaskOutcome logs a task's final outcome.
func (l *Logger) TaskOutcome(taskID string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"task":     taskID,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("task_failed", fields)
	} else {
		l.Debug("task_done", fields)
	}
}

// CollaboratorFault logs a swallowed panic from a best-effort
// collaborator (hook observer, tracer, episode store).
func (l *Logger) CollaboratorFault(collaborator string, cause any) {
	l.Warn("collaborator_fault", map[string]interface{}{
		"collaborator": collaborator,
		"cause":        fmt.Sprint(cause),
	})
}
