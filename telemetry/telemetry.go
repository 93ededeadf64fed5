// Package telemetry provides the tracing collaborator of the plan
// interpreter: best-effort event logging plus OpenTelemetry spans for
// handling scopes, tasks and failures.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planfall/plankit/logging"
)

// EventLogger records trace events emitted by the failure protocol.
// Implementations must never fail or block the raise path; callers
// ignore everything the logger does.
type EventLogger interface {
	// LogEvent records one event with free-form tags.
	LogEvent(ctx context.Context, message string, tags map[string]any)

	// Flush sends any buffered data.
	Flush() error

	// Close closes the logger.
	Close() error
}

// Event is the serialized event shape used by file sinks.
type Event struct {
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Tags      map[string]any `json:"tags,omitempty"`
}

// NewEventLogger creates an event logger by sink name.
//
//   - "console": human-readable lines on stdout
//   - "file": JSON lines appended to target
//   - "otel": events attached to the active OpenTelemetry span
//   - "noop" or "": discard
func NewEventLogger(sink, target string) (EventLogger, error) {
	switch sink {
	case "console":
		return NewConsoleEvents(nil), nil
	case "file":
		return NewFileEvents(target)
	case "otel":
		return OtelEvents{}, nil
	case "noop", "":
		return NoopEvents{}, nil
	default:
		return nil, fmt.Errorf("unknown telemetry sink: %s", sink)
	}
}

// --- Noop sink ---

// NoopEvents discards all events.
type NoopEvents struct{}

func (NoopEvents) LogEvent(context.Context, string, map[string]any) {}
func (NoopEvents) Flush() error                                     { return nil }
func (NoopEvents) Close() error                                     { return nil }

// --- Console sink ---

// ConsoleEvents writes events to the console logger.
type ConsoleEvents struct {
	logger *logging.Logger
}

// NewConsoleEvents creates a console-backed event logger. A nil logger
// gets a default one.
func NewConsoleEvents(logger *logging.Logger) *ConsoleEvents {
	if logger == nil {
		logger = logging.New()
	}
	return &ConsoleEvents{logger: logger.WithComponent("trace")}
}

func (c *ConsoleEvents) LogEvent(_ context.Context, message string, tags map[string]any) {
	fields := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		fields[k] = v
	}
	c.logger.Info(message, fields)
}

func (c *ConsoleEvents) Flush() error { return nil }
func (c *ConsoleEvents) Close() error { return nil }

// --- File sink ---

// FileEvents appends events as JSON lines to a file.
type FileEvents struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileEvents creates a file-backed event logger.
func NewFileEvents(path string) (*FileEvents, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &FileEvents{file: file}, nil
}

func (e *FileEvents) LogEvent(_ context.Context, message string, tags map[string]any) {
	data, err := json.Marshal(Event{
		Message:   message,
		Timestamp: time.Now().UTC(),
		Tags:      tags,
	})
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.file.Write(data)
	e.file.Write([]byte("\n"))
}

func (e *FileEvents) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Sync()
}

func (e *FileEvents) Close() error {
	e.Flush()
	return e.file.Close()
}

// --- OpenTelemetry sink ---

// OtelEvents attaches events to the active OpenTelemetry span. With no
// recording span in the context the event is dropped, which keeps the
// sink best-effort.
type OtelEvents struct{}

func (OtelEvents) LogEvent(ctx context.Context, message string, tags map[string]any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(tags))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, truncateAny(v, 500)))
	}
	span.AddEvent(message, trace.WithAttributes(attrs...))
}

func (OtelEvents) Flush() error { return nil }
func (OtelEvents) Close() error { return nil }
