// OpenTelemetry tracing support for plan-execution observability.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/tree"
)

// Tracer wraps OpenTelemetry tracing with plan-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include payload fields in span attributes
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// SetDebug enables or disables debug mode (payloads in spans).
func (t *Tracer) SetDebug(debug bool) {
	t.debug = debug
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Scope Spans ---

// ScopeSpanOptions contains options for handling-scope spans.
type ScopeSpanOptions struct {
	ScopeID     string
	Anchor      tree.Path
	ClauseKinds []string
	Attempts    int
	Resolved    bool
}

// StartScopeSpan starts a span covering a handling scope's dynamic
// extent, including all retries.
func (t *Tracer) StartScopeSpan(ctx context.Context, anchor tree.Path) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "scope"+anchor.String(), trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("scope.anchor", anchor.String()))
	return ctx, span
}

// EndScopeSpan ends a scope span with attributes.
func (t *Tracer) EndScopeSpan(span trace.Span, opts ScopeSpanOptions, err error) {
	span.SetAttributes(
		attribute.String("scope.id", opts.ScopeID),
		attribute.StringSlice("scope.clauses", opts.ClauseKinds),
		attribute.Int("scope.attempts", opts.Attempts),
		attribute.Bool("scope.resolved", opts.Resolved),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Task Spans ---

// TaskSpanOptions contains options for task spans.
type TaskSpanOptions struct {
	TaskID string
	Path   tree.Path
}

// StartTaskSpan starts a span covering one task's execution.
func (t *Tracer) StartTaskSpan(ctx context.Context, opts TaskSpanOptions) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "task"+opts.Path.String(), trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("task.id", opts.TaskID),
		attribute.String("task.path", opts.Path.String()),
	)
	return ctx, span
}

// EndTaskSpan ends a task span with its outcome.
func (t *Tracer) EndTaskSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Failure Events ---

// RecordFailure attaches a raised failure to the active span.
func (t *Tracer) RecordFailure(ctx context.Context, f failure.Failure) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("failure.kind", f.Kind().Name()),
	}
	if p := f.Path(); p != nil {
		attrs = append(attrs, attribute.String("failure.path", p.String()))
	}
	if t.debug {
		if sf, ok := f.(*failure.SimpleFailure); ok {
			for i, field := range sf.Fields() {
				attrs = append(attrs, attribute.String(
					fmt.Sprintf("failure.field.%d", i), truncateAny(field, 500)))
			}
		}
	}

	span.AddEvent("failure", trace.WithAttributes(attrs...))
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for
// cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// --- Helpers ---

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func truncateAny(v interface{}, maxLen int) string {
	switch val := v.(type) {
	case string:
		return truncate(val, maxLen)
	default:
		return truncate(fmt.Sprint(val), maxLen)
	}
}
