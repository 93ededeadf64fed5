package plan

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/telemetry"
)

func TestScopeAndTaskSpansRecorded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	telemetry.SetGlobalTracer(telemetry.NewTracer("plan-test", false))
	t.Cleanup(func() {
		telemetry.SetGlobalTracer(nil)
		otel.SetTracerProvider(prev)
	})

	rt := newTestRuntime(nil)
	attempts := 0

	_, err := runInTask(t, rt, func(ctx context.Context) (any, error) {
		return Handle(ctx,
			[]Clause{{Kinds: []*failure.Kind{graspLost}, Handler: func(ctx context.Context, f failure.Failure) error {
				Retry(ctx)
				return nil
			}}},
			func(ctx context.Context) (any, error) {
				attempts++
				if attempts == 1 {
					return nil, Fail(ctx, graspLost, "cup")
				}
				return "ok", nil
			})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var scopeSpan, taskSpan sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		switch s.Name() {
		case "scope/test-task":
			scopeSpan = s
		case "task/test-task":
			taskSpan = s
		}
	}
	if scopeSpan == nil {
		t.Fatal("no scope span recorded")
	}
	if taskSpan == nil {
		t.Fatal("no task span recorded")
	}

	attrs := map[string]attribute.Value{}
	for _, kv := range scopeSpan.Attributes() {
		attrs[string(kv.Key)] = kv.Value
	}
	if got := attrs["scope.attempts"].AsInt64(); got != 2 {
		t.Errorf("scope.attempts = %d, want 2", got)
	}
	if !attrs["scope.resolved"].AsBool() {
		t.Error("scope.resolved = false, want true")
	}

	// The raise attached a failure event to the active scope span.
	found := false
	for _, e := range scopeSpan.Events() {
		if e.Name == "failure" {
			found = true
		}
	}
	if !found {
		t.Error("no failure event on the scope span")
	}
}
