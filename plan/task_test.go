package plan

import (
	"context"
	"testing"
	"time"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/tree"
)

func TestSpawnJoinSuccess(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	h := Spawn(ctx, "scan", func(ctx context.Context) (any, error) {
		return "clear", nil
	})
	v, err := h.Join(ctx)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if v != "clear" {
		t.Errorf("value = %v", v)
	}
	if !h.Path().Equal(tree.NewPath("scan")) {
		t.Errorf("path = %v", h.Path())
	}
}

func TestEscapedFailureArrivesEnveloped(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	h := Spawn(ctx, "grasp", func(ctx context.Context) (any, error) {
		return nil, Fail(ctx, graspLost, "cup")
	})
	_, err := h.Join(ctx)

	env, ok := err.(*failure.FailureEnvelope)
	if !ok {
		t.Fatalf("err = %T, want *failure.FailureEnvelope", err)
	}
	if !env.Path().Equal(tree.NewPath("grasp")) {
		t.Errorf("captured at %v, want /grasp", env.Path())
	}
	inner, ok := failure.As(env.Err())
	if !ok || inner.Kind() != graspLost {
		t.Errorf("wrapped = %v", env.Err())
	}
}

func TestBodyPanicBecomesRuntimeError(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	h := Spawn(ctx, "boom", func(ctx context.Context) (any, error) {
		panic("index out of range")
	})
	_, err := h.Join(ctx)

	if err == nil {
		t.Fatal("expected an error outcome")
	}
	// The runtime error stays a plain error under the envelope: a
	// scope clause for a failure kind must not match it.
	env, ok := err.(*failure.FailureEnvelope)
	if !ok {
		t.Fatalf("err = %T", err)
	}
	if failure.IsFailure(env.Err()) {
		t.Errorf("panic outcome coerced into a failure: %v", env.Err())
	}
}

func TestJoinRespectsContext(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	block := make(chan struct{})
	h := Spawn(ctx, "stall", func(ctx context.Context) (any, error) {
		<-block
		return nil, nil
	})

	jctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := h.Join(jctx); err != context.DeadlineExceeded {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	close(block)
	if _, err := h.Join(ctx); err != nil {
		t.Errorf("second join: %v", err)
	}
}

func TestJoinAllAggregatesFailures(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	ok := Spawn(ctx, "a", func(ctx context.Context) (any, error) { return 1, nil })
	bad1 := Spawn(ctx, "b", func(ctx context.Context) (any, error) {
		return nil, Fail(ctx, graspLost)
	})
	bad2 := Spawn(ctx, "c", func(ctx context.Context) (any, error) {
		return nil, Fail(ctx, navStuck)
	})

	values, err := JoinAll(ctx, ok, bad1, bad2)
	comp, isComp := failure.As(err)
	if !isComp || comp.Kind() != failure.Composite {
		t.Fatalf("err = %v, want composite failure", err)
	}
	cf := comp.(*failure.CompositeFailure)
	if len(cf.Failures()) != 2 {
		t.Errorf("sub-failures = %d, want 2", len(cf.Failures()))
	}
	if values[0] != 1 {
		t.Errorf("values = %v, want position 0 preserved", values)
	}
}

func TestJoinAllSingleFailurePassesThrough(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	ok := Spawn(ctx, "a", func(ctx context.Context) (any, error) { return "v", nil })
	bad := Spawn(ctx, "b", func(ctx context.Context) (any, error) {
		return nil, Fail(ctx, lowPower)
	})

	_, err := JoinAll(ctx, ok, bad)
	f, isFailure := failure.As(err)
	if !isFailure {
		t.Fatalf("err = %v", err)
	}
	if unwrapForMatch(f).Kind() != lowPower {
		t.Errorf("kind = %v, want low-power", unwrapForMatch(f).Kind())
	}
}

func TestSiblingFailureDoesNotReachUnrelatedScope(t *testing.T) {
	rt := newTestRuntime(nil)
	ctx := WithRuntime(context.Background(), rt)

	// A scope only observes failures from its own body's dynamic
	// extent, never from an unjoined sibling task.
	handled := false
	h := Spawn(ctx, "watcher", func(ctx context.Context) (any, error) {
		return Handle(ctx,
			[]Clause{{Kinds: []*failure.Kind{graspLost}, Handler: func(ctx context.Context, f failure.Failure) error {
				handled = true
				return Resolve(nil)
			}}},
			func(ctx context.Context) (any, error) {
				return "watched", nil
			})
	})
	sibling := Spawn(ctx, "gripper", func(ctx context.Context) (any, error) {
		return nil, Fail(ctx, graspLost)
	})

	v, err := h.Join(ctx)
	if err != nil || v != "watched" {
		t.Fatalf("watcher outcome = %v, %v", v, err)
	}
	if handled {
		t.Error("scope matched a sibling task's failure")
	}
	if _, err := sibling.Join(ctx); err == nil {
		t.Error("sibling failure lost")
	}
}
