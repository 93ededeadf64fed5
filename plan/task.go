package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/telemetry"
	"github.com/planfall/plankit/tree"
)

// TaskHandle is the join side of a spawned task's outcome channel.
type TaskHandle struct {
	id   string
	path tree.Path

	done  chan struct{}
	value any
	err   error
}

// ID returns the task's unique identifier.
func (h *TaskHandle) ID() string {
	return h.id
}

// Path returns the code path the task was spawned at.
func (h *TaskHandle) Path() tree.Path {
	return h.path.Clone()
}

// Spawn starts body as an independently scheduled task at the caller's
// path extended by name. Failures never unwind out of the task: the
// runner captures them into the task's outcome, which Join delivers.
//
// A non-propagation panic in the body is a runtime error; it becomes
// the task's fatal outcome, after an interactive pause when the
// runtime's DebugOnRuntimeErrors policy is set.
func Spawn(ctx context.Context, name string, body Body) *TaskHandle {
	rt := RuntimeFrom(ctx)
	rt.checkpoint()

	h := &TaskHandle{
		id:   uuid.NewString(),
		path: CurrentPath(ctx).Child(name),
		done: make(chan struct{}),
	}
	if rt != nil {
		rt.tree.Resolve(h.path)
		rt.log.TaskSpawned(h.id, h.path)
	}

	tctx := withTask(withPath(ctx, h.path), h.id)
	tctx, span := telemetry.GetTracer().StartTaskSpan(tctx, telemetry.TaskSpanOptions{
		TaskID: h.id,
		Path:   h.path,
	})
	start := time.Now()

	go func() {
		defer close(h.done)
		defer func() {
			r := recover()
			if r != nil {
				if p, ok := r.(*propagation); ok {
					h.value, h.err = nil, p.f
				} else {
					h.value, h.err = nil, fmt.Errorf("task panicked: %v", r)
					if rt != nil && rt.policy.DebugOnRuntimeErrors {
						rt.pauseAll(func() {
							rt.inspect(tctx, failure.NewEnvelope(h.err, h.path))
						})
					}
				}
			}
			telemetry.GetTracer().EndTaskSpan(span, h.err)
			if rt != nil {
				rt.log.TaskOutcome(h.id, time.Since(start), h.err)
				if h.err != nil {
					kind := ""
					if f, ok := failure.As(h.err); ok {
						kind = f.Kind().Name()
					}
					rt.record(tctx, "task.failed", h.path, kind, h.err.Error())
				}
			}
		}()
		h.value, h.err = body(tctx)
	}()

	return h
}

// Join waits for the task's outcome. A successful outcome yields the
// body's value. Any abnormal outcome — failure or runtime error — is
// captured into a failure envelope stamped with the task's path, so a
// receiving scope can unwrap and match it as if it had been raised on
// the joiner's own stack.
func (h *TaskHandle) Join(ctx context.Context) (any, error) {
	RuntimeFrom(ctx).checkpoint()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
	}

	if h.err != nil {
		return nil, failure.NewEnvelope(h.err, h.path)
	}
	return h.value, nil
}

// JoinAll joins every handle and collects the outcomes. Values keep
// the handles' positions. A single abnormal outcome is returned as
// is; several aggregate into a composite failure.
func JoinAll(ctx context.Context, handles ...*TaskHandle) ([]any, error) {
	values := make([]any, len(handles))

	var subs []failure.Failure
	var firstErr error
	for i, h := range handles {
		v, err := h.Join(ctx)
		if err != nil {
			if f, ok := failure.As(err); ok {
				subs = append(subs, f)
			} else if firstErr == nil {
				firstErr = err
			}
			continue
		}
		values[i] = v
	}

	switch {
	case firstErr != nil:
		return values, firstErr
	case len(subs) == 1:
		return values, subs[0]
	case len(subs) > 1:
		return values, failure.NewComposite(subs...)
	}
	return values, nil
}
