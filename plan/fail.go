package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/operator"
	"github.com/planfall/plankit/telemetry"
)

// ErrAborted is returned by Fail when the operator aborts a raise
// during an interactive break.
var ErrAborted = errors.New("raise aborted by operator")

// propagation carries a failure up a task's stack. Only scope loops
// and task runners recover it; anything else re-panics.
type propagation struct {
	f failure.Failure
}

// Fail raises a failure.
//
// The datum follows the Coerce shapes: nil (bare failure), an existing
// Failure value, a *failure.Kind with payload args, or a message
// template with format args. Constructed failures are stamped with the
// caller's current code path; an existing Failure keeps its own.
//
// Inside a task, a genuine failure never returns control here: it is
// delivered through structured propagation to the nearest matching
// scope, or escapes and terminates the task. Fail returns an error
// synchronously only for the cases that are not subject to handling:
// raises outside any task, malformed raises (coercion errors), plain
// non-failure errors, and raises aborted by the operator. Callers
// therefore write
//
//	return plan.Fail(ctx, kind, args...)
//
// so the synchronous cases surface as an ordinary error return.
func Fail(ctx context.Context, datum any, args ...any) error {
	rt := RuntimeFrom(ctx)
	rt.checkpoint()

	// Plain errors are never subject to retry or clause matching.
	// They raise synchronously regardless of task context, optionally
	// pausing for review first. Observers still hear about the raise.
	if err, ok := datum.(error); ok && !failure.IsFailure(err) {
		if rt != nil {
			rt.logEvent(ctx, "fail", map[string]any{
				"error": err.Error(),
				"path":  CurrentPath(ctx).String(),
			})
			rt.hooks.Fail(datum)
			if rt.policy.DebugOnRuntimeErrors {
				rt.pauseAll(func() {
					rt.inspect(ctx, failure.NewEnvelope(err, CurrentPath(ctx)))
				})
			}
		}
		return err
	}

	f, err := failure.Coerce(datum, args, CurrentPath(ctx))
	if err != nil {
		return err
	}

	if rt != nil {
		rt.logEvent(ctx, "fail", map[string]any{
			"kind": f.Kind().Name(),
			"path": f.Path().String(),
		})
		telemetry.GetTracer().RecordFailure(ctx, f)
		// Observers get the raw raise datum, not the coerced value.
		rt.hooks.Fail(datum)
		rt.record(ctx, "fail", f.Path(), f.Kind().Name(), f.Error())
		rt.log.FailureRaised(f.Kind().Name(), f.Error(), f.Path())
	}

	// Outside any task the failure goes synchronously to the caller.
	if CurrentTask(ctx) == "" {
		return f
	}

	if rt != nil && rt.policy.matches(f) {
		decision, ierr := rt.breakInteractive(ctx, f)
		if ierr != nil {
			return fmt.Errorf("%w: %w", ErrAborted, ierr)
		}
		if decision != operator.Continue {
			return fmt.Errorf("%w: %s", ErrAborted, f.Error())
		}
	}

	panic(&propagation{f: f})
}

// breakInteractive pauses all scheduling and asks the operator whether
// to continue propagation.
func (rt *Runtime) breakInteractive(ctx context.Context, f failure.Failure) (operator.Decision, error) {
	var (
		decision operator.Decision
		err      error
	)
	rt.pauseAll(func() {
		decision, err = rt.inspect(ctx, f)
	})
	return decision, err
}

func (rt *Runtime) inspect(ctx context.Context, f failure.Failure) (operator.Decision, error) {
	return rt.operator.Inspect(ctx, f)
}
