// Package plan implements the failure-signaling and retry protocol of
// a hierarchical, concurrently-executing plan interpreter.
//
// Plan code runs inside tasks: independently scheduled goroutines
// arranged in a shared task tree that mirrors the nested plan-call
// structure. A task raises a structured failure with Fail; the nearest
// enclosing handling scope (Handle or HandleTransformative) whose
// clause matches the failure's kind runs its handler, which may call
// Retry to re-enter the scope's body at its recorded anchor path.
// Retry budgets (WithCounters, Attempt) bound how many times that may
// happen before the failure propagates outward.
//
// # Raising
//
// Fail never returns normally when called inside a task with a genuine
// failure: control transfers to a matching scope or the failure
// escapes and becomes the task's outcome. Callers still write
//
//	return plan.Fail(ctx, graspLost, obj)
//
// because Fail returns synchronously for the non-propagating cases:
// raises outside any task, coercion errors, generic runtime errors and
// operator-aborted raises.
//
// # Handling
//
// A scope declares clauses in order; the first clause whose kind
// matches (by subtype) wins. Running a handler to completion does not
// by itself resolve the failure: the handler must call Retry, or
// return a Resolve value to make it the scope's result. A handler that
// returns nil rethrows the original failure to the next enclosing
// scope.
//
// # Cross-task delivery
//
// Failures never unwind across task boundaries. A failure escaping a
// task is captured in a failure envelope and travels through the
// task's outcome channel; Join returns it as an error, and a scope
// unwraps envelopes before clause matching so that handlers observe
// the original kind.
package plan
