package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/telemetry"
	"github.com/planfall/plankit/tree"
)

// ErrBadClause is returned when a handling scope is constructed with a
// clause that has no kinds or no handler.
var ErrBadClause = errors.New("clause needs at least one kind and a handler")

// Body is a handling scope's protected region.
type Body func(ctx context.Context) (any, error)

// Handler runs when a clause matches a raised failure. Returning nil
// rethrows the original failure outward; returning a Resolve value
// ends the scope with that value; calling Retry restarts the scope's
// body. Any other returned error propagates in place of the original
// failure.
type Handler func(ctx context.Context, f failure.Failure) error

// Clause pairs a set of failure kinds with a handler. A clause listing
// several kinds behaves exactly as if each kind had been declared
// singly, in place, with the same handler.
type Clause struct {
	Kinds   []*failure.Kind
	Handler Handler
}

// clause is one expanded (kind, handler) pair.
type clause struct {
	kind    *failure.Kind
	handler Handler
}

// retrySignal restarts the owning scope's loop. Consumed only by the
// scope whose id it carries.
type retrySignal struct {
	scopeID string
}

// resolution is the sentinel a handler returns to make a value the
// scope's result.
type resolution struct {
	value any
}

func (r *resolution) Error() string {
	return "scope resolved"
}

// Resolve wraps a value for return from a handler: the scope ends with
// v as its result and the failure is considered handled.
func Resolve(v any) error {
	return &resolution{value: v}
}

// Retry performs a structured, non-local transfer back to the owning
// scope's loop head, re-entering the body at the path recorded when
// the scope was constructed. Valid only during a handler body's
// dynamic extent; it never returns.
func Retry(ctx context.Context) {
	id, ok := ctx.Value(retryScopeKey).(string)
	if !ok {
		panic("plan: Retry called outside a handler body")
	}
	panic(&retrySignal{scopeID: id})
}

// Handle establishes a handling scope around body. Raised failures
// reaching the scope are tested against the clauses in declaration
// order; the first clause whose kind matches (by subtype) runs its
// handler. A handler's Retry re-runs the body in place, leaving
// task-tree state untouched.
func Handle(ctx context.Context, clauses []Clause, body Body) (any, error) {
	return runScope(ctx, clauses, body, false)
}

// HandleTransformative is Handle for handlers that mutate the plan
// itself: Retry first discards all task-tree state rooted at the
// scope's anchor path, forcing subordinate steps to re-derive from the
// mutated plan when the body re-runs.
func HandleTransformative(ctx context.Context, clauses []Clause, body Body) (any, error) {
	return runScope(ctx, clauses, body, true)
}

func runScope(ctx context.Context, clauses []Clause, body Body, transformative bool) (any, error) {
	flat, names, err := expandClauses(clauses)
	if err != nil {
		return nil, err
	}

	rt := RuntimeFrom(ctx)
	scopeID := uuid.NewString()
	anchor := CurrentPath(ctx).Clone()

	attempt := 0
	resolved := false
	var scopeErr error

	// One span covers the scope's whole dynamic extent, retries
	// included. With no provider configured this is a no-op tracer.
	ctx, span := telemetry.GetTracer().StartScopeSpan(ctx, anchor)
	defer func() {
		telemetry.GetTracer().EndScopeSpan(span, telemetry.ScopeSpanOptions{
			ScopeID:     scopeID,
			Anchor:      anchor,
			ClauseKinds: names,
			Attempts:    attempt,
			Resolved:    resolved,
		}, scopeErr)
	}()

	if rt != nil {
		rt.hooks.ScopeBegin(scopeID, names)
	}
	// Scope bookkeeping is released on every exit path, matched or
	// not, including abnormal termination.
	defer func() {
		if rt != nil {
			rt.hooks.ScopeEnd(scopeID)
		}
	}()

	for {
		rt.checkpoint()
		attempt++

		value, raised, viaPanic, err := runScopeBody(ctx, body)
		if err != nil {
			// A plain error is never matched by clauses.
			scopeErr = err
			return nil, err
		}
		if raised == nil {
			resolved = true
			return value, nil
		}

		match := unwrapForMatch(raised)
		cl, ok := selectClause(flat, match)
		if !ok {
			scopeErr = raised
			return propagateOut(raised, viaPanic)
		}

		if rt != nil {
			rt.hooks.ScopeHandled(scopeID)
			rt.logEvent(ctx, "scope.handled", map[string]any{
				"scope": scopeID,
				"kind":  match.Kind().Name(),
			})
		}

		herr, retried := runHandler(ctx, scopeID, cl.handler, match)
		if retried {
			cleared := 0
			if transformative && rt != nil {
				cleared = clearAnchor(rt, anchor)
			}
			if rt != nil {
				rt.log.ScopeRetry(scopeID, attempt, cleared)
				rt.record(ctx, "scope.retry", anchor, match.Kind().Name(), match.Error())
			}
			continue
		}
		if herr == nil {
			// Handler ran to completion without retrying or
			// resolving: the original failure continues outward.
			if rt != nil {
				rt.hooks.ScopeRethrown(scopeID)
			}
			scopeErr = raised
			return propagateOut(raised, viaPanic)
		}
		var res *resolution
		if errors.As(herr, &res) {
			resolved = true
			return res.value, nil
		}
		scopeErr = herr
		return nil, herr
	}
}

// expandClauses flattens grouped declarations into one clause per
// kind, preserving declaration order.
func expandClauses(clauses []Clause) ([]clause, []string, error) {
	var flat []clause
	var names []string
	for i, c := range clauses {
		if len(c.Kinds) == 0 || c.Handler == nil {
			return nil, nil, fmt.Errorf("%w: clause %d", ErrBadClause, i)
		}
		for _, k := range c.Kinds {
			if k == nil {
				return nil, nil, fmt.Errorf("%w: clause %d has a nil kind", ErrBadClause, i)
			}
			flat = append(flat, clause{kind: k, handler: c.Handler})
			names = append(names, k.Name())
		}
	}
	return flat, names, nil
}

// runScopeBody runs the protected region, converting both delivery
// modes into a raised failure: structured propagation from a same-task
// raise, and a failure-carrying error return from a body that joined
// another task.
func runScopeBody(ctx context.Context, body Body) (value any, raised failure.Failure, viaPanic bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, ok := r.(*propagation)
			if !ok {
				panic(r)
			}
			value, err = nil, nil
			raised, viaPanic = p.f, true
		}
	}()

	v, berr := body(ctx)
	if berr != nil {
		if f, ok := failure.As(berr); ok {
			return nil, f, false, nil
		}
		return nil, nil, false, berr
	}
	return v, nil, false, nil
}

// runHandler runs a matched handler, consuming a Retry aimed at this
// scope. Retries aimed at other scopes, and failures the handler
// itself raises, unwind past it.
func runHandler(ctx context.Context, scopeID string, h Handler, f failure.Failure) (err error, retried bool) {
	defer func() {
		if r := recover(); r != nil {
			rs, ok := r.(*retrySignal)
			if !ok || rs.scopeID != scopeID {
				panic(r)
			}
			err, retried = nil, true
		}
	}()

	hctx := context.WithValue(ctx, retryScopeKey, scopeID)
	return h(hctx, f), false
}

// unwrapForMatch recovers the originally captured failure from any
// envelope layers added at task-boundary crossings, so clause authors
// match the same kind a same-task raise would present. An envelope
// around a plain error stays wrapped and matches as an envelope.
func unwrapForMatch(f failure.Failure) failure.Failure {
	for {
		env, ok := f.(*failure.FailureEnvelope)
		if !ok {
			return f
		}
		inner, ok := failure.As(env.Err())
		if !ok {
			return env
		}
		f = inner
	}
}

// selectClause returns the first clause matching the failure's kind.
func selectClause(flat []clause, f failure.Failure) (clause, bool) {
	for _, cl := range flat {
		if f.Kind().Is(cl.kind) {
			return cl, true
		}
	}
	return clause{}, false
}

// propagateOut continues an unresolved failure outward, preserving the
// mode it arrived in: a same-task raise keeps unwinding, a failure
// that arrived as an error return leaves as one.
func propagateOut(raised failure.Failure, viaPanic bool) (any, error) {
	if viaPanic {
		panic(&propagation{f: raised})
	}
	return nil, raised
}

// clearAnchor discards all task-tree state below the anchor path.
func clearAnchor(rt *Runtime, anchor tree.Path) int {
	node, _ := rt.tree.Resolve(anchor)
	cleared, err := rt.tree.Clear(node)
	if err != nil {
		rt.log.CollaboratorFault("tree", err)
		return 0
	}
	return cleared
}
