package plan

import (
	"context"

	"github.com/planfall/plankit/tree"
)

type ctxKey int

const (
	runtimeKey ctxKey = iota
	pathKey
	taskKey
	retryScopeKey
	counterKey
)

// WithRuntime attaches a runtime to the context. All plan operations
// read the runtime from the context they receive; without one they
// fall back to inert collaborators.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey, rt)
}

// RuntimeFrom returns the runtime attached to the context, or nil.
func RuntimeFrom(ctx context.Context) *Runtime {
	rt, _ := ctx.Value(runtimeKey).(*Runtime)
	return rt
}

func withPath(ctx context.Context, p tree.Path) context.Context {
	return context.WithValue(ctx, pathKey, p)
}

// CurrentPath returns the code path of the currently executing plan
// frame. Outside any plan call it returns the root path.
func CurrentPath(ctx context.Context) tree.Path {
	if p, ok := ctx.Value(pathKey).(tree.Path); ok {
		return p
	}
	return tree.NewPath()
}

func withTask(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskKey, id)
}

// CurrentTask returns the id of the task executing this context, or
// the empty string when the caller is not running inside any task.
func CurrentTask(ctx context.Context) string {
	id, _ := ctx.Value(taskKey).(string)
	return id
}
