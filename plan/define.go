package plan

import (
	"context"
	"fmt"
	"sync"

	"github.com/planfall/plankit/tree"
)

// Fn is a plan body. Args are the caller-supplied arguments.
type Fn func(ctx context.Context, args ...any) (any, error)

// registry maps plan names to their current bodies. Calls look the
// body up indirectly, so redefining a plan affects subsequent calls
// without rebuilding tree structure already created for earlier ones.
var registry = struct {
	mu  sync.RWMutex
	fns map[string]Fn
}{fns: make(map[string]Fn)}

func register(name string, fn Fn) {
	registry.mu.Lock()
	registry.fns[name] = fn
	registry.mu.Unlock()
}

func lookup(name string) (Fn, bool) {
	registry.mu.RLock()
	fn, ok := registry.fns[name]
	registry.mu.RUnlock()
	return fn, ok
}

// Plan is a defined plan function. Each call resolves or creates a
// task-tree node at the caller's path extended by the plan's name and
// runs the body with that node installed as the current path.
type Plan struct {
	name string
	ptr  bool
}

// Define registers a plan body under name and returns a handle for
// calling it. Redefining an existing name replaces the body for all
// subsequent calls.
func Define(name string, fn Fn) *Plan {
	register(name, fn)
	return &Plan{name: name}
}

// DefinePtr is Define for plans whose first argument binds to the
// node's persistent parameter slot: the call that first creates the
// node stores the argument, and every later call resolving to the same
// node replays the stored value in its place. Retries that re-enter
// the same path therefore see a deterministic first argument.
func DefinePtr(name string, fn Fn) *Plan {
	register(name, fn)
	return &Plan{name: name, ptr: true}
}

// Name returns the plan's registered name.
func (p *Plan) Name() string {
	return p.name
}

// Call invokes the plan's current body at the caller's path extended
// by the plan's name.
func (p *Plan) Call(ctx context.Context, args ...any) (any, error) {
	fn, ok := lookup(p.name)
	if !ok {
		return nil, fmt.Errorf("plan %q is not defined", p.name)
	}

	path := CurrentPath(ctx).Child(p.name)
	rt := RuntimeFrom(ctx)
	if rt != nil {
		node, _ := rt.tree.Resolve(path)
		path = node.Path()
		if p.ptr && len(args) > 0 {
			stored, _ := node.BindParam(args[0])
			args = append([]any{stored}, args[1:]...)
		}
	}

	return fn(withPath(ctx, path), args...)
}

// TopPlan is a top-level plan entry: running it allocates a fresh task
// tree and a fresh episode scope, then executes the body as that
// tree's root task.
type TopPlan struct {
	name string
}

// TopLevel registers a top-level plan. Observers on DefaultHooks are
// notified of the definition.
func TopLevel(name string, fn Fn) *TopPlan {
	register(name, fn)
	DefaultHooks.TopLevelDefined(name)
	return &TopPlan{name: name}
}

// Name returns the plan's registered name.
func (tp *TopPlan) Name() string {
	return tp.name
}

// Run executes the top-level plan as the root task of a fresh tree.
// The runtime's tree and episode scope are replaced for this run; all
// other collaborators are shared. Run blocks until the root task
// completes and returns its outcome.
func (tp *TopPlan) Run(ctx context.Context, rt *Runtime, args ...any) (any, error) {
	if rt == nil {
		rt = NewRuntime(RuntimeConfig{})
	}
	runRT := rt.forTree(tree.NewMemoryTree())
	rctx := WithRuntime(ctx, runRT)

	runRT.record(rctx, "run.begin", tree.NewPath(), "", tp.name)
	defer runRT.record(rctx, "run.end", tree.NewPath(), "", tp.name)

	handle := Spawn(rctx, tp.name, func(ctx context.Context) (any, error) {
		fn, ok := lookup(tp.name)
		if !ok {
			return nil, fmt.Errorf("plan %q is not defined", tp.name)
		}
		return fn(ctx, args...)
	})
	return handle.Join(rctx)
}
