package plan

import (
	"context"
	"sync"

	"github.com/planfall/plankit/episode"
	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/hooks"
	"github.com/planfall/plankit/logging"
	"github.com/planfall/plankit/operator"
	"github.com/planfall/plankit/telemetry"
	"github.com/planfall/plankit/tree"
)

// Policy configures interactive breaks on raised failures.
type Policy struct {
	// BreakOn lists failure kinds that pause scheduling of every task
	// for interactive review when raised. Subtypes of a listed kind
	// match too.
	BreakOn []*failure.Kind

	// DebugOnRuntimeErrors pauses interactively when a non-failure
	// error escapes a task, before it is reported as the task's fatal
	// outcome.
	DebugOnRuntimeErrors bool
}

// matches reports whether a failure's kind triggers a break.
func (p Policy) matches(f failure.Failure) bool {
	for _, k := range p.BreakOn {
		if f.Kind().Is(k) {
			return true
		}
	}
	return false
}

// RuntimeConfig configures a Runtime. The zero value is usable: an
// in-memory tree, no hooks mirror, no trace sink, an auto-continue
// operator and an in-memory episode store.
type RuntimeConfig struct {
	// Tree is the shared task tree. Default: a fresh MemoryTree.
	Tree tree.Tree

	// Hooks receives lifecycle observer events. Default: DefaultHooks.
	Hooks *hooks.Registry

	// Events is the best-effort trace sink. Default: NoopEvents.
	Events telemetry.EventLogger

	// Operator reviews failures while scheduling is paused.
	// Default: auto-continue.
	Operator operator.Operator

	// Episodes persists per-run episode records. Default: MemoryStore.
	Episodes episode.Store

	// Logger for interpreter diagnostics. Default: logging.New().
	Logger *logging.Logger

	// Policy for interactive breaks.
	Policy Policy
}

// Runtime bundles the collaborators plan operations need: the task
// tree, the observer hook registry, the trace sink, the operator and
// the episode scope. A Runtime travels in the context (WithRuntime)
// so that every operation sees the same collaborators without ambient
// globals.
type Runtime struct {
	tree     tree.Tree
	hooks    *hooks.Registry
	events   telemetry.EventLogger
	operator operator.Operator
	store    episode.Store
	episodes *episode.Scope
	log      *logging.Logger
	policy   Policy
	gate     *gate
}

// DefaultHooks is the registry top-level plan definitions announce
// themselves to, and the default registry for runtimes that configure
// none.
var DefaultHooks = hooks.NewRegistry()

// NewRuntime builds a runtime, filling unset collaborators with
// defaults.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	rt := &Runtime{
		tree:     cfg.Tree,
		hooks:    cfg.Hooks,
		events:   cfg.Events,
		operator: cfg.Operator,
		store:    cfg.Episodes,
		log:      cfg.Logger,
		policy:   cfg.Policy,
		gate:     &gate{},
	}
	if rt.tree == nil {
		rt.tree = tree.NewMemoryTree()
	}
	if rt.hooks == nil {
		rt.hooks = DefaultHooks
	}
	if rt.events == nil {
		rt.events = telemetry.NoopEvents{}
	}
	if rt.operator == nil {
		rt.operator = operator.NewAuto(operator.Continue)
	}
	if rt.store == nil {
		rt.store = episode.NewMemoryStore()
	}
	if rt.log == nil {
		rt.log = logging.New()
	}
	rt.episodes = episode.NewScope(rt.store, rt.tree.ID())
	return rt
}

// Tree returns the shared task tree.
func (rt *Runtime) Tree() tree.Tree {
	return rt.tree
}

// Hooks returns the observer registry.
func (rt *Runtime) Hooks() *hooks.Registry {
	return rt.hooks
}

// Episodes returns the episode scope for the current run.
func (rt *Runtime) Episodes() *episode.Scope {
	return rt.episodes
}

// forTree returns a copy of the runtime bound to a fresh tree with a
// fresh episode scope, sharing every other collaborator.
func (rt *Runtime) forTree(t tree.Tree) *Runtime {
	next := *rt
	next.tree = t
	next.episodes = episode.NewScope(rt.store, t.ID())
	next.gate = &gate{}
	return &next
}

// pauseAll suspends scheduling of every task while fn runs. Tasks
// block at their next checkpoint until fn returns. This is the only
// global suspension point in the interpreter.
func (rt *Runtime) pauseAll(fn func()) {
	rt.gate.pause()
	defer rt.gate.resume()
	fn()
}

// checkpoint blocks while scheduling is paused. Called at task spawn,
// join, raise and at every scope loop head.
func (rt *Runtime) checkpoint() {
	if rt == nil {
		return
	}
	rt.gate.checkpoint()
}

// logEvent emits a best-effort trace event. Sink faults never reach
// the raising operation.
func (rt *Runtime) logEvent(ctx context.Context, message string, tags map[string]any) {
	if rt == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			rt.log.CollaboratorFault("trace", r)
		}
	}()
	rt.events.LogEvent(ctx, message, tags)
}

// record appends a best-effort episode record.
func (rt *Runtime) record(ctx context.Context, event string, path tree.Path, kind, message string) {
	if rt == nil {
		return
	}
	if err := rt.episodes.Record(ctx, event, path.String(), kind, message); err != nil {
		rt.log.CollaboratorFault("episodes", err)
	}
}

// gate is a scheduling gate. Tasks pass through checkpoints freely
// until an interactive break takes the write side; they then block at
// the next checkpoint until the break resolves.
type gate struct {
	mu sync.RWMutex
}

func (g *gate) checkpoint() {
	g.mu.RLock()
	g.mu.RUnlock() //nolint:staticcheck // blocks only while a pause holds the write side
}

func (g *gate) pause() {
	g.mu.Lock()
}

func (g *gate) resume() {
	g.mu.Unlock()
}
