package hooks

import "sync"

// Observer receives failure-protocol lifecycle events. Implementations
// must be fast; they run synchronously on the raising task. They must
// not assume they can alter control flow: panics are swallowed by the
// Registry.
type Observer interface {
	// OnFail fires when a raise begins, with the raw datum handed to
	// the raise operation.
	OnFail(datum any)

	// OnScopeBegin fires when a handling scope is constructed, with
	// the expanded clause kind names in declaration order.
	OnScopeBegin(scopeID string, clauseKinds []string)

	// OnScopeEnd fires exactly once when a scope is destroyed,
	// whatever the exit path.
	OnScopeEnd(scopeID string)

	// OnScopeHandled fires when a clause matched a failure and its
	// handler is about to run.
	OnScopeHandled(scopeID string)

	// OnScopeRethrown fires when a handler body returned normally and
	// the original failure continues outward.
	OnScopeRethrown(scopeID string)

	// OnTopLevelDefined fires when a top-level plan is defined.
	OnTopLevelDefined(name string)
}

// BaseObserver implements Observer with no-ops. Embed it to implement
// only the events you care about.
type BaseObserver struct{}

func (BaseObserver) OnFail(any) {}

func (BaseObserver) OnScopeBegin(string, []string) {}

func (BaseObserver) OnScopeEnd(string) {}

func (BaseObserver) OnScopeHandled(string) {}

func (BaseObserver) OnScopeRethrown(string) {}

func (BaseObserver) OnTopLevelDefined(string) {}

// FaultHandler is told about observers that panicked. It must not
// panic itself; the Registry calls it outside any recover.
type FaultHandler func(event string, cause any)

// Registry dispatches lifecycle events to an ordered list of
// observers. Safe for concurrent use; registration order is dispatch
// order.
type Registry struct {
	mu        sync.RWMutex
	observers []Observer
	onFault   FaultHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an observer. Observers cannot be removed; build a
// new registry instead.
func (r *Registry) Register(obs Observer) {
	if obs == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, obs)
}

// SetFaultHandler installs a handler for observer panics.
func (r *Registry) SetFaultHandler(h FaultHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFault = h
}

func (r *Registry) snapshot() ([]Observer, FaultHandler) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.observers, r.onFault
}

// dispatch runs fn for each observer, isolating panics.
func (r *Registry) dispatch(event string, fn func(Observer)) {
	observers, onFault := r.snapshot()
	for _, obs := range observers {
		r.dispatchOne(event, obs, fn, onFault)
	}
}

func (r *Registry) dispatchOne(event string, obs Observer, fn func(Observer), onFault FaultHandler) {
	defer func() {
		if cause := recover(); cause != nil && onFault != nil {
			onFault(event, cause)
		}
	}()
	fn(obs)
}

// Fail dispatches OnFail.
func (r *Registry) Fail(datum any) {
	r.dispatch("fail", func(o Observer) { o.OnFail(datum) })
}

// ScopeBegin dispatches OnScopeBegin.
func (r *Registry) ScopeBegin(scopeID string, clauseKinds []string) {
	r.dispatch("scope.begin", func(o Observer) { o.OnScopeBegin(scopeID, clauseKinds) })
}

// ScopeEnd dispatches OnScopeEnd.
func (r *Registry) ScopeEnd(scopeID string) {
	r.dispatch("scope.end", func(o Observer) { o.OnScopeEnd(scopeID) })
}

// ScopeHandled dispatches OnScopeHandled.
func (r *Registry) ScopeHandled(scopeID string) {
	r.dispatch("scope.handled", func(o Observer) { o.OnScopeHandled(scopeID) })
}

// ScopeRethrown dispatches OnScopeRethrown.
func (r *Registry) ScopeRethrown(scopeID string) {
	r.dispatch("scope.rethrown", func(o Observer) { o.OnScopeRethrown(scopeID) })
}

// TopLevelDefined dispatches OnTopLevelDefined.
func (r *Registry) TopLevelDefined(name string) {
	r.dispatch("toplevel.defined", func(o Observer) { o.OnTopLevelDefined(name) })
}
