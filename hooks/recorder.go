package hooks

import "sync"

// Event is a recorded hook event.
type Event struct {
	// Name is the event name: "fail", "scope.begin", "scope.end",
	// "scope.handled", "scope.rethrown" or "toplevel.defined".
	Name string

	// ScopeID identifies the scope for scope events.
	ScopeID string

	// Datum is the raw raise datum for "fail" events.
	Datum any

	// ClauseKinds holds the expanded clause kind names for
	// "scope.begin" events.
	ClauseKinds []string

	// TopLevel is the plan name for "toplevel.defined" events.
	TopLevel string
}

// Recorder is an Observer that records every event in order.
// Useful in tests and post-mortem analysis.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Observer = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Events returns a copy of all recorded events in dispatch order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns the recorded events with the given name, in order.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events with the given name were recorded.
func (r *Recorder) Count(name string) int {
	return len(r.Named(name))
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) OnFail(datum any) {
	r.record(Event{Name: "fail", Datum: datum})
}

func (r *Recorder) OnScopeBegin(scopeID string, clauseKinds []string) {
	kinds := make([]string, len(clauseKinds))
	copy(kinds, clauseKinds)
	r.record(Event{Name: "scope.begin", ScopeID: scopeID, ClauseKinds: kinds})
}

func (r *Recorder) OnScopeEnd(scopeID string) {
	r.record(Event{Name: "scope.end", ScopeID: scopeID})
}

func (r *Recorder) OnScopeHandled(scopeID string) {
	r.record(Event{Name: "scope.handled", ScopeID: scopeID})
}

func (r *Recorder) OnScopeRethrown(scopeID string) {
	r.record(Event{Name: "scope.rethrown", ScopeID: scopeID})
}

func (r *Recorder) OnTopLevelDefined(name string) {
	r.record(Event{Name: "toplevel.defined", TopLevel: name})
}
