package hooks

import (
	"sync"
	"testing"
)

func TestRegistryDispatchOrder(t *testing.T) {
	reg := NewRegistry()

	var order []string
	var mu sync.Mutex
	mark := func(who string) Observer {
		return &funcObserver{onFail: func(any) {
			mu.Lock()
			order = append(order, who)
			mu.Unlock()
		}}
	}

	reg.Register(mark("first"))
	reg.Register(mark("second"))
	reg.Register(mark("third"))

	reg.Fail("datum")

	if len(order) != 3 || order[0] != "first" || order[2] != "third" {
		t.Errorf("dispatch order = %v", order)
	}
}

func TestRegistryNoSubscribers(t *testing.T) {
	reg := NewRegistry()

	// Must not panic or block with nobody listening.
	reg.Fail("datum")
	reg.ScopeBegin("s1", []string{"simple-plan-failure"})
	reg.ScopeEnd("s1")
	reg.TopLevelDefined("deliver-order")
}

func TestRegistryIsolatesPanics(t *testing.T) {
	reg := NewRegistry()

	var faults []string
	reg.SetFaultHandler(func(event string, cause any) {
		faults = append(faults, event)
	})

	reg.Register(&funcObserver{onFail: func(any) { panic("bad observer") }})

	rec := NewRecorder()
	reg.Register(rec)

	reg.Fail("datum")

	// The panicking observer must not stop later observers.
	if rec.Count("fail") != 1 {
		t.Errorf("later observer saw %d fail events, want 1", rec.Count("fail"))
	}
	if len(faults) != 1 || faults[0] != "fail" {
		t.Errorf("faults = %v", faults)
	}
}

func TestRecorderEvents(t *testing.T) {
	rec := NewRecorder()
	reg := NewRegistry()
	reg.Register(rec)

	reg.ScopeBegin("s1", []string{"kind-a", "kind-b"})
	reg.ScopeHandled("s1")
	reg.ScopeRethrown("s1")
	reg.ScopeEnd("s1")

	events := rec.Events()
	want := []string{"scope.begin", "scope.handled", "scope.rethrown", "scope.end"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, name := range want {
		if events[i].Name != name {
			t.Errorf("event %d = %s, want %s", i, events[i].Name, name)
		}
		if events[i].ScopeID != "s1" {
			t.Errorf("event %d scope = %s", i, events[i].ScopeID)
		}
	}
	if kinds := events[0].ClauseKinds; len(kinds) != 2 || kinds[0] != "kind-a" {
		t.Errorf("clause kinds = %v", kinds)
	}
}

func TestBaseObserverIsComplete(t *testing.T) {
	// BaseObserver must satisfy Observer so embedders only override
	// what they need.
	var obs Observer = struct{ BaseObserver }{}
	obs.OnFail(nil)
	obs.OnScopeEnd("s")
}

// funcObserver adapts a single OnFail func for tests.
type funcObserver struct {
	BaseObserver
	onFail func(datum any)
}

func (f *funcObserver) OnFail(datum any) {
	if f.onFail != nil {
		f.onFail(datum)
	}
}
