package failure

import (
	"fmt"
	"sync"
)

// Kind classifies a failure. Kinds form a subtype tree: a handler
// clause declared for a kind matches that kind and everything below
// it. Kinds are registered by name so configuration files and hook
// subscribers can refer to them.
type Kind struct {
	name   string
	parent *Kind
}

// Built-in kinds. All failures are plan failures; the three concrete
// built-in kinds sit directly below the root.
var (
	// PlanFailure is the root of the kind tree.
	PlanFailure = &Kind{name: "plan-failure"}

	// Simple is an ad hoc failure carrying a message and payload fields.
	Simple = &Kind{name: "simple-plan-failure", parent: PlanFailure}

	// Composite aggregates sub-failures, e.g. from multiple
	// concurrently failing subtasks.
	Composite = &Kind{name: "composite-failure", parent: PlanFailure}

	// Envelope wraps an error captured while crossing a task boundary.
	Envelope = &Kind{name: "failure-envelope", parent: PlanFailure}
)

var (
	kindsMu sync.RWMutex
	kinds   = map[string]*Kind{
		PlanFailure.name: PlanFailure,
		Simple.name:      Simple,
		Composite.name:   Composite,
		Envelope.name:    Envelope,
	}
)

// NewKind registers a new kind below parent. A nil parent means
// directly below PlanFailure. NewKind panics on a duplicate name;
// kinds are declared once, at package initialization time.
func NewKind(name string, parent *Kind) *Kind {
	if name == "" {
		panic("failure: empty kind name")
	}
	if parent == nil {
		parent = PlanFailure
	}

	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, exists := kinds[name]; exists {
		panic(fmt.Sprintf("failure: kind %q already registered", name))
	}
	k := &Kind{name: name, parent: parent}
	kinds[name] = k
	return k
}

// LookupKind returns the registered kind with the given name.
func LookupKind(name string) (*Kind, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kinds[name]
	return k, ok
}

// Name returns the kind's registered name.
func (k *Kind) Name() string {
	return k.name
}

// String returns the kind's name.
func (k *Kind) String() string {
	return k.name
}

// Is reports whether k is other or a subtype of other.
func (k *Kind) Is(other *Kind) bool {
	for cur := k; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Parent returns the kind one level up, or nil for the root.
func (k *Kind) Parent() *Kind {
	return k.parent
}
