package plan

import (
	"context"
	"fmt"
	"sync"
)

// counterFrame holds one WithCounters block's counters. Frames chain
// outward so nested blocks shadow outer names without touching them.
type counterFrame struct {
	parent *counterFrame

	mu       sync.Mutex
	initial  map[string]int
	current  map[string]int
}

func (cf *counterFrame) lookup(name string) *counterFrame {
	for f := cf; f != nil; f = f.parent {
		f.mu.Lock()
		_, ok := f.initial[name]
		f.mu.Unlock()
		if ok {
			return f
		}
	}
	return nil
}

func counterFrameFrom(ctx context.Context) *counterFrame {
	cf, _ := ctx.Value(counterKey).(*counterFrame)
	return cf
}

// WithCounters lexically scopes a set of named retry counters, each
// initialized from defs. Counters are reachable only through Attempt,
// CounterValue and ResetCounter on contexts derived from the returned
// one; they are not visible as ordinary bindings.
func WithCounters(ctx context.Context, defs map[string]int) context.Context {
	cf := &counterFrame{
		parent:  counterFrameFrom(ctx),
		initial: make(map[string]int, len(defs)),
		current: make(map[string]int, len(defs)),
	}
	for name, n := range defs {
		if n < 0 {
			n = 0
		}
		cf.initial[name] = n
		cf.current[name] = n
	}
	return context.WithValue(ctx, counterKey, cf)
}

// Attempt consumes one unit of the named counter's budget and runs
// block. With no budget remaining the block is skipped and control
// falls through to whatever follows, typically re-propagating the
// failure. Reports whether the block ran.
//
// Panics on an undeclared counter name: that is a programming error,
// not a plan failure.
func Attempt(ctx context.Context, name string, block func()) bool {
	cf := mustFrame(ctx, name)
	cf.mu.Lock()
	if cf.current[name] <= 0 {
		cf.mu.Unlock()
		return false
	}
	cf.current[name]--
	cf.mu.Unlock()

	block()
	return true
}

// CounterValue reads the named counter's remaining budget without
// consuming it.
func CounterValue(ctx context.Context, name string) int {
	cf := mustFrame(ctx, name)
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.current[name]
}

// ResetCounter restores the named counter to its declared initial
// value, independent of how many attempts were consumed.
func ResetCounter(ctx context.Context, name string) {
	cf := mustFrame(ctx, name)
	cf.mu.Lock()
	defer cf.mu.Unlock()
	cf.current[name] = cf.initial[name]
}

func mustFrame(ctx context.Context, name string) *counterFrame {
	cf := counterFrameFrom(ctx).lookup(name)
	if cf == nil {
		panic(fmt.Sprintf("plan: counter %q not declared in any enclosing WithCounters", name))
	}
	return cf
}
