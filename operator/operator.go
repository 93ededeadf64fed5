package operator

import (
	"context"
	"errors"

	"github.com/planfall/plankit/failure"
)

// Common errors.
var (
	// ErrNoOperator indicates no operator is connected to decide.
	ErrNoOperator = errors.New("no operator connected")

	// ErrClosed indicates the operator endpoint has been shut down.
	ErrClosed = errors.New("operator closed")
)

// Decision is the operator's verdict on a paused failure.
type Decision int

const (
	// Continue resumes structured propagation of the failure.
	Continue Decision = iota

	// Abort cancels the raise.
	Abort
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Operator reviews failures while task scheduling is globally paused.
type Operator interface {
	// Inspect presents a failure for review and returns the decision.
	// It may block indefinitely; scheduling stays paused until it
	// returns. On error the raise is aborted.
	Inspect(ctx context.Context, f failure.Failure) (Decision, error)
}

// Auto is an Operator that always returns the same decision.
type Auto struct {
	decision Decision
}

var _ Operator = Auto{}

// NewAuto creates an operator with a fixed decision.
func NewAuto(d Decision) Auto {
	return Auto{decision: d}
}

// Inspect returns the fixed decision.
func (a Auto) Inspect(_ context.Context, _ failure.Failure) (Decision, error) {
	return a.decision, nil
}
