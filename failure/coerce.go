package failure

import (
	"errors"
	"fmt"

	"github.com/planfall/plankit/tree"
)

// Coercion errors. Both are configuration errors: they indicate a
// malformed raise at the call site, not an abnormal plan outcome, and
// are therefore raised synchronously rather than propagated.
var (
	// ErrExtraArgs is returned when an existing Failure value is
	// raised together with extra arguments.
	ErrExtraArgs = errors.New("failure value must carry no extra arguments")

	// ErrBadDatum is returned for datum shapes that cannot be coerced
	// into a failure.
	ErrBadDatum = errors.New("datum cannot be coerced into a failure")
)

// Coerce turns a raise datum into a Failure value.
//
//   - nil datum with no args constructs a bare Simple failure stamped
//     with the raise path.
//   - An existing Failure passes through unchanged; args must be empty
//     and no path is stamped (the value keeps whatever path it was
//     constructed with).
//   - A *Kind constructs a value of that kind with args as payload
//     fields, stamped with the raise path.
//   - A string is a message template formatted with args, producing a
//     Simple failure stamped with the raise path.
//
// Every other datum shape is rejected with ErrBadDatum.
func Coerce(datum any, args []any, at tree.Path) (Failure, error) {
	switch d := datum.(type) {
	case nil:
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: nil datum with %d arguments", ErrBadDatum, len(args))
		}
		return &SimpleFailure{kind: Simple, message: "plan failure", path: at.Clone()}, nil

	case Failure:
		if len(args) > 0 {
			return nil, ErrExtraArgs
		}
		return d, nil

	case *Kind:
		if d == nil {
			return nil, fmt.Errorf("%w: nil kind", ErrBadDatum)
		}
		return &SimpleFailure{kind: d, fields: args, path: at.Clone()}, nil

	case string:
		return &SimpleFailure{
			kind:    Simple,
			message: fmt.Sprintf(d, args...),
			path:    at.Clone(),
		}, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrBadDatum, datum)
	}
}
