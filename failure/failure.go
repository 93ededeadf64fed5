package failure

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/planfall/plankit/tree"
)

// Failure is a structured raised value representing an abnormal plan
// outcome. Failures are immutable once constructed. The path, when
// present, records the dynamic nesting at the moment of the raise.
type Failure interface {
	error

	// Kind returns the failure's classification.
	Kind() *Kind

	// Path returns the code path the failure was stamped with,
	// or nil if it was never stamped.
	Path() tree.Path
}

// As extracts a Failure from an error chain.
func As(err error) (Failure, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsFailure reports whether err carries a Failure anywhere in its
// chain. Errors that don't are generic runtime errors: they are never
// matched by handler clauses and never subject to retry.
func IsFailure(err error) bool {
	_, ok := As(err)
	return ok
}

// SimpleFailure is an ad hoc failure with a message and optional
// payload fields.
type SimpleFailure struct {
	kind    *Kind
	message string
	fields  []any
	path    tree.Path
}

var _ Failure = (*SimpleFailure)(nil)

// New constructs a failure of the given kind. fields carry arbitrary
// payload values alongside the message.
func New(kind *Kind, message string, fields ...any) *SimpleFailure {
	if kind == nil {
		kind = Simple
	}
	return &SimpleFailure{kind: kind, message: message, fields: fields}
}

// Newf constructs a Simple failure from a format string.
func Newf(format string, args ...any) *SimpleFailure {
	return &SimpleFailure{kind: Simple, message: fmt.Sprintf(format, args...)}
}

// Error returns the failure message, prefixed with the kind for
// non-Simple kinds.
func (f *SimpleFailure) Error() string {
	if f.message == "" {
		return f.kind.Name()
	}
	if f.kind == Simple {
		return f.message
	}
	return f.kind.Name() + ": " + f.message
}

// Kind returns the failure's kind.
func (f *SimpleFailure) Kind() *Kind {
	return f.kind
}

// Path returns the stamped code path, or nil.
func (f *SimpleFailure) Path() tree.Path {
	return f.path
}

// Fields returns the payload fields. Callers must not modify the
// returned slice.
func (f *SimpleFailure) Fields() []any {
	return f.fields
}

// MarshalJSON renders the failure for hook sinks and remote operators.
func (f *SimpleFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(failureJSON{
		Kind:    f.kind.Name(),
		Message: f.message,
		Path:    pathString(f.path),
		Fields:  stringifyAll(f.fields),
	})
}

// CompositeFailure aggregates an ordered collection of sub-failures.
type CompositeFailure struct {
	subs []Failure
	path tree.Path
}

var _ Failure = (*CompositeFailure)(nil)

// NewComposite constructs a composite failure from sub-failures in
// order.
func NewComposite(subs ...Failure) *CompositeFailure {
	copied := make([]Failure, len(subs))
	copy(copied, subs)
	return &CompositeFailure{subs: copied}
}

// Error summarizes the sub-failures.
func (f *CompositeFailure) Error() string {
	msgs := make([]string, len(f.subs))
	for i, s := range f.subs {
		msgs[i] = s.Error()
	}
	return fmt.Sprintf("%d sub-failures: %s", len(f.subs), strings.Join(msgs, "; "))
}

// Kind returns Composite.
func (f *CompositeFailure) Kind() *Kind {
	return Composite
}

// Path returns the stamped code path, or nil.
func (f *CompositeFailure) Path() tree.Path {
	return f.path
}

// Failures returns the sub-failures in order. Callers must not modify
// the returned slice.
func (f *CompositeFailure) Failures() []Failure {
	return f.subs
}

// MarshalJSON renders the composite with its sub-failures inline.
func (f *CompositeFailure) MarshalJSON() ([]byte, error) {
	subs := make([]json.RawMessage, 0, len(f.subs))
	for _, s := range f.subs {
		raw, err := json.Marshal(s)
		if err != nil {
			raw, _ = json.Marshal(s.Error())
		}
		subs = append(subs, raw)
	}
	return json.Marshal(failureJSON{
		Kind: Composite.Name(),
		Path: pathString(f.path),
		Subs: subs,
	})
}

// FailureEnvelope wraps a non-failure error (or a failure from another
// task) captured at a task boundary for delivery through the outcome
// channel. Handling scopes unwrap envelopes before clause matching, so
// the wrapping is invisible to clause authors.
type FailureEnvelope struct {
	err  error
	path tree.Path
}

var _ Failure = (*FailureEnvelope)(nil)

// NewEnvelope wraps err with the path at which it was captured.
func NewEnvelope(err error, path tree.Path) *FailureEnvelope {
	return &FailureEnvelope{err: err, path: path.Clone()}
}

// Error describes the wrapped error.
func (f *FailureEnvelope) Error() string {
	return "captured at " + f.path.String() + ": " + f.err.Error()
}

// Kind returns Envelope.
func (f *FailureEnvelope) Kind() *Kind {
	return Envelope
}

// Path returns the capture path.
func (f *FailureEnvelope) Path() tree.Path {
	return f.path
}

// Err returns the originally captured error.
func (f *FailureEnvelope) Err() error {
	return f.err
}

// Unwrap exposes the captured error to errors.Is / errors.As.
func (f *FailureEnvelope) Unwrap() error {
	return f.err
}

// MarshalJSON renders the envelope with the wrapped error inline.
func (f *FailureEnvelope) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal(f.err)
	if err != nil || string(inner) == "{}" {
		inner, _ = json.Marshal(f.err.Error())
	}
	return json.Marshal(failureJSON{
		Kind:    Envelope.Name(),
		Path:    pathString(f.path),
		Wrapped: inner,
	})
}

// failureJSON is the shared wire shape for all failure kinds.
type failureJSON struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message,omitempty"`
	Path    string            `json:"path,omitempty"`
	Fields  []string          `json:"fields,omitempty"`
	Subs    []json.RawMessage `json:"subs,omitempty"`
	Wrapped json.RawMessage   `json:"wrapped,omitempty"`
}

func pathString(p tree.Path) string {
	if p == nil {
		return ""
	}
	return p.String()
}

func stringifyAll(vs []any) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fmt.Sprint(v)
	}
	return out
}
