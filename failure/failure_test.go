package failure

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/planfall/plankit/tree"
)

var (
	testGraspLost = NewKind("test-grasp-lost", Simple)
	testGraspSlip = NewKind("test-grasp-slip", testGraspLost)
	testNavStuck  = NewKind("test-nav-stuck", nil)
)

func TestKindIs(t *testing.T) {
	tests := []struct {
		name string
		kind *Kind
		of   *Kind
		want bool
	}{
		{"self", testGraspLost, testGraspLost, true},
		{"direct parent", testGraspLost, Simple, true},
		{"root", testGraspLost, PlanFailure, true},
		{"grandchild", testGraspSlip, Simple, true},
		{"sibling", testGraspLost, Composite, false},
		{"nil parent defaults to root", testNavStuck, PlanFailure, true},
		{"parent is not child", Simple, testGraspLost, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Is(tt.of); got != tt.want {
				t.Errorf("%s.Is(%s) = %v, want %v", tt.kind, tt.of, got, tt.want)
			}
		})
	}
}

func TestLookupKind(t *testing.T) {
	k, ok := LookupKind("test-grasp-lost")
	if !ok || k != testGraspLost {
		t.Errorf("LookupKind = (%v, %v)", k, ok)
	}
	if _, ok := LookupKind("no-such-kind"); ok {
		t.Error("LookupKind found an unregistered kind")
	}
}

func TestNewKindDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate NewKind did not panic")
		}
	}()
	NewKind("test-grasp-lost", nil)
}

func TestCoerceExistingFailure(t *testing.T) {
	f := New(testGraspLost, "gripper slipped")

	got, err := Coerce(f, nil, tree.NewPath("deliver"))
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got != Failure(f) {
		t.Error("existing failure was not passed through unchanged")
	}
	if got.Path() != nil {
		t.Errorf("existing failure was stamped with path %v", got.Path())
	}

	// Extra args must be rejected.
	if _, err := Coerce(f, []any{"extra"}, nil); !errors.Is(err, ErrExtraArgs) {
		t.Errorf("Coerce with extra args = %v, want ErrExtraArgs", err)
	}
}

func TestCoerceKind(t *testing.T) {
	at := tree.NewPath("deliver", "grasp")
	got, err := Coerce(testGraspLost, []any{"object", 42}, at)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got.Kind() != testGraspLost {
		t.Errorf("Kind = %v, want %v", got.Kind(), testGraspLost)
	}
	if !got.Path().Equal(at) {
		t.Errorf("Path = %v, want %v", got.Path(), at)
	}
	sf, ok := got.(*SimpleFailure)
	if !ok {
		t.Fatalf("Coerce returned %T", got)
	}
	if len(sf.Fields()) != 2 || sf.Fields()[1] != 42 {
		t.Errorf("Fields = %v", sf.Fields())
	}
}

func TestCoerceTemplate(t *testing.T) {
	got, err := Coerce("no route to %s", []any{"kitchen"}, tree.NewPath("nav"))
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got.Kind() != Simple {
		t.Errorf("Kind = %v, want Simple", got.Kind())
	}
	if got.Error() != "no route to kitchen" {
		t.Errorf("Error() = %q", got.Error())
	}
}

func TestCoerceBare(t *testing.T) {
	at := tree.NewPath("nav")
	got, err := Coerce(nil, nil, at)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got.Kind() != Simple || !got.Path().Equal(at) {
		t.Errorf("bare failure = kind %v at %v", got.Kind(), got.Path())
	}
}

func TestCoerceRejectsOtherShapes(t *testing.T) {
	for _, datum := range []any{42, struct{}{}, errors.New("plain"), []string{"x"}} {
		if _, err := Coerce(datum, nil, nil); !errors.Is(err, ErrBadDatum) {
			t.Errorf("Coerce(%T) = %v, want ErrBadDatum", datum, err)
		}
	}
	if _, err := Coerce(nil, []any{"orphan"}, nil); !errors.Is(err, ErrBadDatum) {
		t.Errorf("Coerce(nil, args) = %v, want ErrBadDatum", err)
	}
}

func TestEnvelopeUnwrap(t *testing.T) {
	inner := New(testGraspLost, "dropped")
	env := NewEnvelope(inner, tree.NewPath("deliver", "grasp"))

	if env.Kind() != Envelope {
		t.Errorf("Kind = %v", env.Kind())
	}
	if env.Err() != Failure(inner) {
		t.Error("Err() lost the captured failure")
	}

	// errors.As sees through the envelope.
	var sf *SimpleFailure
	if !errors.As(env, &sf) || sf != inner {
		t.Error("errors.As did not reach the wrapped failure")
	}
}

func TestIsFailure(t *testing.T) {
	if !IsFailure(New(testGraspLost, "x")) {
		t.Error("IsFailure(failure) = false")
	}
	if !IsFailure(fmt.Errorf("wrapped: %w", Newf("inner"))) {
		t.Error("IsFailure did not see through wrapping")
	}
	if IsFailure(errors.New("plain")) {
		t.Error("IsFailure(generic error) = true")
	}
}

func TestCompositeError(t *testing.T) {
	c := NewComposite(Newf("first"), Newf("second"))
	if len(c.Failures()) != 2 {
		t.Fatalf("Failures() = %d items", len(c.Failures()))
	}
	msg := c.Error()
	if !strings.Contains(msg, "2 sub-failures") || !strings.Contains(msg, "second") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestMarshalJSON(t *testing.T) {
	f, _ := Coerce(testGraspLost, []any{"object", 7}, tree.NewPath("deliver", "grasp"))
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["kind"] != "test-grasp-lost" {
		t.Errorf("kind = %v", decoded["kind"])
	}
	if decoded["path"] != "/deliver/grasp" {
		t.Errorf("path = %v", decoded["path"])
	}

	env := NewEnvelope(errors.New("socket closed"), tree.NewPath("io"))
	raw, err = json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal envelope failed: %v", err)
	}
	if !strings.Contains(string(raw), "socket closed") {
		t.Errorf("envelope JSON = %s", raw)
	}
}
