// Package failure defines the structured failure taxonomy raised and
// handled by plan code. A Failure is distinct from a generic Go error:
// failures participate in handling-scope matching and retry, generic
// errors never do.
//
// # Kinds
//
// Failure kinds form a subtype tree rooted at PlanFailure. The three
// built-in kinds are:
//
//   - Simple: an ad hoc failure with a message and payload fields
//   - Composite: an ordered aggregate of sub-failures
//   - Envelope: a non-failure error captured while crossing a task boundary
//
// Plan authors declare their own kinds under any existing kind:
//
//	var GraspLost = failure.NewKind("grasp-lost", failure.Simple)
//
// A handler clause declared for a kind also matches every kind below
// it in the subtype tree:
//
//	GraspLost.Is(failure.Simple)      // true
//	GraspLost.Is(failure.PlanFailure) // true
//
// # Values
//
// Failure values are immutable once constructed. The code path, when
// present, reflects the dynamic nesting at the moment the failure was
// raised, so paths are supplied at construction time:
//
//	f := failure.New(GraspLost, "gripper slipped", "object", objID)
//
// # Coercion
//
// Coerce turns the raw datum handed to a raise operation into a
// Failure value: an existing Failure passes through unchanged (and
// must carry no extra arguments), a *Kind constructs a value of that
// kind, and a string becomes the message template of a Simple failure.
// All other shapes are configuration errors.
package failure
