package plan

import (
	"context"
	"testing"

	"github.com/planfall/plankit/failure"
	"github.com/planfall/plankit/hooks"
)

// Kinds shared by the package tests.
var (
	graspLost = failure.NewKind("plan-test-grasp-lost", nil)
	graspSlip = failure.NewKind("plan-test-grasp-slip", graspLost)
	navStuck  = failure.NewKind("plan-test-nav-stuck", nil)
	lowPower  = failure.NewKind("plan-test-low-power", nil)
)

func newTestRuntime(rec *hooks.Recorder) *Runtime {
	reg := hooks.NewRegistry()
	if rec != nil {
		reg.Register(rec)
	}
	return NewRuntime(RuntimeConfig{Hooks: reg})
}

// runInTask runs body as a spawned task and joins it, the way plan
// code executes in practice.
func runInTask(t *testing.T, rt *Runtime, body Body) (any, error) {
	t.Helper()
	ctx := WithRuntime(context.Background(), rt)
	return Spawn(ctx, "test-task", body).Join(ctx)
}

// escapedKind unwraps the envelope a joined task outcome arrives in
// and returns the innermost failure.
func escapedKind(t *testing.T, err error) failure.Failure {
	t.Helper()
	f, ok := failure.As(err)
	if !ok {
		t.Fatalf("expected a failure outcome, got %v", err)
	}
	return unwrapForMatch(f)
}
