// Package hooks provides best-effort observer callbacks fired at the
// failure-protocol lifecycle points: a raise, the begin/end of a
// handling scope, a handled or rethrown failure, and top-level plan
// definition.
//
// Hooks exist for tracing and monitoring only. The Registry guarantees
// that observers can never alter control flow: every callback runs
// synchronously but inside a recover, and a panicking observer is
// reported to the fault handler and otherwise ignored. Dispatch with
// no subscribers is a no-op.
//
// # Usage
//
// Register observers in order; dispatch preserves that order:
//
//	reg := hooks.NewRegistry()
//	reg.Register(myObserver)
//
// Observer implementations that only care about a few events can embed
// BaseObserver and override what they need.
//
// # NATS Mirror
//
// NATSObserver republishes hook events as JSON onto a NATS subject
// tree (plankit.hooks.fail, plankit.hooks.scope.begin, ...), so
// external monitors can follow a run without linking against the
// interpreter:
//
//	obs, err := hooks.NewNATSObserver(hooks.DefaultNATSConfig())
//	reg.Register(obs)
package hooks
