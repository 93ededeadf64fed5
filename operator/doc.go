// Package operator provides the interactive review collaborator used
// by the break-on-failure policy. When a raised failure matches the
// policy, all task scheduling pauses and the operator is asked whether
// propagation should continue or the raise should abort.
//
// Three implementations are provided:
//
//   - Auto: returns a fixed decision without interaction. The default
//     runtime operator is Auto(Continue), which keeps unattended runs
//     moving.
//   - Stdio: prints the failure on a terminal and prompts for a
//     choice.
//   - WebSocket: serves a remote review console; failures are sent as
//     JSON and the decision comes back over the socket.
//
// Inspect is only called while scheduling is globally paused, so
// implementations may block for as long as the human needs.
package operator
