// Package core defines the shared contracts and data structures of the Loom
// agent runtime: agents, events, sessions, content parts and the per-run
// execution scope (RunContext). Higher layers (flows, the runner, the durable
// dispatch integration) depend on this package only, keeping the runtime's
// surface small and provider-agnostic.
//
// The RunContext carries an optional ExecutionState describing the scope a run
// is embedded in. A run hosted inside a durable orchestration engine reports
// Durable() == true, which lets interception layers redirect side-effecting
// calls (such as model invocations) into the engine instead of executing them
// inline.
package core
