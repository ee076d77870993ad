// Package durable contains the engine-agnostic interception and dispatch
// layer that redirects agent model calls into a workflow-orchestration
// engine as durable units of work.
//
// The pieces fit together as follows: an InterceptionHook registered on a
// flow fires before every model call. When the run's execution state reports
// durable execution, the hook resolves a deterministic unit identifier from
// the agent and operation names, serializes the model request, and hands it
// to the execution state's Dispatcher. The dispatcher (implemented by an
// engine binding such as package temporal) schedules the unit on a worker
// and returns the recorded result, which the hook decodes and substitutes
// for the inline call. Outside durable execution the hook is a pure
// passthrough.
//
// Policies are always explicit: there is no default ExecutionPolicy, and a
// missing or invalid policy fails construction or dispatch with a
// ConfigurationError rather than falling back to a guessed value.
package durable
