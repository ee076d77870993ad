// Package temporal binds the durable dispatch layer to the Temporal workflow
// engine.
//
// On the orchestrating side, ExecutionState wraps a workflow.Context and
// implements both core.ExecutionState and durable.Dispatcher: each dispatched
// unit becomes a Temporal activity invocation whose timeout and retry policy
// come strictly from the caller's ExecutionPolicy. Workflow code stays
// deterministic; the providers in this package supply replay-safe time and
// identifier sources for run contexts hosted inside workflows.
//
// On the worker side, WorkerAdapter registers a dynamic activity so any unit
// named "agent.operation" is serviced without static per-agent registration.
// The worker resolves the concrete model from a bound factory or from a model
// registry, performs the real provider call outside the deterministic
// sandbox, and returns the serialized responses.
package temporal
