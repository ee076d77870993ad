package durable

// DispatchResult carries the serialized outcome of a dispatched unit back to
// the suspended caller. Failures are returned as typed errors, not encoded in
// the result.
type DispatchResult struct {
	Payload []byte
}

// Dispatcher is the bridge into the orchestration engine's durable-execution
// primitive. Implementations schedule the unit, suspend the calling logical
// task until the engine resumes it with a recorded result, and surface
// failures as DispatchTimeoutError, WorkerExecutionError or
// ConfigurationError.
//
// Retries are the engine's responsibility, driven entirely by the policy:
// implementations must not wrap the call in a retry loop of their own, or
// retry behavior would stop surviving process restarts.
//
// Engine-bound execution states (see core.ExecutionState) expose this
// capability; the interception hook discovers it with a type assertion.
type Dispatcher interface {
	ExecuteUnit(unitID UnitID, payload []byte, policy *ExecutionPolicy) (*DispatchResult, error)
}
