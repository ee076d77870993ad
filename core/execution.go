package core

// ExecutionState describes the execution scope hosting a run. It is a
// capability query, not a heuristic: code that needs to know whether it runs
// inside durable orchestrated execution asks the state instead of consulting
// global flags. Implementations bound to an orchestration engine typically
// expose further capabilities (such as dispatching durable units) through
// additional interfaces discovered by type assertion.
type ExecutionState interface {
	// Durable reports whether the run executes inside durable, replayable
	// orchestration. When true, side-effecting calls made by the run must be
	// redirected into the engine rather than executed inline.
	Durable() bool
}

// LocalExecution is the zero-capability execution state for runs outside any
// orchestration engine (local testing, plain servers). It never reports
// durability.
type LocalExecution struct{}

// Durable implements ExecutionState. Always false.
func (LocalExecution) Durable() bool { return false }
