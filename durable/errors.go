package durable

import "fmt"

// ConfigurationError reports a missing or invalid piece of explicit
// configuration (policy fields, execution wiring). It is raised at
// construction or first use and is never retried.
type ConfigurationError struct {
	// Field names the offending configuration field.
	Field string
	// Reason describes why the value is unacceptable.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ResolutionError reports that a call arrived without a resolvable owning
// agent or operation identity. This indicates a wiring bug in the caller and
// is surfaced immediately rather than papered over with a placeholder.
type ResolutionError struct {
	Agent     string
	Operation string
	Reason    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve unit for agent %q operation %q: %s", e.Agent, e.Operation, e.Reason)
}

// DispatchTimeoutError reports that a dispatched unit did not complete within
// the policy timeout after the engine exhausted the configured retry budget.
type DispatchTimeoutError struct {
	Unit    UnitID
	Timeout string
}

func (e *DispatchTimeoutError) Error() string {
	return fmt.Sprintf("unit %s timed out after %s", e.Unit, e.Timeout)
}

// WorkerExecutionError reports that the real call failed at the worker. Kind
// carries the engine's failure type so callers can distinguish recoverable
// provider errors from programming errors.
type WorkerExecutionError struct {
	Unit    UnitID
	Kind    string
	Message string
}

func (e *WorkerExecutionError) Error() string {
	return fmt.Sprintf("unit %s failed at worker (%s): %s", e.Unit, e.Kind, e.Message)
}
