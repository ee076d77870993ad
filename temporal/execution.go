package temporal

import (
	"errors"
	"fmt"

	"github.com/loomlabs/loom/durable"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ExecutionState marks a run as durably orchestrated and carries the dispatch
// capability into it. Constructed once per workflow run and set on the run
// context (via runner.Options.Execution or directly); the interception hook
// discovers the Dispatcher side with a type assertion.
type ExecutionState struct {
	ctx workflow.Context
}

// NewExecutionState wraps a workflow context. Call from workflow code only.
func NewExecutionState(ctx workflow.Context) *ExecutionState {
	return &ExecutionState{ctx: ctx}
}

// Durable implements core.ExecutionState.
func (*ExecutionState) Durable() bool { return true }

// ExecuteUnit implements durable.Dispatcher. The unit runs as a Temporal
// activity whose options come strictly from the policy; there is no retry
// loop here, since retries belong to the engine so they survive process
// restarts. The call suspends the workflow until the engine resumes it with
// the recorded result.
func (s *ExecutionState) ExecuteUnit(unitID durable.UnitID, payload []byte, policy *durable.ExecutionPolicy) (*durable.DispatchResult, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	opts := workflow.ActivityOptions{
		StartToCloseTimeout: policy.Timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    policy.Backoff.InitialInterval,
			BackoffCoefficient: policy.Backoff.Coefficient,
			MaximumInterval:    policy.Backoff.MaxInterval,
			MaximumAttempts:    int32(policy.MaxAttempts),
		},
	}
	ctx := workflow.WithActivityOptions(s.ctx, opts)

	var result []byte
	if err := workflow.ExecuteActivity(ctx, unitID.String(), payload).Get(ctx, &result); err != nil {
		return nil, mapDispatchError(unitID, policy, err)
	}
	return &durable.DispatchResult{Payload: result}, nil
}

// mapDispatchError translates an activity failure into the dispatch error
// taxonomy so callers can tell timeouts, worker failures and cancellations
// apart with errors.As.
func mapDispatchError(unit durable.UnitID, policy *durable.ExecutionPolicy, err error) error {
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return &durable.DispatchTimeoutError{Unit: unit, Timeout: policy.Timeout.String()}
	}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return &durable.WorkerExecutionError{Unit: unit, Kind: appErr.Type(), Message: appErr.Message()}
	}

	var canceledErr *temporal.CanceledError
	if errors.As(err, &canceledErr) {
		return &durable.WorkerExecutionError{Unit: unit, Kind: "Canceled", Message: err.Error()}
	}

	return &durable.WorkerExecutionError{Unit: unit, Kind: fmt.Sprintf("%T", err), Message: err.Error()}
}
