package durable

import (
	"fmt"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/flow"
	"github.com/loomlabs/loom/logging"
)

// HookOptions configures an InterceptionHook.
type HookOptions struct {
	// Logger receives dispatch logs. Defaults to NoOpLogger.
	Logger logging.Logger
	// Metrics records dispatch outcomes. Nil disables instrumentation.
	Metrics *Metrics
}

// InterceptionHook is the flow.ModelCallHook that redirects model calls into
// the orchestration engine. Outside durable execution it proceeds without
// touching the call; inside, it resolves the unit identifier, dispatches
// through the execution state's Dispatcher capability and substitutes the
// recorded responses so the provider is never invoked from orchestrating
// code.
//
// One hook instance is safe for concurrent use: the policy is read-only and
// all per-call state lives on the stack.
type InterceptionHook struct {
	policy  *ExecutionPolicy
	logger  logging.Logger
	metrics *Metrics
}

// NewInterceptionHook builds a hook around a fully populated policy. An
// absent or invalid policy fails here, before any agent runs.
func NewInterceptionHook(policy *ExecutionPolicy, optFns ...func(o *HookOptions)) (*InterceptionHook, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	opts := HookOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InterceptionHook{policy: policy, logger: opts.Logger, metrics: opts.Metrics}, nil
}

// Intercept implements flow.ModelCallHook.
func (h *InterceptionHook) Intercept(runCtx *core.RunContext, call *flow.ModelCall) (flow.Decision, error) {
	exec := runCtx.Execution
	if exec == nil || !exec.Durable() {
		return flow.Proceed(), nil
	}

	unitID, err := Resolve(call.Agent, OpGenerateContent)
	if err != nil {
		return flow.Decision{}, err
	}

	dispatcher, ok := exec.(Dispatcher)
	if !ok {
		return flow.Decision{}, &ConfigurationError{
			Field:  "execution",
			Reason: fmt.Sprintf("durable execution state %T does not expose a dispatcher", exec),
		}
	}

	var modelName string
	if call.Model != nil {
		modelName = call.Model.Info().Name
	}

	request := call.Request
	data, err := EncodeCallPayload(&CallPayload{
		Agent:     call.Agent,
		Operation: OpGenerateContent,
		Model:     modelName,
		Request:   &request,
	})
	if err != nil {
		return flow.Decision{}, err
	}

	h.logger.Debug("durable.dispatch.start", "unit", string(unitID), "model", modelName)

	// runCtx.Now is replay-deterministic inside durable execution.
	start := runCtx.Now()
	result, err := dispatcher.ExecuteUnit(unitID, data, h.policy)
	h.metrics.ObserveDispatch(unitID, err, runCtx.Now().Sub(start))
	if err != nil {
		h.logger.Error("durable.dispatch.failed", "unit", string(unitID), "error", err.Error())
		return flow.Decision{}, err
	}

	responses, err := DecodeResultPayload(result.Payload)
	if err != nil {
		return flow.Decision{}, err
	}

	h.logger.Debug("durable.dispatch.substituted", "unit", string(unitID), "responses", len(responses))
	return flow.Substitute(responses...), nil
}
