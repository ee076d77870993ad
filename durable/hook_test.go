package durable

import (
	"context"
	"testing"
	"time"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/flow"
	"github.com/loomlabs/loom/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDurableState is an engine-bound execution state for tests: durable and
// dispatch-capable, recording every dispatch it receives.
type fakeDurableState struct {
	calls  []fakeDispatch
	result *DispatchResult
	err    error
}

type fakeDispatch struct {
	unit    UnitID
	payload []byte
	policy  *ExecutionPolicy
}

func (*fakeDurableState) Durable() bool { return true }

func (f *fakeDurableState) ExecuteUnit(unitID UnitID, payload []byte, policy *ExecutionPolicy) (*DispatchResult, error) {
	f.calls = append(f.calls, fakeDispatch{unit: unitID, payload: payload, policy: policy})
	return f.result, f.err
}

// durableNoDispatch is durable but lacks the Dispatcher capability.
type durableNoDispatch struct{}

func (durableNoDispatch) Durable() bool { return true }

func hookRunContext(exec core.ExecutionState) *core.RunContext {
	sess := core.NewSession("sess-1")
	runCtx := core.NewRunContext(
		context.Background(),
		"sess-1", "run-1",
		core.AgentInfo{Name: "Summarizer", Type: "model"},
		core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "summarize"}}},
		10,
		func(core.Event) error { return nil },
		sess,
		nil,
		nil,
	)
	runCtx.Execution = exec
	return runCtx
}

func testHook(t *testing.T, optFns ...func(o *HookOptions)) *InterceptionHook {
	t.Helper()
	policy, err := NewExecutionPolicy(60*time.Second, 3, BackoffPolicy{InitialInterval: time.Second, Coefficient: 2.0})
	require.NoError(t, err)
	h, err := NewInterceptionHook(policy, optFns...)
	require.NoError(t, err)
	return h
}

func summarizerCall() *flow.ModelCall {
	return &flow.ModelCall{
		Agent: "Summarizer",
		Model: model.NewMockModel("claude-sonnet-4-20250514", "anthropic"),
		Request: model.Request{
			Instructions: "Summarize the document.",
			Contents:     []core.Content{{Role: "user", Parts: []core.Part{core.TextPart{Text: "summarize"}}}},
		},
	}
}

func TestNewInterceptionHook_RejectsInvalidPolicy(t *testing.T) {
	_, err := NewInterceptionHook(nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewInterceptionHook(&ExecutionPolicy{Timeout: time.Minute})
	require.ErrorAs(t, err, &cfgErr)
}

func TestInterceptionHook_PassthroughOutsideDurableExecution(t *testing.T) {
	h := testHook(t)

	for _, exec := range []core.ExecutionState{nil, core.LocalExecution{}} {
		decision, err := h.Intercept(hookRunContext(exec), summarizerCall())
		require.NoError(t, err)
		_, substituted := decision.Substituted()
		assert.False(t, substituted)
	}
}

func TestInterceptionHook_DispatchesInsideDurableExecution(t *testing.T) {
	resultData, err := EncodeResultPayload([]model.Response{{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: "a summary"}}},
		FinishReason: "stop",
	}})
	require.NoError(t, err)

	state := &fakeDurableState{result: &DispatchResult{Payload: resultData}}
	h := testHook(t)

	decision, err := h.Intercept(hookRunContext(state), summarizerCall())
	require.NoError(t, err)

	responses, substituted := decision.Substituted()
	require.True(t, substituted, "durable calls must never reach the provider inline")
	require.Len(t, responses, 1)
	text, ok := responses[0].Content.Parts[0].(core.TextPart)
	require.True(t, ok)
	assert.Equal(t, "a summary", text.Text)

	require.Len(t, state.calls, 1)
	assert.Equal(t, UnitID("Summarizer.generate_content"), state.calls[0].unit)
	assert.Equal(t, 3, state.calls[0].policy.MaxAttempts)

	// The serialized request must carry the model name for worker-side
	// reconstruction.
	payload, err := DecodeCallPayload(state.calls[0].payload)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", payload.Model)
	assert.Equal(t, "Summarize the document.", payload.Request.Instructions)
}

func TestInterceptionHook_EmptyAgentNeverReachesDispatcher(t *testing.T) {
	state := &fakeDurableState{}
	h := testHook(t)

	call := summarizerCall()
	call.Agent = ""
	_, err := h.Intercept(hookRunContext(state), call)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Empty(t, state.calls)
}

func TestInterceptionHook_DurableStateWithoutDispatcher(t *testing.T) {
	h := testHook(t)

	_, err := h.Intercept(hookRunContext(durableNoDispatch{}), summarizerCall())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "execution", cfgErr.Field)
}

func TestInterceptionHook_DispatchErrorsPropagateTyped(t *testing.T) {
	state := &fakeDurableState{err: &WorkerExecutionError{Unit: "Summarizer.generate_content", Kind: "ProviderError", Message: "boom"}}
	h := testHook(t)

	_, err := h.Intercept(hookRunContext(state), summarizerCall())
	var workerErr *WorkerExecutionError
	require.ErrorAs(t, err, &workerErr)
	assert.Equal(t, "ProviderError", workerErr.Kind)

	state.err = &DispatchTimeoutError{Unit: "Summarizer.generate_content", Timeout: "60s"}
	_, err = h.Intercept(hookRunContext(state), summarizerCall())
	var timeoutErr *DispatchTimeoutError
	require.ErrorAs(t, err, &timeoutErr, "timeouts must stay distinguishable from worker errors")
}
