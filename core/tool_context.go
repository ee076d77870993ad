package core

import (
	"context"
	"time"

	"github.com/loomlabs/loom/logging"
)

// ToolContext is the per-invocation scope handed to a tool. It exposes the
// surrounding run's state and accumulates EventActions the tool wants attached
// to its function-response event.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	actions        EventActions
}

// NewToolContext binds a tool invocation to the run that triggered it.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{runCtx: runCtx, functionCallID: functionCallID}
}

// Logger returns the run's logger.
func (tc *ToolContext) Logger() logging.Logger { return tc.runCtx.Logger() }

// Context returns the run's cancellation context.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// FunctionCallID returns the identifier of the function call being served.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// RunID returns the identifier of the enclosing run.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// SessionID returns the identifier of the enclosing session.
func (tc *ToolContext) SessionID() string { return tc.runCtx.SessionID }

// AgentName returns the name of the agent invoking the tool.
func (tc *ToolContext) AgentName() string { return tc.runCtx.GetAgentName() }

// Now returns the current time from the run's clock.
func (tc *ToolContext) Now() time.Time { return tc.runCtx.Now() }

// Execution returns the run's execution state (nil for plain local runs).
func (tc *ToolContext) Execution() ExecutionState { return tc.runCtx.Execution }

// GetState reads a value staged by this invocation, else from the run's
// staged or persisted state.
func (tc *ToolContext) GetState(key string) (any, bool) {
	if v, ok := tc.actions.StateDelta[key]; ok {
		return v, true
	}
	return tc.runCtx.GetState(key)
}

// SetState stages a state mutation in this invocation's actions. The function
// executor folds tool actions back into the run after the tool returns, so
// tools running in parallel never touch shared run state directly.
func (tc *ToolContext) SetState(key string, value any) {
	if tc.actions.StateDelta == nil {
		tc.actions.StateDelta = map[string]any{}
	}
	tc.actions.StateDelta[key] = value
}

// SessionHistory returns the full event history of the enclosing session.
func (tc *ToolContext) SessionHistory() []Event { return tc.runCtx.GetSessionHistory() }

// Escalate flags the tool result as an escalation request.
func (tc *ToolContext) Escalate() {
	escalate := true
	tc.actions.Escalate = &escalate
}

// Actions returns the actions accumulated during the tool invocation.
func (tc *ToolContext) Actions() EventActions { return tc.actions }
