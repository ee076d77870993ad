package flow

import (
	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/model"
)

// ModelCall describes one impending model invocation: which agent wants to
// generate, against which model, with what request. Hooks receive the call
// before the provider client is touched.
type ModelCall struct {
	// Agent is the name of the agent about to call the model.
	Agent string
	// Model is the live model instance the flow would invoke.
	Model model.Model
	// Request is the fully assembled request (instructions, contents, tools).
	Request model.Request
}

// Decision is a hook's verdict on a model call: either let the flow proceed
// to the provider, or substitute responses obtained elsewhere. Construct via
// Proceed or Substitute.
type Decision struct {
	substituted bool
	responses   []model.Response
}

// Proceed lets the flow invoke the model directly.
func Proceed() Decision { return Decision{} }

// Substitute replaces the model invocation with the given responses. The flow
// feeds them through the same response processing and event emission path a
// direct invocation would take.
func Substitute(responses ...model.Response) Decision {
	return Decision{substituted: true, responses: responses}
}

// Substituted returns the replacement responses and whether the decision
// substitutes the call.
func (d Decision) Substituted() ([]model.Response, bool) {
	return d.responses, d.substituted
}

// ModelCallHook intercepts model invocations made by a flow. Hooks are
// consulted in registration order before every model call; the first hook
// returning a substituting Decision short-circuits the rest and the provider
// is never invoked for that call. A hook error aborts the turn.
//
// Hooks must be side-effect free with respect to the RunContext beyond
// reading it: event emission stays with the flow so substituted and direct
// responses are indistinguishable downstream.
type ModelCallHook interface {
	Intercept(runCtx *core.RunContext, call *ModelCall) (Decision, error)
}

// ModelCallHookFunc adapts a function to the ModelCallHook interface.
type ModelCallHookFunc func(runCtx *core.RunContext, call *ModelCall) (Decision, error)

// Intercept implements ModelCallHook.
func (f ModelCallHookFunc) Intercept(runCtx *core.RunContext, call *ModelCall) (Decision, error) {
	return f(runCtx, call)
}
