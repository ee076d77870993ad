package flow

import (
	"fmt"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/model"
)

// BaseFlow is a minimal single-agent flow implementation that supports a
// request -> LLM -> (optional tool loop) cycle with pluggable pre/post
// processors and model call hooks.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	hooks              []ModelCallHook
	executor           FunctionExecutor
}

// NewBaseFlow creates a new basic single-agent flow.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
		executor:           NewFunctionExecutor(FunctionExecutorConfig{}),
	}
}

// AddRequestProcessor appends a request processor; registration order defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed on each final model response.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// AddModelCallHook appends a hook consulted before every model invocation.
func (f *BaseFlow) AddModelCallHook(hook ModelCallHook) {
	f.hooks = append(f.hooks, hook)
}

// SetFunctionExecutor replaces the default function executor.
func (f *BaseFlow) SetFunctionExecutor(executor FunctionExecutor) {
	f.executor = executor
}

// Execute runs model turns until a final response is produced. A turn that
// ends in function responses triggers another model turn so the model can
// react to tool results.
func (f *BaseFlow) Execute(runCtx *core.RunContext) error {
	for {
		last, err := f.runTurn(runCtx)
		if err != nil {
			f.emitError(runCtx, err)
			return err
		}
		if last == nil {
			return nil
		}
		if len(last.GetFunctionResponses()) > 0 {
			continue
		}
		return nil
	}
}

// emitError converts an internal error to a system event. Emission failures
// at this point are logged and dropped; the original error is what callers see.
func (f *BaseFlow) emitError(runCtx *core.RunContext, err error) {
	ev := runCtx.NewEvent("system")
	msg := err.Error()
	ev.ErrorMessage = &msg
	if emitErr := runCtx.EmitEvent(ev); emitErr != nil {
		runCtx.LogError("flow.error.emit_failed", "error", emitErr.Error())
	}
}

// runTurn performs one model turn (including any tool executions) and returns
// the last emitted event. A nil event signals termination with nothing emitted.
func (f *BaseFlow) runTurn(runCtx *core.RunContext) (*core.Event, error) {
	// Refresh session snapshot so request processors see the latest
	// conversation, including tool responses from the previous turn.
	if runCtx.SessionStore != nil {
		if err := runCtx.RefreshSession(); err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
	}

	req := new(model.Request)
	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			return nil, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	if f.agent.IsFunctionCallingEnabled() {
		if tools := f.agent.GetTools(); len(tools) > 0 {
			defs := make([]model.ToolDefinition, 0, len(tools))
			for _, t := range tools {
				defs = append(defs, model.ToolDefinition{
					Type: "function",
					Function: model.FunctionDefinition{
						Name:        t.Name(),
						Description: t.Description(),
						Parameters:  t.Parameters(),
					},
				})
			}
			req.Tools = defs
		}
	}
	req.Stream = f.agent.IsStreamingEnabled()

	if err := runCtx.Limiter.Increment(); err != nil {
		return nil, err
	}

	responses, err := f.generate(runCtx, req)
	if err != nil {
		return nil, err
	}

	var lastEvent *core.Event
	for i := range responses {
		resp := &responses[i]
		for _, processor := range f.responseProcessors {
			if err := processor.ProcessResponse(runCtx, resp, f.agent); err != nil {
				return nil, fmt.Errorf("response processor %s failed: %w", processor.Name(), err)
			}
		}

		ev := runCtx.NewEvent(f.agent.GetName())
		ev.Content = &resp.Content

		fnCalls := ev.GetFunctionCalls()
		if len(fnCalls) == 0 {
			if key := f.agent.GetOutputKey(); key != "" {
				if text := ev.Text(); text != "" {
					runCtx.SetState(key, text)
				}
			}
			complete := true
			ev.TurnComplete = &complete
		}

		lastEvent = &ev
		if err := runCtx.EmitEvent(ev); err != nil {
			return nil, err
		}

		if len(fnCalls) > 0 {
			last, err := f.executor.Execute(runCtx, f.agent, f.agent.GetTools(), fnCalls)
			if err != nil {
				return nil, err
			}
			if last != nil {
				lastEvent = last
			}
		}
	}

	return lastEvent, nil
}

// generate resolves one model invocation: hooks are consulted first, and the
// first substituting decision replaces the provider call entirely. On the
// direct path, streaming partials are forwarded as partial events and the
// final responses are collected.
func (f *BaseFlow) generate(runCtx *core.RunContext, req *model.Request) ([]model.Response, error) {
	llm := f.agent.GetLLM()

	call := &ModelCall{Agent: f.agent.GetName(), Model: llm, Request: *req}
	for _, hook := range f.hooks {
		decision, err := hook.Intercept(runCtx, call)
		if err != nil {
			return nil, err
		}
		if responses, ok := decision.Substituted(); ok {
			runCtx.LogDebug("flow.model.substituted", "agent", f.agent.GetName(), "responses", len(responses))
			return responses, nil
		}
	}

	respCh, errCh := llm.Generate(runCtx.Context, *req)

	var finals []model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-runCtx.Context.Done():
			return nil, runCtx.Context.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				// Partials bypass EmitEvent so the pending state delta stays
				// attached to the final event.
				ev := runCtx.NewEvent(f.agent.GetName())
				ev.Content = &resp.Content
				partial := true
				ev.Partial = &partial
				if err := runCtx.Emit(ev); err != nil {
					return nil, err
				}
				continue
			}
			finals = append(finals, resp)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("model generation failed: %w", err)
			}
		}
	}

	if len(finals) == 0 {
		return nil, fmt.Errorf("model %s produced no final response", llm.Info().Name)
	}
	return finals, nil
}
