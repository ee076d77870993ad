package flow

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/tool"
)

// FunctionExecutor executes a batch of function/tool calls and emits one
// function response event per incoming call through the RunContext.
// Implementations must:
//   - Respect runCtx.Context cancellation
//   - Never panic (recover internally and surface errors as response events)
//   - Fold ToolContext accumulated actions into the emitted events
//
// Execute returns the last emitted event so flows can decide whether another
// model turn is needed.
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agent FlowAgent, toolRegistry map[string]tool.Tool, fnCalls []core.FunctionCall) (*core.Event, error)
}

// FunctionExecutorConfig configures the default executor. Results are always
// emitted in original call order.
type FunctionExecutorConfig struct {
	MaxParallel    int  // 0 or <1 => no explicit limit (len(fnCalls))
	LogStartEvents bool // log a start line per function
}

// functionExecutor is the default implementation. When the run executes
// inside an orchestration scope (runCtx.Execution reports durable) all calls
// run sequentially on the calling goroutine; otherwise calls run in parallel
// and results are emitted from the calling goroutine once collected.
type functionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewFunctionExecutor constructs a new executor with the given config.
func NewFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &functionExecutor{cfg: cfg}
}

func (e *functionExecutor) Execute(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
) (*core.Event, error) {
	n := len(fnCalls)
	if n == 0 {
		return nil, nil
	}

	sequential := n == 1 || (runCtx.Execution != nil && runCtx.Execution.Durable())
	if sequential {
		return e.executeSequential(runCtx, agent, toolRegistry, fnCalls)
	}
	return e.executeParallel(runCtx, agent, toolRegistry, fnCalls)
}

func (e *functionExecutor) executeSequential(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
) (*core.Event, error) {
	var lastEvent *core.Event
	for _, fc := range fnCalls {
		if err := runCtx.Context.Err(); err != nil {
			return lastEvent, err
		}
		toolCtx, respEv := e.runOne(runCtx, agent, toolRegistry, fc)
		ev, err := e.emit(runCtx, toolCtx, respEv)
		if err != nil {
			return lastEvent, err
		}
		lastEvent = ev
	}
	return lastEvent, nil
}

func (e *functionExecutor) executeParallel(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
) (*core.Event, error) {
	n := len(fnCalls)
	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	type fnResult struct {
		toolCtx *core.ToolContext
		event   core.Event
		done    bool
	}
	results := make([]fnResult, n)

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i := range fnCalls {
		if runCtx.Context.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()
			if runCtx.Context.Err() != nil {
				return
			}
			toolCtx, respEv := e.runOne(runCtx, agent, toolRegistry, fc)
			results[idx] = fnResult{toolCtx: toolCtx, event: respEv, done: true}
		}(i, fnCalls[i])
	}
	wg.Wait()

	// Emission happens on this goroutine so run state stays single-writer.
	var lastEvent *core.Event
	for i := range results {
		if !results[i].done {
			continue
		}
		ev, err := e.emit(runCtx, results[i].toolCtx, results[i].event)
		if err != nil {
			return lastEvent, err
		}
		lastEvent = ev
	}

	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agent.GetName(),
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
	return lastEvent, nil
}

// runOne executes a single tool call with panic recovery and builds its
// response event. Emission is left to the caller.
func (e *functionExecutor) runOne(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fc core.FunctionCall,
) (*core.ToolContext, core.Event) {
	toolCtx := core.NewToolContext(runCtx, fc.ID)
	if e.cfg.LogStartEvents {
		runCtx.LogInfo(
			"agent.function.start",
			"agent", agent.GetName(),
			"function", fc.Name,
			"function_call_id", fc.ID,
		)
	}

	start := time.Now()
	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				runCtx.LogError("agent.function.panic", "agent", agent.GetName(), "function", fc.Name, "recover", r)
			}
		}()
		result, err = executeTool(toolRegistry, toolCtx, fc.Name, fc.Arguments)
	}()

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agent.GetName(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	respEv := core.NewFunctionResponseEvent(agent.GetName(), fc.ID, fc.Name, result, err)
	runCtx.StampEvent(&respEv)
	return toolCtx, respEv
}

// emit folds the tool's accumulated actions into the run and the event, then
// delivers it.
func (e *functionExecutor) emit(runCtx *core.RunContext, toolCtx *core.ToolContext, respEv core.Event) (*core.Event, error) {
	actions := toolCtx.Actions()
	if len(actions.StateDelta) > 0 {
		runCtx.ApplyStateDelta(actions.StateDelta)
	}
	respEv.Actions.Escalate = actions.Escalate
	if err := runCtx.EmitEvent(respEv); err != nil {
		return nil, err
	}
	return &respEv, nil
}

// panicError converts a recovered panic value to an error without pulling external dependencies.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool centralizes tool lookup & execution using the agent's tool registry.
func executeTool(toolRegistry map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string) (any, error) {
	impl, ok := toolRegistry[toolName]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", toolName)
	}

	var argMap map[string]any
	if args == "" {
		argMap = map[string]any{}
	} else if err := json.Unmarshal([]byte(args), &argMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}

	return impl.Call(toolCtx, argMap)
}
