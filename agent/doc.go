// Package agent contains first-class agent implementations and supporting
// utilities for building Loom agents. The package focuses on:
//
//  1. Base lifecycle + hierarchy plumbing (BaseAgent)
//  2. Model-centric conversational / tool-calling agent (ModelAgent)
//  3. Instruction resolution (static text or dynamic providers)
//
// Design principles:
//   - Minimal hidden global state - explicit wiring via Runner/RunContext
//   - Composability - agents can nest using SetSubAgents / FindAgent
//   - Extensibility - embed BaseAgent; only implement Run plus any custom API
//
// Execution Model:
//   - An agent's Run receives a *core.RunContext and delivers events
//     synchronously through its Emit callback before returning
//   - ModelAgent integrates with model, tool and flow packages; model call
//     hooks installed at construction can redirect its model invocations
//
// The package intentionally keeps persistence, model specifics and tool
// registry abstractions in their respective packages to avoid cyclic deps.
package agent
