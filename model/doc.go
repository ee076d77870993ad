// Package model defines the provider-agnostic abstractions for driving
// language models inside Loom.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes JSON-serializable so they can cross the
//     boundary between an orchestrating run and a remote worker intact
//   - Support name-based construction through a Registry so workers can
//     rebuild a concrete model from the name carried in a dispatch payload
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agents, flows, dispatch) remain decoupled from
// vendor SDKs.
package model
