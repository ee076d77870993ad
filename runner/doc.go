// Package runner coordinates agent execution: it resolves sessions, creates
// run contexts, applies event side-effects and persists history.
//
// Two entry points are provided. RunSync drives an agent to completion on the
// calling goroutine, delivering events through a handler as they are emitted;
// it is the only entry point usable inside deterministic orchestration
// scopes, which forbid native concurrency. Run wraps RunSync in a goroutine
// and exposes the familiar channel-based streaming interface for servers and
// interactive clients.
package runner
