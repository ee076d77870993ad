// Package loom provides a high-level façade over the runner and service
// abstractions (sessions, model providers & logging) for building agents whose
// model calls can be intercepted and dispatched into a durable orchestration
// engine. Most applications interact with this package by:
//  1. Creating a Loom via New() (optionally overriding the default in-memory services)
//  2. Registering one or more agents
//  3. Invoking agents asynchronously (Invoke) or synchronously (InvokeSync)
//
// The façade delegates execution to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; durable deployments supply an engine-bound execution state so that
// model calls are routed through the orchestration engine instead of being
// made inline.
package loom

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/logging"
	"github.com/loomlabs/loom/platform"
	"github.com/loomlabs/loom/runner"
	"github.com/loomlabs/loom/session"
)

// Options configures the Loom instance.
type Options struct {
	// EventBufferSize sets the channel buffer size for asynchronous invocations.
	// Larger buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// MaxModelCalls caps the number of model calls a single run may make,
	// guarding against runaway tool-calling loops. Zero keeps the runner
	// default.
	MaxModelCalls int

	// SessionStore persists sessions, state and event history (defaults to an
	// in-memory implementation if not provided).
	SessionStore core.SessionStore

	// Execution describes the scope hosting the runs. Leave nil for plain
	// local execution; supply an engine-bound state to route model calls
	// through a durable orchestration engine.
	Execution core.ExecutionState

	// Clock and IDs override the time and identifier providers for all runs.
	// Durable scopes supply deterministic providers backed by the engine.
	Clock platform.TimeProvider
	IDs   platform.IDProvider

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Loom is the high-level façade aggregating registered agents and shared services.
type Loom struct {
	opts Options

	mu      sync.RWMutex
	runners map[string]*runner.Runner
}

// New creates a new Loom instance with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Loom {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Loom{opts: opts, runners: make(map[string]*runner.Runner)}
}

// RegisterAgent makes an agent invocable by name. Registering a second agent
// under the same name replaces the first.
func (l *Loom) RegisterAgent(a core.Agent) {
	r := runner.New(a, func(o *runner.Options) {
		if l.opts.EventBufferSize > 0 {
			o.EventBufferSize = l.opts.EventBufferSize
		}
		if l.opts.MaxModelCalls > 0 {
			o.MaxModelCalls = l.opts.MaxModelCalls
		}
		o.SessionStore = l.opts.SessionStore
		o.Logger = l.opts.Logger
		o.Execution = l.opts.Execution
		o.Clock = l.opts.Clock
		o.IDs = l.opts.IDs
	})

	l.mu.Lock()
	l.runners[a.Name()] = r
	l.mu.Unlock()
}

func (l *Loom) runnerFor(agentName string) (*runner.Runner, error) {
	l.mu.RLock()
	r, ok := l.runners[agentName]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("agent %s not registered", agentName)
	}
	return r, nil
}

// Invoke starts an asynchronous invocation returning event & error channels.
func (l *Loom) Invoke(
	ctx context.Context,
	sessionID string,
	agentName string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	r, err := l.runnerFor(agentName)
	if err != nil {
		return "", nil, nil, err
	}
	return r.Run(ctx, sessionID, userContent)
}

// InvokeSync drives a run to completion on the calling goroutine, accumulating
// events, and returns the run ID. This is the entrypoint to use from workflow
// code, where spawning native goroutines is not allowed.
func (l *Loom) InvokeSync(
	ctx context.Context,
	sessionID string,
	agentName string,
	userContent core.Content,
) (string, []core.Event, error) {
	r, err := l.runnerFor(agentName)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	runID, err := r.RunSync(ctx, sessionID, userContent, func(ev core.Event) error {
		events = append(events, ev)
		return nil
	})
	return runID, events, err
}

// Cancel cancels an active asynchronous invocation of the named agent.
func (l *Loom) Cancel(agentName, runID string) error {
	r, err := l.runnerFor(agentName)
	if err != nil {
		return err
	}
	return r.Cancel(runID)
}
