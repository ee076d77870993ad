package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/logging"
	"github.com/loomlabs/loom/platform"
	"github.com/loomlabs/loom/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for the async Run interface.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run.
	MaxModelCalls int
	// SessionStore persists sessions, state and event history.
	SessionStore core.SessionStore
	// Logger receives structured runner and agent logs.
	Logger logging.Logger

	// Execution describes the scope hosting the runs (nil means local).
	Execution core.ExecutionState
	// Clock overrides the time provider for all runs (nil = platform default).
	Clock platform.TimeProvider
	// IDs overrides the identifier provider for all runs (nil = platform default).
	IDs platform.IDProvider
}

// Runner coordinates agent execution. Public methods are safe for concurrent
// use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int

	sessionStore core.SessionStore
	logger       logging.Logger

	execution core.ExecutionState
	clock     platform.TimeProvider
	ids       platform.IDProvider

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		sessionStore:    opts.SessionStore,
		logger:          opts.Logger,
		execution:       opts.Execution,
		clock:           opts.Clock,
		ids:             opts.IDs,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// newID returns a run identifier from the configured provider.
func (r *Runner) newID() string {
	if r.ids != nil {
		return r.ids()
	}
	return platform.NewID()
}

// RunSync drives one agent run to completion on the calling goroutine. Every
// emitted event is persisted (actions applied, non-partials appended to the
// session) and then passed to handler before the agent continues; a handler
// error aborts the run. Returns the run ID.
func (r *Runner) RunSync(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
	handler func(core.Event) error,
) (string, error) {
	runID := r.newID()
	return runID, r.run(ctx, runID, sessionID, userContent, handler)
}

// Run starts an asynchronous invocation and streams events over channels.
// Both channels are closed when the run finishes; at most one error is sent.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	runID := r.newID()

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	go func() {
		defer func() {
			close(eventsCh)
			close(errorsCh)
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
		}()

		err := r.run(ctx, runID, sessionID, userContent, func(ev core.Event) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case eventsCh <- ev:
				return nil
			}
		})
		if err != nil {
			errorsCh <- fmt.Errorf("agent execution failed: %w", err)
		}
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel cancels an active asynchronous run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()
	return nil
}

func (r *Runner) run(
	ctx context.Context,
	runID, sessionID string,
	userContent core.Content,
	handler func(core.Event) error,
) error {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	agentInfo := core.AgentInfo{Name: r.agent.Name(), Type: "model"}

	runCtx := core.NewRunContext(
		ctx,
		sessionID,
		runID,
		agentInfo,
		userContent,
		r.maxModelCalls,
		nil, // Emit installed below, it closes over runCtx
		sess,
		r.sessionStore,
		r.logger,
	)
	runCtx.Execution = r.execution
	runCtx.Clock = r.clock
	runCtx.IDs = r.ids
	runCtx.Emit = func(ev core.Event) error {
		return r.deliver(runCtx, ev, handler)
	}

	userEvent := core.NewUserContentEvent(runID, &userContent)
	runCtx.StampEvent(&userEvent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		return fmt.Errorf("failed to append user event: %w", err)
	}

	if err := r.agent.Start(runCtx); err != nil {
		return err
	}
	defer func() {
		if err := r.agent.Stop(runCtx); err != nil {
			r.logger.Warn("runner.agent.stop.error", "agent", r.agent.Name(), "error", err.Error())
		}
	}()

	return r.agent.Run(runCtx)
}

// deliver applies event side-effects, persists non-partial events and hands
// the event to the caller's handler. Runs on the emitting goroutine so the
// agent observes persistence before continuing.
func (r *Runner) deliver(runCtx *core.RunContext, ev core.Event, handler func(core.Event) error) error {
	if err := r.applyEventActions(runCtx.SessionID, ev); err != nil {
		return fmt.Errorf("failed to process event actions: %w", err)
	}

	if !ev.IsPartial() {
		if err := r.sessionStore.AppendEvent(runCtx.SessionID, ev); err != nil {
			return fmt.Errorf("failed to append event to session: %w", err)
		}
	}

	r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session_id", runCtx.SessionID)
	return handler(ev)
}

func (r *Runner) applyEventActions(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
		r.logger.Debug("runner.event.escalate", "session_id", sessionID)
	}

	return nil
}
