package core

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/loomlabs/loom/logging"
	"github.com/loomlabs/loom/platform"
)

// RunContext encapsulates the mutable, per-run execution scope passed to an
// Agent's Run method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID, Agent info)
//   - Input user Content
//   - The Emit callback used to deliver events synchronously
//   - The SessionStore for persistence concerns
//   - A working Session snapshot and pending StateDelta to commit
//   - The ExecutionState of the hosting scope plus per-run time/ID providers
//
// Event delivery is synchronous: Emit returns once the event has been
// persisted and handed to the consumer, which keeps agent code free of
// goroutines and therefore runnable on the single logical thread of a
// deterministic orchestration scope.
//
// State mutations performed via SetState accumulate in StateDelta until
// EmitEvent attaches them to an outgoing event or CommitStateDelta persists
// them directly.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	Agent            AgentInfo
	UserContent      Content
	MaxModelCalls    int
	Emit             func(Event) error
	SessionStore     SessionStore
	Limiter          *ModelLimiter
	Session          *Session
	StateDelta       map[string]any

	// Execution describes the scope hosting this run. A nil value means the
	// run executes outside any orchestration engine.
	Execution ExecutionState

	// Clock and IDs override the platform providers for this run. Nil values
	// fall back to the process-wide platform defaults.
	Clock platform.TimeProvider
	IDs   platform.IDProvider

	*loggerAdapter
}

// NewRunContext constructs a RunContext with an empty state delta. Execution,
// Clock and IDs are optional overrides set directly on the returned value.
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	agent AgentInfo,
	userContent Content,
	maxModelCalls int,
	emit func(Event) error,
	sess *Session,
	sessionStore SessionStore,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		SessionID:     sessionID,
		RunID:         runID,
		Agent:         agent,
		UserContent:   userContent,
		MaxModelCalls: maxModelCalls,
		Emit:          emit,
		Session:       sess,
		SessionStore:  sessionStore,
		Limiter:       NewModelLimiter(maxModelCalls),
		StateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Now returns the current time from the run's clock (or the platform default).
func (rc *RunContext) Now() time.Time {
	if rc.Clock != nil {
		return rc.Clock()
	}
	return platform.Now()
}

// NewID returns a new unique identifier from the run's provider (or the
// platform default).
func (rc *RunContext) NewID() string {
	if rc.IDs != nil {
		return rc.IDs()
	}
	return platform.NewID()
}

// NewEvent creates a bare event bound to this run, stamped with the run's
// time and ID providers so events stay deterministic under replayed
// orchestration.
func (rc *RunContext) NewEvent(author string) Event {
	ev := NewEvent(rc.RunID, author)
	rc.StampEvent(&ev)
	return ev
}

// StampEvent rewrites the event's ID and timestamp using the run's providers.
// Use for events built with the package-level constructors.
func (rc *RunContext) StampEvent(ev *Event) {
	ev.ID = rc.NewID()
	ev.Timestamp = rc.Now().UTC()
	ev.RunID = rc.RunID
}

// GetState returns a staged (delta) value if present, else the persisted session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (rc *RunContext) ApplyStateDelta(d map[string]any) {
	maps.Copy(rc.StateDelta, d)
}

// CommitStateDelta persists the accumulated StateDelta via the SessionStore
// then clears the in-memory delta. It is a no-op when there are no staged
// mutations.
func (rc *RunContext) CommitStateDelta() error {
	if len(rc.StateDelta) == 0 {
		return nil
	}
	if rc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}
	if err := rc.SessionStore.ApplyDelta(rc.SessionID, rc.StateDelta); err != nil {
		return err
	}
	rc.StateDelta = map[string]any{}
	return nil
}

// EmitEvent merges the pending StateDelta into ev.Actions, delivers it through
// the Emit callback and resets the delta buffer. If the context is cancelled
// before emission it returns the cancellation error.
func (rc *RunContext) EmitEvent(ev Event) error {
	if err := rc.Context.Err(); err != nil {
		return err
	}
	if rc.Emit == nil {
		return fmt.Errorf("run context has no emit callback")
	}
	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		for k, v := range rc.StateDelta {
			ev.Actions.StateDelta[k] = v
		}
	}
	if err := rc.Emit(ev); err != nil {
		return err
	}
	rc.StateDelta = map[string]any{}
	return nil
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (rc *RunContext) RefreshSession() error {
	if rc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}
	s, err := rc.SessionStore.Get(rc.SessionID)
	if err != nil {
		return err
	}
	rc.Session = s
	return nil
}

// GetSessionHistory returns all historical events for the session.
func (rc *RunContext) GetSessionHistory() []Event {
	if rc.Session == nil {
		return []Event{}
	}
	return rc.Session.GetEvents()
}

// GetAgentName returns the logical agent name for this run.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// GetAgentType returns a categorization label for the agent.
func (rc *RunContext) GetAgentType() string { return rc.Agent.Type }
