package core

import (
	"context"
	"testing"
	"time"
)

func newTestRunContext(emit func(Event) error) *RunContext {
	sess := NewSession("sess-1")
	return NewRunContext(
		context.Background(),
		"sess-1", "run-1",
		AgentInfo{Name: "agent1", Type: "model"},
		Content{Role: "user", Parts: []Part{TextPart{Text: "hi"}}},
		5,
		emit,
		sess,
		nil,
		nil,
	)
}

func TestRunContext_EmitMergesStateDelta(t *testing.T) {
	var got []Event
	rc := newTestRunContext(func(ev Event) error {
		got = append(got, ev)
		return nil
	})

	rc.SetState("score", 10)
	if err := rc.EmitEvent(rc.NewEvent("agent1")); err != nil {
		t.Fatalf("EmitEvent: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(got))
	}
	if got[0].Actions.StateDelta["score"] != 10 {
		t.Errorf("state delta not attached to event: %+v", got[0].Actions)
	}
	if len(rc.StateDelta) != 0 {
		t.Error("delta buffer not reset after emit")
	}
}

func TestRunContext_EmitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc := newTestRunContext(func(Event) error {
		t.Fatal("emit callback must not run after cancellation")
		return nil
	})
	rc.Context = ctx
	cancel()

	if err := rc.EmitEvent(rc.NewEvent("agent1")); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunContext_ProvidersOverride(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rc := newTestRunContext(func(Event) error { return nil })
	rc.Clock = func() time.Time { return fixed }
	rc.IDs = func() string { return "fixed-id" }

	ev := rc.NewEvent("agent1")
	if !ev.Timestamp.Equal(fixed) {
		t.Errorf("event timestamp did not use run clock: %v", ev.Timestamp)
	}
	if ev.ID != "fixed-id" {
		t.Errorf("event id did not use run provider: %v", ev.ID)
	}
	if ev.RunID != "run-1" {
		t.Errorf("event run binding missing: %v", ev.RunID)
	}
}

func TestRunContext_StateReadThrough(t *testing.T) {
	rc := newTestRunContext(func(Event) error { return nil })
	rc.Session.SetState("persisted", "a")
	rc.SetState("staged", "b")

	if v, ok := rc.GetState("persisted"); !ok || v != "a" {
		t.Errorf("persisted state not visible: %v %v", v, ok)
	}
	if v, ok := rc.GetState("staged"); !ok || v != "b" {
		t.Errorf("staged state not visible: %v %v", v, ok)
	}

	// Staged values shadow persisted ones until committed.
	rc.Session.SetState("staged", "old")
	if v, _ := rc.GetState("staged"); v != "b" {
		t.Errorf("staged value should shadow persisted: %v", v)
	}
}

func TestRunContext_LimiterEnforced(t *testing.T) {
	rc := newTestRunContext(func(Event) error { return nil })
	for i := 0; i < 5; i++ {
		if err := rc.Limiter.Increment(); err != nil {
			t.Fatalf("unexpected limiter error at %d: %v", i, err)
		}
	}
	if err := rc.Limiter.Increment(); err == nil {
		t.Fatal("expected limiter to reject call past maximum")
	}
}
