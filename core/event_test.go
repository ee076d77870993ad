package core

import (
	"errors"
	"testing"
)

// Event constructor & helper method tests
func TestEvent_ConstructorsAndMethods(t *testing.T) {
	e := NewEvent("run-123", "authorA")
	if e.Author != "authorA" || e.RunID != "run-123" || e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}

	msg := NewMessageEvent("agent1", "hello world")
	if msg.Content == nil || msg.Content.Role != "assistant" || len(msg.Content.Parts) != 1 {
		t.Fatalf("NewMessageEvent malformed: %+v", msg)
	}

	user := NewUserMessageEvent("run-123", "hi")
	if user.Content == nil || user.Content.Role != "user" || user.RunID != "run-123" {
		t.Fatalf("NewUserMessageEvent malformed: %+v", user)
	}

	callArgs := `{"x":1}`
	fCall := NewFunctionCallEvent("agent2", "do_stuff", callArgs)
	calls := fCall.GetFunctionCalls()
	if len(calls) != 1 || calls[0].Name != "do_stuff" || calls[0].Arguments != callArgs {
		t.Fatalf("GetFunctionCalls extraction failed: %+v", calls)
	}

	fRespOK := NewFunctionResponseEvent("agent2", "call-1", "do_stuff", 42, nil)
	resps := fRespOK.GetFunctionResponses()
	if len(resps) != 1 || resps[0].Response.(int) != 42 || resps[0].Error != "" {
		t.Fatalf("Function response success extraction failed: %+v", resps)
	}

	fRespErr := NewFunctionResponseEvent("agent2", "call-2", "do_stuff", nil, errors.New("boom"))
	resps = fRespErr.GetFunctionResponses()
	if resps[0].Error == "" {
		t.Fatalf("Expected error message in function response: %+v", resps[0])
	}
}

func TestEvent_PartialAndFinal(t *testing.T) {
	e := NewEvent("run", "agent")
	if e.IsPartial() {
		t.Error("Bare event should not be partial")
	}
	if e.IsFinalResponse() {
		t.Error("Event without TurnComplete should not be final")
	}

	partial := true
	e.Partial = &partial
	if !e.IsPartial() {
		t.Error("Expected partial event")
	}

	done := true
	e2 := NewEvent("run", "agent")
	e2.TurnComplete = &done
	if !e2.IsFinalResponse() {
		t.Error("TurnComplete event should be final")
	}
}

func TestEvent_Text(t *testing.T) {
	e := NewEvent("run", "agent")
	if e.Text() != "" {
		t.Error("Content-less event should produce empty text")
	}

	e.Content = &Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "hello "},
		DataPart{Data: map[string]any{"k": "v"}},
		TextPart{Text: "world"},
	}}
	if got := e.Text(); got != "hello world" {
		t.Errorf("Text concatenation mismatch: %q", got)
	}
}
