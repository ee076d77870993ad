package runner

import (
	"context"
	"testing"
	"time"

	"github.com/loomlabs/loom/agent"
	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/model"
	"github.com/loomlabs/loom/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGreeter() *agent.ModelAgent {
	llm := model.NewMockModel("m", "mock")
	llm.AddResponse("hello", "hi there")
	return agent.NewModelAgent("greeter", llm, func(o *agent.ModelAgentOptions) {
		o.EnableStreaming = false
		o.OutputKey = "greeting"
	})
}

func userText(text string) core.Content {
	return core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: text}}}
}

func TestRunner_RunSync(t *testing.T) {
	store := session.NewInMemoryStore()
	r := New(newGreeter(), func(o *Options) {
		o.SessionStore = store
	})

	var events []core.Event
	runID, err := r.RunSync(context.Background(), "s1", userText("hello"), func(ev core.Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	require.Len(t, events, 1)
	assert.Equal(t, "hi there", events[0].Text())
	assert.True(t, events[0].IsFinalResponse())

	// Persistence: user event + final event, output key in state.
	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetEvents(), 2)
	v, ok := sess.GetState("greeting")
	require.True(t, ok)
	assert.Equal(t, "hi there", v)
}

func TestRunner_RunStreamsEvents(t *testing.T) {
	r := New(newGreeter())

	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "s2", userText("hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}
	for err := range errorsCh {
		t.Fatalf("unexpected run error: %v", err)
	}

	require.Len(t, events, 1)
	assert.Equal(t, "hi there", events[0].Text())
}

// blockingModel never produces output; it waits for context cancellation.
type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		<-ctx.Done()
		errCh <- ctx.Err()
	}()
	return respCh, errCh
}

func (blockingModel) Info() model.Info { return model.Info{Name: "blocking", Provider: "test"} }

func TestRunner_Cancel(t *testing.T) {
	a := agent.NewModelAgent("slow", blockingModel{})
	r := New(a)

	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "s3", userText("hello"))
	require.NoError(t, err)

	require.NoError(t, r.Cancel(runID))

	// Drain; the run must terminate.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range eventsCh {
		}
		for range errorsCh {
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not terminate")
	}

	assert.Eventually(t, func() bool {
		return r.Cancel(runID) != nil
	}, time.Second, 10*time.Millisecond, "finished run should no longer be cancellable")
}

func TestRunner_DeterministicProviders(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seq := 0
	r := New(newGreeter(), func(o *Options) {
		o.Clock = func() time.Time { return fixed }
		o.IDs = func() string {
			seq++
			return "id-" + string(rune('0'+seq))
		}
	})

	var events []core.Event
	runID, err := r.RunSync(context.Background(), "s4", userText("hello"), func(ev core.Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", runID)

	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp.Equal(fixed))
}
