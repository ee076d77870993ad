package temporal

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomlabs/loom/platform"
	"go.temporal.io/sdk/workflow"
)

// WorkflowClock returns a time provider backed by workflow.Now, which reads
// the workflow task's recorded timestamp and therefore yields identical
// values on replay.
func WorkflowClock(ctx workflow.Context) platform.TimeProvider {
	return func() time.Time {
		return workflow.Now(ctx)
	}
}

// WorkflowIDProvider returns an identifier provider whose values are recorded
// as side effects: the first execution draws a fresh UUID, replays read the
// recorded one back from history.
func WorkflowIDProvider(ctx workflow.Context) platform.IDProvider {
	return func() string {
		var id string
		encoded := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
			return uuid.NewString()
		})
		if err := encoded.Get(&id); err != nil {
			// Decoding a just-recorded string cannot fail unless history is
			// corrupt; fail the workflow task rather than return a guess.
			panic(err)
		}
		return id
	}
}
