package temporal

import (
	"context"
	"fmt"
	"testing"

	"github.com/loomlabs/loom/agent"
	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/durable"
	"github.com/loomlabs/loom/flow"
	"github.com/loomlabs/loom/model"
	"github.com/loomlabs/loom/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

// guardModel fails loudly when its Generate is reached: inside durable
// execution the provider must never be invoked inline.
type guardModel struct{ name string }

func (g guardModel) Info() model.Info {
	return model.Info{Name: g.name, Provider: "guard", SupportsTools: true}
}

func (g guardModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	errCh <- fmt.Errorf("model %s was invoked inline inside durable execution", g.name)
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func TestDurableAgentRun(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	// Worker side: the real model lives here, bound by agent name.
	workerModel := model.NewMockModel("mock-1", "mock")
	workerModel.AddResponse("hello", "a durable hello")
	adapter := NewWorkerAdapter(nil)
	adapter.BindAgent("Summarizer", func() (model.Model, error) { return workerModel, nil })

	unitID := durable.UnitID("Summarizer.generate_content")
	env.RegisterActivityWithOptions(adapter.UnitActivity(unitID), activity.RegisterOptions{Name: unitID.String()})

	policy := testPolicy(t)

	wf := func(ctx workflow.Context) (string, error) {
		hook, err := durable.NewInterceptionHook(policy)
		if err != nil {
			return "", err
		}

		a := agent.NewModelAgent("Summarizer", guardModel{name: "mock-1"}, func(o *agent.ModelAgentOptions) {
			o.EnableStreaming = false
			o.ModelCallHooks = []flow.ModelCallHook{hook}
		})

		r := runner.New(a, func(o *runner.Options) {
			o.Execution = NewExecutionState(ctx)
			o.Clock = WorkflowClock(ctx)
			o.IDs = WorkflowIDProvider(ctx)
		})

		var final string
		_, err = r.RunSync(context.Background(), "wf-session",
			core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hello"}}},
			func(ev core.Event) error {
				if ev.IsFinalResponse() {
					final = ev.Text()
				}
				return nil
			})
		return final, err
	}

	env.ExecuteWorkflow(wf)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, "a durable hello", out)
}

func TestDurableModel(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	workerModel := model.NewMockModel("mock-1", "mock")
	workerModel.AddResponse("ping", "pong")
	adapter := NewWorkerAdapter(nil)
	adapter.BindAgent("Echo", func() (model.Model, error) { return workerModel, nil })

	unitID := durable.UnitID("Echo.generate_content")
	env.RegisterActivityWithOptions(adapter.UnitActivity(unitID), activity.RegisterOptions{Name: unitID.String()})

	policy := testPolicy(t)

	wf := func(ctx workflow.Context) (string, error) {
		m, err := NewModel(NewExecutionState(ctx), "Echo", "mock-1", policy)
		if err != nil {
			return "", err
		}

		respCh, errCh := m.Generate(context.Background(), model.Request{
			Contents: []core.Content{{Role: "user", Parts: []core.Part{core.TextPart{Text: "ping"}}}},
		})
		responses, err := model.Collect(context.Background(), respCh, errCh)
		if err != nil {
			return "", err
		}
		text, _ := responses[0].Content.Parts[0].(core.TextPart)
		return text.Text, nil
	}

	env.ExecuteWorkflow(wf)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, "pong", out)
}

func TestDurableModel_ConstructionErrors(t *testing.T) {
	policy := testPolicy(t)

	_, err := NewModel(nil, "", "mock-1", policy)
	var resErr *durable.ResolutionError
	require.ErrorAs(t, err, &resErr)

	_, err = NewModel(nil, "Echo", "mock-1", nil)
	var cfgErr *durable.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestActivityTool(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	env.RegisterActivityWithOptions(func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte(`{"sent":true}`), nil
	}, activity.RegisterOptions{Name: "send_email"})

	policy := testPolicy(t)

	tl, err := NewActivityTool(ActivityToolConfig{
		ActivityName: "send_email",
		Description:  "Send an email",
		Policy:       policy,
	})
	require.NoError(t, err)
	assert.Equal(t, "send_email", tl.Name())

	wf := func(ctx workflow.Context) (bool, error) {
		runCtx := core.NewRunContext(
			context.Background(),
			"wf-session", "run-1",
			core.AgentInfo{Name: "Mailer", Type: "model"},
			core.Content{},
			10,
			func(core.Event) error { return nil },
			core.NewSession("wf-session"),
			nil,
			nil,
		)
		runCtx.Execution = NewExecutionState(ctx)

		out, err := tl.Call(core.NewToolContext(runCtx, "call-1"), map[string]any{"to": "a@b.c"})
		if err != nil {
			return false, err
		}
		result, _ := out.(map[string]any)
		sent, _ := result["sent"].(bool)
		return sent, nil
	}

	env.ExecuteWorkflow(wf)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var sent bool
	require.NoError(t, env.GetWorkflowResult(&sent))
	assert.True(t, sent)
}

func TestActivityTool_RequiresDurableExecution(t *testing.T) {
	tl, err := NewActivityTool(ActivityToolConfig{ActivityName: "send_email", Policy: testPolicy(t)})
	require.NoError(t, err)

	runCtx := core.NewRunContext(
		context.Background(),
		"s", "r",
		core.AgentInfo{Name: "Mailer", Type: "model"},
		core.Content{},
		10,
		func(core.Event) error { return nil },
		core.NewSession("s"),
		nil,
		nil,
	)

	_, err = tl.Call(core.NewToolContext(runCtx, "call-1"), map[string]any{})
	var cfgErr *durable.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
