package temporal

import (
	"context"

	"github.com/loomlabs/loom/durable"
	"github.com/loomlabs/loom/model"
)

// Model is a workflow-side model whose Generate dispatches through the
// durable execution primitive instead of calling a provider. It serves code
// that holds a model.Model directly rather than going through a flow hook;
// both paths end at the same unit on the worker.
type Model struct {
	state     *ExecutionState
	agentName string
	modelName string
	policy    *durable.ExecutionPolicy
}

// NewModel builds a durable model for one agent. The agent identity and the
// policy are validated here, so a misconfigured model fails at construction
// rather than mid-workflow.
func NewModel(state *ExecutionState, agentName, modelName string, policy *durable.ExecutionPolicy) (*Model, error) {
	if _, err := durable.Resolve(agentName, durable.OpGenerateContent); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Model{state: state, agentName: agentName, modelName: modelName, policy: policy}, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.modelName, Provider: "durable", SupportsTools: true}
}

// Generate implements model.Model. It runs synchronously on the workflow
// goroutine: the dispatch suspends on the workflow context, and the returned
// channels are pre-filled and closed before they are handed back, so no
// native goroutine ever starts inside orchestrating code.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	errCh := make(chan error, 1)

	responses, err := m.generate(req)
	if err != nil {
		respCh := make(chan model.Response)
		close(respCh)
		errCh <- err
		close(errCh)
		return respCh, errCh
	}

	respCh := make(chan model.Response, len(responses))
	for _, resp := range responses {
		respCh <- resp
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (m *Model) generate(req model.Request) ([]model.Response, error) {
	unitID, err := durable.Resolve(m.agentName, durable.OpGenerateContent)
	if err != nil {
		return nil, err
	}

	// Replayed requests must not ask workers to stream.
	req.Stream = false
	payload, err := durable.EncodeCallPayload(&durable.CallPayload{
		Agent:     m.agentName,
		Operation: durable.OpGenerateContent,
		Model:     m.modelName,
		Request:   &req,
	})
	if err != nil {
		return nil, err
	}

	result, err := m.state.ExecuteUnit(unitID, payload, m.policy)
	if err != nil {
		return nil, err
	}
	return durable.DecodeResultPayload(result.Payload)
}
