package temporal

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomlabs/loom/durable"
	"github.com/loomlabs/loom/model"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/worker"
)

// ModelFactory constructs the model a bound agent uses at the worker. Called
// per execution so factories may pool or recreate clients as they see fit.
type ModelFactory func() (model.Model, error)

// WorkerAdapterOptions configures a WorkerAdapter.
type WorkerAdapterOptions struct {
	// Metrics records worker-side execution outcomes. Nil disables it.
	Metrics *durable.Metrics
}

// WorkerAdapter services dynamically-named units on a Temporal worker. It
// holds no fixed dispatch table: any activity whose type name parses as
// "agent.operation" is routed by operation, and the model behind the call is
// resolved at execution time from a bound agent factory or, failing that,
// from the registry by the model name carried in the payload. A call naming
// no resolvable model is an error; the adapter never guesses.
//
// Safe for concurrent use by any number of in-flight activity executions.
type WorkerAdapter struct {
	registry *model.Registry
	metrics  *durable.Metrics

	mu        sync.RWMutex
	factories map[string]ModelFactory
}

// NewWorkerAdapter builds an adapter over an optional model registry.
func NewWorkerAdapter(registry *model.Registry, optFns ...func(o *WorkerAdapterOptions)) *WorkerAdapter {
	opts := WorkerAdapterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WorkerAdapter{
		registry:  registry,
		metrics:   opts.Metrics,
		factories: make(map[string]ModelFactory),
	}
}

// BindAgent routes all units owned by agentName to models built by factory,
// taking precedence over registry lookup.
func (a *WorkerAdapter) BindAgent(agentName string, factory ModelFactory) {
	a.mu.Lock()
	a.factories[agentName] = factory
	a.mu.Unlock()
}

// Bind registers the adapter's dynamic activity on a worker so every
// unit-shaped activity type is serviced without per-agent registration.
func (a *WorkerAdapter) Bind(w worker.Worker) {
	w.RegisterDynamicActivity(a.dynamicActivity, activity.DynamicRegisterOptions{})
}

// UnitActivity returns a statically registrable activity function for one
// unit. Useful where dynamic registration is unavailable, such as test
// environments that require activities registered by name.
func (a *WorkerAdapter) UnitActivity(unitID durable.UnitID) func(ctx context.Context, payload []byte) ([]byte, error) {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		return a.Execute(ctx, unitID.String(), payload)
	}
}

func (a *WorkerAdapter) dynamicActivity(ctx context.Context, args converter.EncodedValues) (interface{}, error) {
	var payload []byte
	if err := args.Get(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode activity input: %w", err)
	}
	return a.Execute(ctx, activity.GetInfo(ctx).ActivityType.Name, payload)
}

// Execute services one unit execution: parse the identifier, route by
// operation, run the real call, serialize the result.
func (a *WorkerAdapter) Execute(ctx context.Context, activityName string, payload []byte) ([]byte, error) {
	agentName, operation, err := durable.ParseUnitID(activityName)
	if err != nil {
		return nil, err
	}

	result, err := a.execute(ctx, agentName, operation, payload)
	a.metrics.ObserveExecution(durable.UnitID(activityName), err)
	return result, err
}

func (a *WorkerAdapter) execute(ctx context.Context, agentName, operation string, payload []byte) ([]byte, error) {
	switch operation {
	case durable.OpGenerateContent:
		return a.generateContent(ctx, agentName, payload)
	default:
		return nil, &durable.ResolutionError{Agent: agentName, Operation: operation, Reason: "unknown operation"}
	}
}

func (a *WorkerAdapter) generateContent(ctx context.Context, agentName string, payload []byte) ([]byte, error) {
	call, err := durable.DecodeCallPayload(payload)
	if err != nil {
		return nil, err
	}
	if call.Request == nil {
		return nil, fmt.Errorf("call payload for agent %s carries no request", agentName)
	}

	llm, err := a.resolveModel(agentName, call.Model)
	if err != nil {
		return nil, err
	}

	logger := activity.GetLogger(ctx)
	logger.Info("Executing model call", "agent", agentName, "model", llm.Info().Name)

	respCh, errCh := llm.Generate(ctx, *call.Request)
	responses, err := model.Collect(ctx, respCh, errCh)
	if err != nil {
		logger.Error("Model call failed", "agent", agentName, "error", err)
		return nil, err
	}

	return durable.EncodeResultPayload(responses)
}

func (a *WorkerAdapter) resolveModel(agentName, modelName string) (model.Model, error) {
	a.mu.RLock()
	factory, bound := a.factories[agentName]
	a.mu.RUnlock()
	if bound {
		return factory()
	}

	if modelName == "" {
		return nil, &durable.ResolutionError{
			Agent:     agentName,
			Operation: durable.OpGenerateContent,
			Reason:    "no bound factory and payload names no model",
		}
	}
	if a.registry == nil {
		return nil, &durable.ResolutionError{
			Agent:     agentName,
			Operation: durable.OpGenerateContent,
			Reason:    fmt.Sprintf("no bound factory and no registry to resolve model %q", modelName),
		}
	}
	return a.registry.New(modelName)
}
