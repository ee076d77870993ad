package temporal

import (
	"encoding/json"
	"fmt"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/durable"
)

// ActivityToolConfig describes one Temporal activity exposed to agents as a
// tool. Name, description and parameter schema are supplied explicitly since
// the activity's own signature carries none of them.
type ActivityToolConfig struct {
	// ActivityName is the registered activity type to dispatch to.
	ActivityName string
	// ToolName is the function name exposed to the model. Defaults to
	// ActivityName.
	ToolName string
	// Description tells the model what the activity does.
	Description string
	// Parameters is the JSON schema for the tool arguments.
	Parameters map[string]any
	// Policy governs the dispatch. Required, no default.
	Policy *durable.ExecutionPolicy
}

// ActivityTool makes a Temporal activity callable as an agent tool, so tool
// side effects get the same durability as model calls. The target activity
// must accept a JSON-encoded argument object and return a JSON-encoded
// result.
//
// Calls require durable execution: invoking the tool outside a workflow-bound
// run is a configuration error, never a silent inline fallback.
type ActivityTool struct {
	cfg ActivityToolConfig
}

// NewActivityTool validates the configuration and builds the tool.
func NewActivityTool(cfg ActivityToolConfig) (*ActivityTool, error) {
	if cfg.ActivityName == "" {
		return nil, &durable.ConfigurationError{Field: "activity_name", Reason: "activity name is required"}
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.ToolName == "" {
		cfg.ToolName = cfg.ActivityName
	}
	if cfg.Parameters == nil {
		cfg.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &ActivityTool{cfg: cfg}, nil
}

// Name implements tool.Tool.
func (t *ActivityTool) Name() string { return t.cfg.ToolName }

// Description implements tool.Tool.
func (t *ActivityTool) Description() string { return t.cfg.Description }

// Parameters implements tool.Tool.
func (t *ActivityTool) Parameters() map[string]any { return t.cfg.Parameters }

// Call implements tool.Tool.
func (t *ActivityTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	exec := toolCtx.Execution()
	if exec == nil || !exec.Durable() {
		return nil, &durable.ConfigurationError{
			Field:  "execution",
			Reason: fmt.Sprintf("tool %s requires durable execution", t.cfg.ToolName),
		}
	}
	dispatcher, ok := exec.(durable.Dispatcher)
	if !ok {
		return nil, &durable.ConfigurationError{
			Field:  "execution",
			Reason: fmt.Sprintf("durable execution state %T does not expose a dispatcher", exec),
		}
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments for %s: %w", t.cfg.ToolName, err)
	}

	result, err := dispatcher.ExecuteUnit(durable.UnitID(t.cfg.ActivityName), payload, t.cfg.Policy)
	if err != nil {
		return nil, err
	}

	if len(result.Payload) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(result.Payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", t.cfg.ToolName, err)
	}
	return out, nil
}
