package tool

import (
	"fmt"

	"github.com/loomlabs/loom/core"
)

// SessionStateTool exposes session state and flow control to the model.
//
// Operations:
//   - get_state: read a session state key
//   - set_state: stage a session state mutation
//   - escalate: request escalation to the parent scope
//   - get_session_history: summarize prior conversational events
type SessionStateTool struct{}

// NewSessionStateTool creates the session state tool.
func NewSessionStateTool() *SessionStateTool { return &SessionStateTool{} }

// Name returns the tool identifier.
func (t *SessionStateTool) Name() string { return "session_state" }

// Description returns the tool description.
func (t *SessionStateTool) Description() string {
	return "Manages session state and flow control. " +
		"Supports operations: get_state, set_state, escalate, get_session_history."
}

// Parameters returns the JSON schema for tool parameters.
func (t *SessionStateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"enum":        []string{"get_state", "set_state", "escalate", "get_session_history"},
				"description": "The state operation to perform",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "State key for get_state/set_state operations",
			},
			"value": map[string]any{
				"description": "Value for set_state operations (any type)",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum history entries to return (default: 10)",
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *SessionStateTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, NewToolError(t.Name(), "operation parameter is required", "VALIDATION_ERROR")
	}

	switch operation {
	case "get_state":
		key, ok := args["key"].(string)
		if !ok || key == "" {
			return nil, NewToolError(t.Name(), "key is required for get_state", "VALIDATION_ERROR")
		}
		value, exists := toolCtx.GetState(key)
		return map[string]any{"key": key, "value": value, "exists": exists}, nil

	case "set_state":
		key, ok := args["key"].(string)
		if !ok || key == "" {
			return nil, NewToolError(t.Name(), "key is required for set_state", "VALIDATION_ERROR")
		}
		toolCtx.SetState(key, args["value"])
		return map[string]any{"key": key, "stored": true}, nil

	case "escalate":
		toolCtx.Escalate()
		return map[string]any{"escalated": true}, nil

	case "get_session_history":
		limit := 10
		if raw, ok := args["limit"].(float64); ok && raw > 0 {
			limit = int(raw)
		}
		return t.history(toolCtx, limit), nil

	default:
		return nil, NewToolError(t.Name(), fmt.Sprintf("unknown operation %q", operation), "VALIDATION_ERROR")
	}
}

func (t *SessionStateTool) history(toolCtx *core.ToolContext, limit int) []map[string]any {
	events := toolCtx.SessionHistory()
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		entry := map[string]any{"author": ev.Author, "timestamp": ev.Timestamp}
		if text := ev.Text(); text != "" {
			entry["text"] = text
		}
		out = append(out, entry)
	}
	return out
}
