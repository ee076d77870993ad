package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/internal/util"
	"github.com/stretchr/testify/assert"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror JSON decoded schema shape
		"required": []any{"x"},
	}

	err := util.ValidateParameters(map[string]any{"x": 5}, schema)
	assert.NoError(t, err)

	err = util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "x", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Contains(t, vErr.Message, "expected type integer")
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

// -------------------- Test Fixtures --------------------

func testRunContext() *core.RunContext {
	sess := core.NewSession("sess-1")
	return core.NewRunContext(
		context.Background(),
		"sess-1", "run-1",
		core.AgentInfo{Name: "agent", Type: "model"},
		core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}},
		10,
		func(core.Event) error { return nil },
		sess,
		nil,
		nil,
	)
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	tc := core.NewToolContext(testRunContext(), "fc1")
	result, err := sumTool.Call(tc, map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})
	tc := core.NewToolContext(testRunContext(), "fc2")
	_, err := tTool.Call(tc, map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	tc := core.NewToolContext(testRunContext(), "fc3")
	_, err := execTool.Call(tc, map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

func TestFunctionTool_CustomToolErrorPassthrough(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	custom := NewToolError("custom", "quota exceeded", "QUOTA_ERROR")
	customTool := NewFunctionTool("custom", "Custom error", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, custom
	})
	tc := core.NewToolContext(testRunContext(), "fc4")
	_, err := customTool.Call(tc, map[string]any{})
	assert.Same(t, custom, err)
}

// -------------------- SessionStateTool Tests --------------------

func TestSessionStateTool_StateRoundTrip(t *testing.T) {
	stateTool := NewSessionStateTool()
	rc := testRunContext()

	tc := core.NewToolContext(rc, "fc5")
	result, err := stateTool.Call(tc, map[string]any{"operation": "set_state", "key": "mood", "value": "curious"})
	assert.NoError(t, err)
	assert.Equal(t, true, result.(map[string]any)["stored"])

	result, err = stateTool.Call(tc, map[string]any{"operation": "get_state", "key": "mood"})
	assert.NoError(t, err)
	assert.Equal(t, "curious", result.(map[string]any)["value"])

	// State mutations are recorded in the tool's actions.
	assert.Equal(t, "curious", tc.Actions().StateDelta["mood"])
}

func TestSessionStateTool_Escalate(t *testing.T) {
	stateTool := NewSessionStateTool()
	tc := core.NewToolContext(testRunContext(), "fc6")

	_, err := stateTool.Call(tc, map[string]any{"operation": "escalate"})
	assert.NoError(t, err)
	assert.NotNil(t, tc.Actions().Escalate)
	assert.True(t, *tc.Actions().Escalate)
}

func TestSessionStateTool_UnknownOperation(t *testing.T) {
	stateTool := NewSessionStateTool()
	tc := core.NewToolContext(testRunContext(), "fc7")

	_, err := stateTool.Call(tc, map[string]any{"operation": "fly"})
	assert.Error(t, err)
}
