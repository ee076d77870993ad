package durable

import (
	"testing"

	"github.com/loomlabs/loom/core"
	"github.com/loomlabs/loom/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallPayload_RoundTrip(t *testing.T) {
	payload := &CallPayload{
		Agent:     "Summarizer",
		Operation: OpGenerateContent,
		Model:     "claude-sonnet-4-20250514",
		Request: &model.Request{
			Instructions: "Summarize the document.",
			Contents: []core.Content{
				{Role: "user", Parts: []core.Part{
					core.TextPart{Text: "please summarize"},
					core.DataPart{Data: map[string]any{"doc_id": "d-42"}},
				}},
				{Role: "assistant", Parts: []core.Part{
					core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "fetch_doc", Arguments: `{"id":"d-42"}`}},
				}},
			},
			Tools: []model.ToolDefinition{{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        "fetch_doc",
					Description: "Fetch a document by id",
					Parameters:  map[string]any{"type": "object"},
				},
			}},
		},
	}

	data, err := EncodeCallPayload(payload)
	require.NoError(t, err)

	decoded, err := DecodeCallPayload(data)
	require.NoError(t, err)
	assert.Equal(t, "Summarizer", decoded.Agent)
	assert.Equal(t, OpGenerateContent, decoded.Operation)
	require.NotNil(t, decoded.Request)
	require.Len(t, decoded.Request.Contents, 2)

	// Polymorphic parts must come back as their concrete types, not raw maps.
	userParts := decoded.Request.Contents[0].Parts
	require.Len(t, userParts, 2)
	assert.IsType(t, core.TextPart{}, userParts[0])
	assert.IsType(t, core.DataPart{}, userParts[1])

	call, ok := decoded.Request.Contents[1].Parts[0].(core.FunctionCallPart)
	require.True(t, ok)
	assert.Equal(t, "fetch_doc", call.FunctionCall.Name)

	require.Len(t, decoded.Request.Tools, 1)
	assert.Equal(t, "fetch_doc", decoded.Request.Tools[0].Function.Name)
}

func TestResultPayload_RoundTrip(t *testing.T) {
	responses := []model.Response{{
		ID: "resp-1",
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.TextPart{Text: "a short summary"},
		}},
		FinishReason: "stop",
		Usage:        &model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}

	data, err := EncodeResultPayload(responses)
	require.NoError(t, err)

	decoded, err := DecodeResultPayload(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	text, ok := decoded[0].Content.Parts[0].(core.TextPart)
	require.True(t, ok)
	assert.Equal(t, "a short summary", text.Text)
	require.NotNil(t, decoded[0].Usage)
	assert.Equal(t, 15, decoded[0].Usage.TotalTokens)
}
