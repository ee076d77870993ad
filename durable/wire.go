package durable

import (
	"encoding/json"
	"fmt"

	"github.com/loomlabs/loom/model"
)

// CallPayload is the serialized form of a model call crossing the dispatch
// boundary. The model name rides alongside the request so the worker can
// reconstruct a provider client when it holds no factory for the agent.
type CallPayload struct {
	Agent     string         `json:"agent"`
	Operation string         `json:"operation"`
	Model     string         `json:"model,omitempty"`
	Request   *model.Request `json:"request"`
}

// EncodeCallPayload serializes a call payload for dispatch.
func EncodeCallPayload(p *CallPayload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call payload: %w", err)
	}
	return data, nil
}

// DecodeCallPayload deserializes a call payload on the worker side.
func DecodeCallPayload(data []byte) (*CallPayload, error) {
	var p CallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode call payload: %w", err)
	}
	return &p, nil
}

// ResultPayload is the serialized form of a completed model call: the final
// responses the worker drained from the provider stream.
type ResultPayload struct {
	Responses []model.Response `json:"responses"`
}

// EncodeResultPayload serializes the worker's responses for the trip back.
func EncodeResultPayload(responses []model.Response) ([]byte, error) {
	data, err := json.Marshal(ResultPayload{Responses: responses})
	if err != nil {
		return nil, fmt.Errorf("failed to encode result payload: %w", err)
	}
	return data, nil
}

// DecodeResultPayload deserializes the responses on the orchestrating side.
func DecodeResultPayload(data []byte) ([]model.Response, error) {
	var p ResultPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode result payload: %w", err)
	}
	return p.Responses, nil
}
