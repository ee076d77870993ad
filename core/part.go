package core

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set; custom
// parts additionally implement TaggedPart and register a decoder so they
// survive serialization boundaries (see RegisterPartKind).
type Part interface{ isPart() }

// TaggedPart is implemented by custom content parts that cross a
// serialization boundary. PartKind returns the stable tag used to re-resolve
// the concrete type on decode.
type TaggedPart interface {
	Part
	PartKind() string
}

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g., JSON object map).
type DataPart struct {
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// FunctionCall describes a tool/function invocation request.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Optional stable id (can be supplied later)
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized argument payload (e.g. JSON)
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall   `json:"function_call"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// isPart implements the Part interface for FunctionCallPart.
func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string `json:"name"`               // Function name
	Response any    `json:"response,omitempty"` // Successful result (any JSON-serializable shape)
	Error    string `json:"error,omitempty"`    // Populated on failure
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse `json:"function_response"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
}

// isPart implements the Part interface for FunctionResponsePart.
func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // Conversation role (user, assistant, tool, system,...)
	Parts []Part `json:"parts"`          // Ordered heterogeneous parts
}

// Builtin part kind tags. Custom parts must not reuse these.
const (
	partKindText             = "text"
	partKindData             = "data"
	partKindFunctionCall     = "function_call"
	partKindFunctionResponse = "function_response"
)

// PartDecoder reconstructs a concrete Part from its serialized form.
type PartDecoder func(raw json.RawMessage) (Part, error)

var partDecoders sync.Map // kind (string) -> PartDecoder

// RegisterPartKind registers a decoder for a custom part kind so payloads
// containing that part survive the serialization boundary between the
// orchestrating side and workers. Registration is concurrency-safe; the last
// registration for a kind wins. Builtin kinds are pre-registered.
func RegisterPartKind(kind string, dec PartDecoder) {
	partDecoders.Store(kind, dec)
}

func init() {
	RegisterPartKind(partKindText, func(raw json.RawMessage) (Part, error) {
		var p TextPart
		return p, json.Unmarshal(raw, &p)
	})
	RegisterPartKind(partKindData, func(raw json.RawMessage) (Part, error) {
		var p DataPart
		return p, json.Unmarshal(raw, &p)
	})
	RegisterPartKind(partKindFunctionCall, func(raw json.RawMessage) (Part, error) {
		var p FunctionCallPart
		return p, json.Unmarshal(raw, &p)
	})
	RegisterPartKind(partKindFunctionResponse, func(raw json.RawMessage) (Part, error) {
		var p FunctionResponsePart
		return p, json.Unmarshal(raw, &p)
	})
}

// partKindOf resolves the serialization tag for a part value.
func partKindOf(p Part) (string, error) {
	switch p.(type) {
	case TextPart:
		return partKindText, nil
	case DataPart:
		return partKindData, nil
	case FunctionCallPart:
		return partKindFunctionCall, nil
	case FunctionResponsePart:
		return partKindFunctionResponse, nil
	}
	if tp, ok := p.(TaggedPart); ok {
		return tp.PartKind(), nil
	}
	return "", fmt.Errorf("part type %T has no registered kind", p)
}

// partEnvelope tags a serialized part with its concrete kind.
type partEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON serializes the content with kind-tagged parts so the
// polymorphic Parts slice can be reconstructed on the other side of a
// process boundary.
func (c Content) MarshalJSON() ([]byte, error) {
	envs := make([]partEnvelope, 0, len(c.Parts))
	for _, p := range c.Parts {
		kind, err := partKindOf(p)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal %s part: %w", kind, err)
		}
		envs = append(envs, partEnvelope{Kind: kind, Data: data})
	}
	return json.Marshal(struct {
		Role  string         `json:"role,omitempty"`
		Parts []partEnvelope `json:"parts"`
	}{Role: c.Role, Parts: envs})
}

// UnmarshalJSON reconstructs kind-tagged parts using the registered decoders.
func (c *Content) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role  string         `json:"role,omitempty"`
		Parts []partEnvelope `json:"parts"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	parts := make([]Part, 0, len(wire.Parts))
	for _, env := range wire.Parts {
		dec, ok := partDecoders.Load(env.Kind)
		if !ok {
			return fmt.Errorf("unknown part kind %q", env.Kind)
		}
		p, err := dec.(PartDecoder)(env.Data)
		if err != nil {
			return fmt.Errorf("decode %s part: %w", env.Kind, err)
		}
		parts = append(parts, p)
	}
	c.Role = wire.Role
	c.Parts = parts
	return nil
}
