package core

import (
	"encoding/json"
	"testing"
)

func TestContent_WireRoundTrip(t *testing.T) {
	orig := Content{
		Role: "assistant",
		Parts: []Part{
			TextPart{Text: "summarize this"},
			DataPart{Data: map[string]any{"topic": "go"}},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "call-1", Name: "lookup", Arguments: `{"q":"x"}`}},
			FunctionResponsePart{FunctionResponse: FunctionResponse{ID: "call-1", Name: "lookup", Response: "found"}},
		},
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Content
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Role != "assistant" || len(decoded.Parts) != 4 {
		t.Fatalf("decoded content malformed: %+v", decoded)
	}

	if tp, ok := decoded.Parts[0].(TextPart); !ok || tp.Text != "summarize this" {
		t.Errorf("text part lost across the wire: %+v", decoded.Parts[0])
	}
	if dp, ok := decoded.Parts[1].(DataPart); !ok || dp.Data["topic"] != "go" {
		t.Errorf("data part lost across the wire: %+v", decoded.Parts[1])
	}
	if fc, ok := decoded.Parts[2].(FunctionCallPart); !ok || fc.FunctionCall.Name != "lookup" {
		t.Errorf("function call part lost across the wire: %+v", decoded.Parts[2])
	}
	if fr, ok := decoded.Parts[3].(FunctionResponsePart); !ok || fr.FunctionResponse.Response != "found" {
		t.Errorf("function response part lost across the wire: %+v", decoded.Parts[3])
	}
}

type watermarkPart struct {
	Mark string `json:"mark"`
}

func (watermarkPart) isPart()          {}
func (watermarkPart) PartKind() string { return "watermark" }

func TestContent_CustomPartKind(t *testing.T) {
	RegisterPartKind("watermark", func(raw json.RawMessage) (Part, error) {
		var p watermarkPart
		return p, json.Unmarshal(raw, &p)
	})

	orig := Content{Role: "assistant", Parts: []Part{watermarkPart{Mark: "v1"}}}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Content
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wp, ok := decoded.Parts[0].(watermarkPart); !ok || wp.Mark != "v1" {
		t.Errorf("custom part did not survive round trip: %+v", decoded.Parts[0])
	}
}

func TestContent_UnknownPartKind(t *testing.T) {
	payload := []byte(`{"role":"assistant","parts":[{"kind":"nope","data":{}}]}`)
	var decoded Content
	if err := json.Unmarshal(payload, &decoded); err == nil {
		t.Fatal("expected error for unregistered part kind")
	}
}

type unregisteredPart struct{}

func (unregisteredPart) isPart() {}

func TestContent_MarshalUnregisteredPart(t *testing.T) {
	c := Content{Parts: []Part{unregisteredPart{}}}
	if _, err := json.Marshal(c); err == nil {
		t.Fatal("expected error marshaling part without a kind")
	}
}
