package model

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/loomlabs/loom/core"
)

func TestRegistry_ExactAndPattern(t *testing.T) {
	reg := NewRegistry()
	reg.Register("claude-*", func(name string) (Model, error) {
		return NewMockModel(name, "anthropic"), nil
	})
	reg.Register("gpt-*", func(name string) (Model, error) {
		return NewMockModel(name, "openai"), nil
	})
	reg.RegisterModel("local-test", NewMockModel("local-test", "mock"))

	m, err := reg.New("claude-sonnet-4")
	if err != nil {
		t.Fatalf("pattern lookup failed: %v", err)
	}
	if info := m.Info(); info.Provider != "anthropic" || info.Name != "claude-sonnet-4" {
		t.Errorf("factory did not receive full name: %+v", info)
	}

	m, err = reg.New("local-test")
	if err != nil {
		t.Fatalf("exact lookup failed: %v", err)
	}
	if m.Info().Provider != "mock" {
		t.Errorf("exact lookup returned wrong model: %+v", m.Info())
	}

	if _, err := reg.New("gemini-pro"); err == nil {
		t.Fatal("expected error for unregistered name")
	}
}

func TestRegistry_ExactWinsOverPattern(t *testing.T) {
	reg := NewRegistry()
	reg.Register("claude-*", func(name string) (Model, error) {
		return NewMockModel(name, "pattern"), nil
	})
	reg.RegisterModel("claude-sonnet-4", NewMockModel("claude-sonnet-4", "exact"))

	m, err := reg.New("claude-sonnet-4")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.Info().Provider != "exact" {
		t.Errorf("exact registration should shadow pattern: %+v", m.Info())
	}
}

func TestRegistry_LongestPrefixWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("claude-*", func(name string) (Model, error) {
		return NewMockModel(name, "short"), nil
	})
	reg.Register("claude-sonnet-*", func(name string) (Model, error) {
		return NewMockModel(name, "long"), nil
	})

	m, err := reg.New("claude-sonnet-4")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.Info().Provider != "long" {
		t.Errorf("longest prefix should win: %+v", m.Info())
	}
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mock-*", func(name string) (Model, error) {
		return NewMockModel(name, "mock"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("mock-%d", i)
			if i%4 == 0 {
				reg.RegisterModel(name, NewMockModel(name, "exact"))
			}
			if _, err := reg.New("mock-anything"); err != nil {
				t.Errorf("lookup failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestCollect_FinalsOnly(t *testing.T) {
	m := NewMockModel("m", "mock")
	m.AddResponse("hi", "hello there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Stream: true,
		Contents: []core.Content{
			{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}},
		},
	})
	finals, err := Collect(context.Background(), respCh, errCh)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(finals) != 1 || finals[0].Partial {
		t.Fatalf("expected single final response, got %+v", finals)
	}
	if finals[0].Content.Role != "assistant" {
		t.Errorf("unexpected final content: %+v", finals[0].Content)
	}
}

func TestCollect_ProviderError(t *testing.T) {
	m := NewMockModel("m", "mock")
	respCh, errCh := m.Generate(context.Background(), Request{})
	if _, err := Collect(context.Background(), respCh, errCh); err == nil {
		t.Fatal("expected error for empty contents")
	}
}
