package flow

import (
	"fmt"

	"github.com/loomlabs/loom/core"
	internalutil "github.com/loomlabs/loom/internal/util"
	"github.com/loomlabs/loom/model"
)

// InstructionsProcessor handles system prompt and instruction processing.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest resolves and templates system instructions into the request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	if runCtx.Session != nil && runCtx.Session.State != nil {
		// Apply template substitution using session state
		req.Instructions, err = internalutil.RenderTemplate(instructions, runCtx.Session.State)
		if err != nil {
			return fmt.Errorf("failed to render template: %w", err)
		}
	} else {
		req.Instructions = instructions
	}

	return nil
}

// ContentsProcessor assembles conversation contents for the model request.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds conversation history and the current user content to the request.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	var contents []core.Content

	if runCtx.Session != nil {
		events := runCtx.Session.GetConversationHistory()
		if max := agent.MaxHistoryMessages(); max > 0 && len(events) > max {
			events = events[len(events)-max:]
		}
		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	// The current user content is appended last when the history does not
	// already end with it (fresh runs emit it to the session before the flow
	// starts, replayed runs may not).
	if len(runCtx.UserContent.Parts) > 0 {
		if len(contents) == 0 || !sameContent(contents[len(contents)-1], runCtx.UserContent) {
			contents = append(contents, runCtx.UserContent)
		}
	}

	req.Contents = contents
	return nil
}

func sameContent(a, b core.Content) bool {
	if a.Role != b.Role || len(a.Parts) != len(b.Parts) {
		return false
	}
	for i := range a.Parts {
		ta, aok := a.Parts[i].(core.TextPart)
		tb, bok := b.Parts[i].(core.TextPart)
		if aok != bok {
			return false
		}
		if aok && ta.Text != tb.Text {
			return false
		}
	}
	return true
}
