package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/store"
)

// ToolResultProcessor turns a TOOL_RESULT event into a persisted tool
// Message and, unless a host callback intercepts it, a follow-on MESSAGE
// event addressed back to the agent that requested the call.
type ToolResultProcessor struct{}

func (ToolResultProcessor) ShouldProcess(context.Context, event.Event, Deps) (bool, error) {
	return true, nil
}

// PreProcess persists the tool-result Message unconditionally, before any
// onEvent override runs. Persistence must not depend on whether a host
// callback later suppresses the follow-on MESSAGE event.
func (ToolResultProcessor) PreProcess(ctx context.Context, evt event.Event, deps Deps) (Result, error) {
	p, ok := evt.Payload.(event.ToolResultPayload)
	if !ok {
		return Result{}, fmt.Errorf("tool result processor: unexpected payload type %T", evt.Payload)
	}

	msg, err := deps.Catalog.CreateMessage(ctx, store.Message{
		ThreadID:   evt.ThreadID,
		SenderID:   p.AgentName,
		SenderType: event.SenderTool,
		Content:    formatResultContent(p),
		ToolCallID: p.CallID,
	})
	if err != nil {
		return Result{}, err
	}
	if deps.Bus != nil {
		_ = deps.Bus.Publish(ctx, hooks.NewMessageSent(msg))
	}
	return Result{}, nil
}

// Process emits the follow-on MESSAGE event that steers the result back to
// the originating agent (Router rule 1). A host onEvent callback overriding
// this event (e.g. to respond programmatically instead) does not affect the
// persistence PreProcess already performed.
func (ToolResultProcessor) Process(ctx context.Context, evt event.Event, deps Deps) (Result, error) {
	p, ok := evt.Payload.(event.ToolResultPayload)
	if !ok {
		return Result{}, fmt.Errorf("tool result processor: unexpected payload type %T", evt.Payload)
	}
	return Result{ProducedEvents: []event.Event{{
		ThreadID: evt.ThreadID,
		Type:     event.TypeMessage,
		Payload: event.MessagePayload{
			SenderID:   p.AgentName,
			SenderType: event.SenderTool,
			Content:    formatResultContent(p),
			ToolCallID: p.CallID,
		},
	}}}, nil
}

// formatResultContent renders a tool result as chat content: an error
// message when execution failed, a string output verbatim, a structured
// output as compact JSON, and a fixed placeholder when there is neither.
func formatResultContent(p event.ToolResultPayload) string {
	if p.Error != nil {
		return "tool error: " + p.Error.Message + "\n\nPlease review the error above and try again with the correct format."
	}
	switch v := p.Output.(type) {
	case nil:
		return "tool completed: No output returned"
	case string:
		return "tool output: " + v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("tool output: %v", v)
		}
		return "tool output: " + string(raw)
	}
}
