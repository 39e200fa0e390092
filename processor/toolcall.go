package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/toolregistry"
)

// ToolCallProcessor resolves, validates, and executes a single requested
// tool call, then emits its TOOL_RESULT.
type ToolCallProcessor struct{}

func (ToolCallProcessor) ShouldProcess(context.Context, event.Event, Deps) (bool, error) {
	return true, nil
}

func (ToolCallProcessor) PreProcess(context.Context, event.Event, Deps) (Result, error) {
	return Result{}, nil
}

func (ToolCallProcessor) Process(ctx context.Context, evt event.Event, deps Deps) (Result, error) {
	p, ok := evt.Payload.(event.ToolCallPayload)
	if !ok {
		return Result{}, fmt.Errorf("tool call processor: unexpected payload type %T", evt.Payload)
	}

	agent, ok := deps.Agents[p.AgentName]
	if !ok {
		return Result{}, nil
	}

	tool, found := deps.Tools.Get(ctx, p.Call.Function.Name)
	if !found || !store.Allowed(agent.AllowedTools, tool.Key()) || !toolPassesTagPolicy(ctx, deps, agent, tool.Key()) {
		return Result{ProducedEvents: []event.Event{
			newToolResultEvent(evt.ThreadID, p.AgentName, p.Call.ID, nil,
				fmt.Sprintf("tool %q is not available to agent %q", p.Call.Function.Name, p.AgentName)),
		}}, nil
	}

	argsRaw, parseErr := parseArguments(p.Call.Function.Arguments)
	if parseErr != nil {
		logEntry := store.ToolLog{
			ThreadID:     evt.ThreadID,
			ToolName:     tool.Key(),
			ToolInput:    p.Call.Function.Arguments,
			Status:       store.ToolLogError,
			ErrorMessage: parseErr.Error(),
			CreatedAt:    time.Now(),
		}
		if err := deps.Catalog.Store().CreateToolLogs(ctx, []store.ToolLog{logEntry}); err != nil {
			return Result{}, err
		}
		return Result{ProducedEvents: []event.Event{
			newToolResultEvent(evt.ThreadID, p.AgentName, p.Call.ID, nil, parseErr.Error()),
		}}, nil
	}
	if verr := toolregistry.ValidateArguments(tool.Key(), tool.InputSchema(), argsRaw); verr != nil {
		return Result{ProducedEvents: []event.Event{
			newToolResultEvent(evt.ThreadID, p.AgentName, p.Call.ID, nil, verr.Error()),
		}}, nil
	}

	if deps.Bus != nil {
		_ = deps.Bus.Publish(ctx, hooks.NewToolCalling(evt.ThreadID, tool.Key(), p.AgentName, argsRaw))
	}

	ec := toolregistry.ExecContext{
		ThreadID:   evt.ThreadID,
		SenderID:   p.AgentName,
		SenderType: string(event.SenderAgent),
		Extra: map[string]any{
			"agents": deps.Agents,
			"tools":  deps.Tools,
		},
	}

	execCtx := ctx
	var cancel context.CancelFunc
	if deps.ToolTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, time.Duration(deps.ToolTimeout)*time.Millisecond)
		defer cancel()
	}

	output, execErr := tool.Execute(execCtx, argsRaw, ec)

	if deps.Bus != nil {
		_ = deps.Bus.Publish(ctx, hooks.NewToolCompleted(evt.ThreadID, tool.Key(), output, execErr))
	}

	logEntry := store.ToolLog{
		ThreadID:   evt.ThreadID,
		ToolName:   tool.Key(),
		ToolInput:  json.RawMessage(argsRaw),
		ToolOutput: output,
		Status:     store.ToolLogSuccess,
		CreatedAt:  time.Now(),
	}
	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
	}
	if errMsg != "" {
		logEntry.Status = store.ToolLogError
		logEntry.ErrorMessage = errMsg
	}
	if err := deps.Catalog.Store().CreateToolLogs(ctx, []store.ToolLog{logEntry}); err != nil {
		return Result{}, err
	}

	if errMsg != "" {
		return Result{ProducedEvents: []event.Event{
			newToolResultEvent(evt.ThreadID, p.AgentName, p.Call.ID, nil, errMsg),
		}}, nil
	}
	return Result{ProducedEvents: []event.Event{
		newToolResultEvent(evt.ThreadID, p.AgentName, p.Call.ID, output, ""),
	}}, nil
}

// parseArguments parses a tool call's raw arguments string as JSON. A
// parse failure is reported to the caller rather than panicking so it can
// be recorded as a failed tool log and returned as a TOOL_RESULT error.
func parseArguments(raw string) (json.RawMessage, error) {
	if raw == "" {
		return json.RawMessage("{}"), nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return json.RawMessage(raw), nil
}

func newToolResultEvent(threadID, agentName, callID string, output any, errMsg string) event.Event {
	p := event.ToolResultPayload{
		AgentName: agentName,
		CallID:    callID,
		Output:    output,
	}
	if errMsg != "" {
		p.Error = &event.ToolCallError{Message: errMsg}
	}
	return event.Event{
		ThreadID: threadID,
		Type:     event.TypeToolResult,
		Payload:  p,
	}
}
