package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/toolregistry"
)

func TestToolResultProcessorPreProcessPersistsSuccessOutput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	deps, _ := newTestDeps(t, map[string]store.AgentConfig{}, toolregistry.NewStaticRegistry(), nil)

	evt := event.Event{ThreadID: "t1", Type: event.TypeToolResult, Payload: event.ToolResultPayload{
		AgentName: "assistant", CallID: "c1", Output: "42",
	}}
	res, err := ToolResultProcessor{}.PreProcess(ctx, evt, deps)
	require.NoError(t, err)
	assert.Empty(t, res.ProducedEvents)

	history, err := deps.Catalog.GetHistory(ctx, "t1", "assistant", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "tool output: 42", history[0].Content)
	assert.Equal(t, "c1", history[0].ToolCallID)
}

func TestToolResultProcessorPreProcessPersistsErrorMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	deps, _ := newTestDeps(t, map[string]store.AgentConfig{}, toolregistry.NewStaticRegistry(), nil)

	evt := event.Event{ThreadID: "t1", Type: event.TypeToolResult, Payload: event.ToolResultPayload{
		AgentName: "assistant", CallID: "c1", Error: &event.ToolCallError{Message: "boom"},
	}}
	_, err := ToolResultProcessor{}.PreProcess(ctx, evt, deps)
	require.NoError(t, err)

	history, err := deps.Catalog.GetHistory(ctx, "t1", "assistant", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Content, "tool error: boom")
}

func TestToolResultProcessorProcessEmitsFollowOnMessageToOriginatingAgent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	deps, _ := newTestDeps(t, map[string]store.AgentConfig{}, toolregistry.NewStaticRegistry(), nil)

	evt := event.Event{ThreadID: "t1", Type: event.TypeToolResult, Payload: event.ToolResultPayload{
		AgentName: "assistant", CallID: "c1", Output: map[string]any{"ok": true},
	}}
	res, err := ToolResultProcessor{}.Process(ctx, evt, deps)
	require.NoError(t, err)
	require.Len(t, res.ProducedEvents, 1)

	produced := res.ProducedEvents[0]
	assert.Equal(t, event.TypeMessage, produced.Type)
	p := produced.Payload.(event.MessagePayload)
	assert.Equal(t, "assistant", p.SenderID)
	assert.Equal(t, event.SenderTool, p.SenderType)
	assert.Equal(t, "c1", p.ToolCallID)
	assert.Contains(t, p.Content, `"ok":true`)
}

func TestFormatResultContentVariants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tool completed: No output returned", formatResultContent(event.ToolResultPayload{}))
	assert.Equal(t, "tool output: hi", formatResultContent(event.ToolResultPayload{Output: "hi"}))
	assert.Contains(t, formatResultContent(event.ToolResultPayload{Error: &event.ToolCallError{Message: "bad input"}}), "tool error: bad input")

	structured := formatResultContent(event.ToolResultPayload{Output: map[string]any{"n": 1}})
	assert.Contains(t, structured, "tool output:")
	assert.Contains(t, structured, `"n":1`)
}
