package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/engine/inmem"
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/store/memstore"
	"github.com/flowmesh-ai/flowmesh/toolregistry"
)

type fakeLLM struct {
	resp llm.ChatResponse
	err  error
}

func (f *fakeLLM) Chat(context.Context, llm.ChatRequest) (llm.ChatResponse, error) {
	return f.resp, f.err
}

type noopTool struct{ key string }

func (n noopTool) Key() string                 { return n.key }
func (n noopTool) Name() string                { return n.key }
func (n noopTool) Description() string         { return "" }
func (n noopTool) InputSchema() json.RawMessage { return nil }
func (n noopTool) Execute(context.Context, json.RawMessage, toolregistry.ExecContext) (any, error) {
	return nil, nil
}

func baseOpts(agents map[string]store.AgentConfig, svc llm.Service) Options {
	return Options{
		Store:  memstore.New(),
		Agents: agents,
		Tools:  toolregistry.NewStaticRegistry(noopTool{key: "search"}),
		LLM:    svc,
		Engine: inmem.New(),
	}
}

func TestNewRejectsEmptyAgents(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), baseOpts(nil, &fakeLLM{}))
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestNewRejectsMissingStore(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, &fakeLLM{})
	opts.Store = nil
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestNewRejectsMissingTools(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, &fakeLLM{})
	opts.Tools = nil
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestNewRejectsMissingLLM(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, nil)
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestNewRejectsMissingEngine(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, &fakeLLM{})
	opts.Engine = nil
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestNewBuildsRuntimeAndRegistersWorkflow(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, &fakeLLM{})
	r, err := New(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, r.Catalog())
}

func TestStartRequiresContent(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, &fakeLLM{})
	r, err := New(context.Background(), opts)
	require.NoError(t, err)

	_, err = r.Start(context.Background(), Request{ThreadID: "t1"})
	assert.Error(t, err)
}

func TestStartRequiresThreadIdentifier(t *testing.T) {
	t.Parallel()
	opts := baseOpts(map[string]store.AgentConfig{"bot": {Name: "bot"}}, &fakeLLM{})
	r, err := New(context.Background(), opts)
	require.NoError(t, err)

	_, err = r.Start(context.Background(), Request{Content: "hi"})
	assert.Error(t, err)
}

func TestStartCreatesThreadDrainsQueueAndReturnsResult(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{
		"bot": {
			Name:      "bot",
			AgentType: store.AgentTypeProgrammatic,
			ProcessingFunc: func(store.ProcessingFuncContext) (store.ProcessingFuncOutput, error) {
				return store.ProcessingFuncOutput{Content: "ack"}, nil
			},
		},
	}
	opts := baseOpts(agents, &fakeLLM{})
	r, err := New(context.Background(), opts)
	require.NoError(t, err)

	res, err := r.Start(context.Background(), Request{
		ThreadID:     "t1",
		SenderID:     "user1",
		Content:      "hi bot",
		Participants: []string{"user1", "bot"},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.ThreadID)
	assert.Equal(t, "queued", res.Status)
	assert.NotEmpty(t, res.QueueID)

	history, err := r.Catalog().GetHistory(context.Background(), "t1", "bot", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ack", history[1].Content)
}

func TestStartDefaultsSenderTypeAndUsesUserIDFallback(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{"bot": {Name: "bot"}}
	opts := baseOpts(agents, &fakeLLM{resp: llm.ChatResponse{Success: false}})
	r, err := New(context.Background(), opts)
	require.NoError(t, err)

	_, err = r.Start(context.Background(), Request{
		ThreadID:     "t1",
		UserID:       "user9",
		Content:      "hi",
		Participants: []string{"user9", "bot"},
	})
	require.NoError(t, err)

	history, err := r.Catalog().GetHistory(context.Background(), "t1", "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "user9", history[0].SenderID)
	assert.Equal(t, event.SenderUser, history[0].SenderType)
}
