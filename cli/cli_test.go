package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/engine/inmem"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/session"
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

func newTestRuntime(t *testing.T) *session.Runtime {
	t.Helper()
	agents := map[string]store.AgentConfig{
		"bot": {
			Name:      "bot",
			AgentType: store.AgentTypeProgrammatic,
			ProcessingFunc: func(store.ProcessingFuncContext) (store.ProcessingFuncOutput, error) {
				return store.ProcessingFuncOutput{Content: "pong"}, nil
			},
		},
	}
	r, err := session.New(context.Background(), session.Options{
		Store:  memstore.New(),
		Agents: agents,
		Tools:  toolregistry.NewStaticRegistry(),
		LLM:    &fakeLLM{},
		Engine: inmem.New(),
	})
	require.NoError(t, err)
	return r
}

func TestRunEchoesAgentReplyForEachLine(t *testing.T) {
	t.Parallel()
	r := newTestRuntime(t)
	in := strings.NewReader("@bot hi\n")
	var out strings.Builder

	err := Run(context.Background(), Options{
		Runtime:        r,
		ThreadExternal: "cli-thread",
		SenderID:       "user1",
		In:             in,
		Out:            &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "bot: pong")
}

func TestRunSkipsBlankLines(t *testing.T) {
	t.Parallel()
	r := newTestRuntime(t)
	in := strings.NewReader("\n\n@bot hi\n")
	var out strings.Builder

	err := Run(context.Background(), Options{
		Runtime:        r,
		ThreadExternal: "cli-thread-2",
		SenderID:       "user1",
		In:             in,
		Out:            &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "bot: pong")
}

func TestRunExitsOnQuitCommand(t *testing.T) {
	t.Parallel()
	r := newTestRuntime(t)
	in := strings.NewReader("/quit\n@bot hi\n")
	var out strings.Builder

	err := Run(context.Background(), Options{
		Runtime:        r,
		ThreadExternal: "cli-thread-3",
		SenderID:       "user1",
		In:             in,
		Out:            &out,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "pong")
}

func TestRunPrintsErrorOnStartFailure(t *testing.T) {
	t.Parallel()
	r := newTestRuntime(t)
	in := strings.NewReader("hi bot\n")
	var out strings.Builder

	err := Run(context.Background(), Options{
		Runtime: r,
		// no ThreadExternal and no ThreadID: Start should fail validation.
		SenderID: "user1",
		In:       in,
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "error:")
}

func TestRunUsesDefaultPromptWhenUnset(t *testing.T) {
	t.Parallel()
	r := newTestRuntime(t)
	in := strings.NewReader("")
	var out strings.Builder

	err := Run(context.Background(), Options{
		Runtime:        r,
		ThreadExternal: "cli-thread-4",
		SenderID:       "user1",
		In:             in,
		Out:            &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "> ")
}
