package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/engine"
)

func TestRegisterWorkflowRejectsDuplicates(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	def := engine.WorkflowDefinition{Name: "wf", Handler: func(engine.WorkflowContext, any) (any, error) { return nil, nil }}
	require.NoError(t, e.RegisterWorkflow(ctx, def))
	assert.Error(t, e.RegisterWorkflow(ctx, def))
}

func TestRegisterActivityRejectsDuplicates(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	def := engine.ActivityDefinition{Name: "act", Handler: func(context.Context, any) (any, error) { return nil, nil }}
	require.NoError(t, e.RegisterActivity(ctx, def))
	assert.Error(t, e.RegisterActivity(ctx, def))
}

func TestStartWorkflowRunsHandlerAndReturnsResult(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "wf",
		Handler: func(wfCtx engine.WorkflowContext, input any) (any, error) {
			return "result:" + input.(string), nil
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "w1", Workflow: "wf", Input: "hello"})
	require.NoError(t, err)

	var result string
	require.NoError(t, h.Wait(ctx, &result))
	assert.Equal(t, "result:hello", result)
}

func TestStartWorkflowUnregisteredNameErrors(t *testing.T) {
	t.Parallel()
	e := New()
	_, err := e.StartWorkflow(context.Background(), engine.WorkflowStartRequest{ID: "w1", Workflow: "missing"})
	assert.Error(t, err)
}

func TestStartWorkflowRequiresID(t *testing.T) {
	t.Parallel()
	e := New()
	_, err := e.StartWorkflow(context.Background(), engine.WorkflowStartRequest{Workflow: "wf"})
	assert.Error(t, err)
}

func TestExecuteActivityRunsRegisteredHandlerAndReturnsResult(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	require.NoError(t, e.RegisterActivity(ctx, engine.ActivityDefinition{
		Name:    "double",
		Handler: func(_ context.Context, input any) (any, error) { return input.(int) * 2, nil },
	}))
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "wf",
		Handler: func(wfCtx engine.WorkflowContext, input any) (any, error) {
			var out int
			err := wfCtx.ExecuteActivity(wfCtx.Context(), engine.ActivityRequest{Name: "double", Input: input}, &out)
			return out, err
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "w1", Workflow: "wf", Input: 21})
	require.NoError(t, err)

	var result int
	require.NoError(t, h.Wait(ctx, &result))
	assert.Equal(t, 42, result)
}

func TestExecuteActivityUnregisteredNameErrors(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "wf",
		Handler: func(wfCtx engine.WorkflowContext, input any) (any, error) {
			return nil, wfCtx.ExecuteActivity(wfCtx.Context(), engine.ActivityRequest{Name: "missing"}, nil)
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "w1", Workflow: "wf"})
	require.NoError(t, err)
	assert.Error(t, h.Wait(ctx, nil))
}

func TestSignalDeliversToSignalChannel(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	received := make(chan string, 1)
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "wf",
		Handler: func(wfCtx engine.WorkflowContext, _ any) (any, error) {
			var sig string
			if err := wfCtx.SignalChannel("go").Receive(wfCtx.Context(), &sig); err != nil {
				return nil, err
			}
			received <- sig
			return nil, nil
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "w1", Workflow: "wf"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.Signal(ctx, "go", "proceed") == nil
	}, time.Second, time.Millisecond)

	select {
	case sig := <-received:
		assert.Equal(t, "proceed", sig)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signal delivery")
	}
}

func TestReceiveAsyncReturnsFalseWhenNoSignalPending(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	result := make(chan bool, 1)
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "wf",
		Handler: func(wfCtx engine.WorkflowContext, _ any) (any, error) {
			var dest string
			result <- wfCtx.SignalChannel("go").ReceiveAsync(&dest)
			return nil, nil
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "w1", Workflow: "wf"})
	require.NoError(t, err)
	require.NoError(t, h.Wait(ctx, nil))
	assert.False(t, <-result)
}

func TestCancelIsNoOp(t *testing.T) {
	t.Parallel()
	e := New()
	ctx := context.Background()
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name:    "wf",
		Handler: func(engine.WorkflowContext, any) (any, error) { return nil, nil },
	}))
	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "w1", Workflow: "wf"})
	require.NoError(t, err)
	assert.NoError(t, h.Cancel(ctx))
}
