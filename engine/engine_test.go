package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/telemetry"
)

type fakeWorkflowContext struct {
	ctx         context.Context
	activityErr error
	calledReq   ActivityRequest
}

func (f *fakeWorkflowContext) Context() context.Context { return f.ctx }
func (f *fakeWorkflowContext) WorkflowID() string        { return "wf1" }
func (f *fakeWorkflowContext) RunID() string             { return "run1" }
func (f *fakeWorkflowContext) ExecuteActivity(_ context.Context, req ActivityRequest, _ any) error {
	f.calledReq = req
	return f.activityErr
}
func (f *fakeWorkflowContext) ExecuteActivityAsync(context.Context, ActivityRequest) (Future, error) {
	return nil, nil
}
func (f *fakeWorkflowContext) SignalChannel(string) SignalChannel { return nil }
func (f *fakeWorkflowContext) Logger() telemetry.Logger           { return telemetry.NewNoopLogger() }
func (f *fakeWorkflowContext) Metrics() telemetry.Metrics         { return telemetry.NewNoopMetrics() }
func (f *fakeWorkflowContext) Tracer() telemetry.Tracer           { return telemetry.NewNoopTracer() }
func (f *fakeWorkflowContext) Now() time.Time                     { return time.Now() }

func TestDrainThreadWorkflowRejectsWrongInputType(t *testing.T) {
	t.Parallel()
	wf := &fakeWorkflowContext{ctx: context.Background()}
	_, err := DrainThreadWorkflow(wf, "not-the-right-type")
	assert.Error(t, err)
}

func TestDrainThreadWorkflowSchedulesExactlyOneActivity(t *testing.T) {
	t.Parallel()
	wf := &fakeWorkflowContext{ctx: context.Background()}
	in := DrainThreadInput{ThreadID: "t1"}
	_, err := DrainThreadWorkflow(wf, in)
	require.NoError(t, err)
	assert.Equal(t, DrainActivityName, wf.calledReq.Name)
	assert.Equal(t, in, wf.calledReq.Input)
}

func TestDrainThreadWorkflowPropagatesActivityError(t *testing.T) {
	t.Parallel()
	boom := assert.AnError
	wf := &fakeWorkflowContext{ctx: context.Background(), activityErr: boom}
	_, err := DrainThreadWorkflow(wf, DrainThreadInput{ThreadID: "t1"})
	assert.ErrorIs(t, err, boom)
}
