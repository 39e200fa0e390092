package temporal

import (
	"context"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/flowmesh-ai/flowmesh/engine"
	"github.com/flowmesh-ai/flowmesh/telemetry"
)

// workflowContext adapts a Temporal workflow.Context to engine.WorkflowContext.
// Every method that touches determinism-sensitive state (Now, ExecuteActivity,
// SignalChannel) delegates straight to the Temporal SDK rather than caching or
// recomputing anything, so replay behaves identically to the original run.
type workflowContext struct {
	tctx workflow.Context
}

func (w *workflowContext) Context() context.Context {
	// Workflow code must not use a stdlib context for cancellation; callers
	// that need one (e.g. to pass to ExecuteActivity) use Context() only as
	// a carrier value, never for direct I/O.
	return context.Background()
}

func (w *workflowContext) WorkflowID() string { return workflow.GetInfo(w.tctx).WorkflowExecution.ID }
func (w *workflowContext) RunID() string      { return workflow.GetInfo(w.tctx).WorkflowExecution.RunID }
func (w *workflowContext) Now() time.Time     { return workflow.Now(w.tctx) }

func (w *workflowContext) Logger() telemetry.Logger     { return telemetry.NewNoopLogger() }
func (w *workflowContext) Metrics() telemetry.Metrics   { return telemetry.NewNoopMetrics() }
func (w *workflowContext) Tracer() telemetry.Tracer     { return telemetry.NewNoopTracer() }

func (w *workflowContext) ExecuteActivity(_ context.Context, req engine.ActivityRequest, result any) error {
	fut, err := w.ExecuteActivityAsync(nil, req)
	if err != nil {
		return err
	}
	return fut.Get(nil, result)
}

func (w *workflowContext) ExecuteActivityAsync(_ context.Context, req engine.ActivityRequest) (engine.Future, error) {
	ao := workflow.ActivityOptions{
		TaskQueue:           req.Queue,
		StartToCloseTimeout: req.Timeout,
	}
	if ao.StartToCloseTimeout == 0 {
		ao.StartToCloseTimeout = 10 * time.Minute
	}
	if rp := req.RetryPolicy; rp.MaxAttempts > 0 || rp.InitialInterval > 0 {
		ao.RetryPolicy = convertRetryPolicy(rp)
	}
	actx := workflow.WithActivityOptions(w.tctx, ao)
	return &future{tctx: actx, f: workflow.ExecuteActivity(actx, req.Name, req.Input)}, nil
}

func (w *workflowContext) SignalChannel(name string) engine.SignalChannel {
	return &signalChannel{tctx: w.tctx, ch: workflow.GetSignalChannel(w.tctx, name)}
}

type future struct {
	tctx workflow.Context
	f    workflow.Future
}

func (fu *future) Get(_ context.Context, result any) error {
	return fu.f.Get(fu.tctx, result)
}

func (fu *future) IsReady() bool { return fu.f.IsReady() }

type signalChannel struct {
	tctx workflow.Context
	ch   workflow.ReceiveChannel
}

func (s *signalChannel) Receive(_ context.Context, dest any) error {
	s.ch.Receive(s.tctx, dest)
	return nil
}

func (s *signalChannel) ReceiveAsync(dest any) bool {
	return s.ch.ReceiveAsync(dest)
}
