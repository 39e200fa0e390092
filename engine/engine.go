// Package engine abstracts workflow registration and execution so the
// per-thread Worker loop can run under a plain in-process goroutine engine
// (package inmem) or under Temporal (package temporal) for cross-process
// durability, without MessageProcessor/ToolCallProcessor code changing.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/flowmesh-ai/flowmesh/telemetry"
)

type (
	// Engine registers workflow/activity definitions and starts executions.
	Engine interface {
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error
		RegisterActivity(ctx context.Context, def ActivityDefinition) error
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)
	}

	// WorkflowDefinition binds a workflow handler to a logical name and
	// default queue.
	WorkflowDefinition struct {
		Name      string
		TaskQueue string
		Handler   WorkflowFunc
	}

	// WorkflowFunc is a workflow entry point. It must be deterministic: the
	// only non-deterministic work (LLM calls, tool execution, Store I/O)
	// belongs in an Activity invoked via ExecuteActivity, never inline.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext exposes engine operations to a running workflow.
	WorkflowContext interface {
		Context() context.Context
		WorkflowID() string
		RunID() string
		ExecuteActivity(ctx context.Context, req ActivityRequest, result any) error
		ExecuteActivityAsync(ctx context.Context, req ActivityRequest) (Future, error)
		SignalChannel(name string) SignalChannel
		Logger() telemetry.Logger
		Metrics() telemetry.Metrics
		Tracer() telemetry.Tracer
		Now() time.Time
	}

	// Future is a pending activity result.
	Future interface {
		Get(ctx context.Context, result any) error
		IsReady() bool
	}

	// ActivityDefinition registers an activity handler.
	ActivityDefinition struct {
		Name    string
		Handler ActivityFunc
		Options ActivityOptions
	}

	// ActivityFunc performs the non-deterministic side effects a workflow
	// delegates to it (I/O, LLM calls, tool execution).
	ActivityFunc func(ctx context.Context, input any) (any, error)

	// ActivityOptions configures retry/timeout behavior for an activity.
	ActivityOptions struct {
		Queue       string
		RetryPolicy RetryPolicy
		Timeout     time.Duration
	}

	// WorkflowStartRequest describes a workflow execution to launch.
	WorkflowStartRequest struct {
		ID               string
		Workflow         string
		TaskQueue        string
		Input            any
		Memo             map[string]any
		SearchAttributes map[string]any
		RetryPolicy      RetryPolicy
	}

	// ActivityRequest schedules an activity from within a workflow.
	ActivityRequest struct {
		Name        string
		Input       any
		Queue       string
		RetryPolicy RetryPolicy
		Timeout     time.Duration
	}

	// WorkflowHandle lets callers interact with a running workflow.
	WorkflowHandle interface {
		Wait(ctx context.Context, result any) error
		Signal(ctx context.Context, name string, payload any) error
		Cancel(ctx context.Context) error
	}

	// RetryPolicy is shared retry configuration. Zero-valued fields mean
	// "use the engine's default".
	RetryPolicy struct {
		MaxAttempts        int
		InitialInterval    time.Duration
		BackoffCoefficient float64
	}

	// SignalChannel exposes workflow signal delivery engine-agnostically.
	SignalChannel interface {
		Receive(ctx context.Context, dest any) error
		ReceiveAsync(dest any) bool
	}
)

// WorkflowName is the logical name under which FlowMesh registers its single
// workflow: draining one thread's event queue to quiescence.
const WorkflowName = "DrainThreadWorkflow"

// DrainActivityName is the logical name of the activity that actually runs
// the Worker loop. It is the only non-deterministic step the workflow calls.
const DrainActivityName = "DrainThreadActivity"

// DrainThreadInput is the input to WorkflowName and DrainActivityName: the
// single thread whose queue should be drained.
type DrainThreadInput struct {
	ThreadID string
}

// DrainThreadWorkflow is the WorkflowFunc shared by every Engine backend. It
// schedules exactly one activity, keeping the workflow itself trivially
// deterministic regardless of what backend replays it.
func DrainThreadWorkflow(ctx WorkflowContext, input any) (any, error) {
	in, ok := input.(DrainThreadInput)
	if !ok {
		return nil, errInvalidWorkflowInput
	}
	var result struct{}
	err := ctx.ExecuteActivity(ctx.Context(), ActivityRequest{
		Name:  DrainActivityName,
		Input: in,
	}, &result)
	return nil, err
}

var errInvalidWorkflowInput = errors.New("engine: unexpected workflow input type")
