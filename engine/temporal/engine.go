// Package temporal implements engine.Engine on top of Temporal, giving the
// per-thread drain workflow cross-process durability and replay. Tracing and
// metrics are wired through the plain OpenTelemetry SDK (see telemetry/clue)
// rather than Temporal's own OTEL contrib interceptor, so the deployment
// carries one tracing path instead of two.
package temporal

import (
	"context"
	"fmt"
	"sync"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	tpr "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/flowmesh-ai/flowmesh/engine"
	"github.com/flowmesh-ai/flowmesh/telemetry"
)

// Options configures the Temporal engine adapter.
type Options struct {
	// Client is a pre-configured Temporal client. Required: this package does
	// not construct one, since connection options (host, namespace, TLS) are
	// deployment-specific and already owned by the host application.
	Client client.Client
	// TaskQueue is the default queue used when a WorkflowDefinition or
	// ActivityOptions omits one.
	TaskQueue string
	// WorkerOptions is forwarded to worker.New for the default queue.
	WorkerOptions worker.Options
	Logger        telemetry.Logger
}

type Engine struct {
	client       client.Client
	defaultQueue string
	workerOpts   worker.Options
	logger       telemetry.Logger

	mu            sync.Mutex
	workers       map[string]worker.Worker
	workflows     map[string]engine.WorkflowDefinition
	workerStarted bool
}

// New builds a Temporal-backed Engine. Workers are created lazily, one per
// distinct task queue, and started on the first StartWorkflow call.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("temporal engine: Client is required")
	}
	if opts.TaskQueue == "" {
		return nil, fmt.Errorf("temporal engine: TaskQueue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Engine{
		client:       opts.Client,
		defaultQueue: opts.TaskQueue,
		workerOpts:   opts.WorkerOptions,
		logger:       logger,
		workers:      make(map[string]worker.Worker),
		workflows:    make(map[string]engine.WorkflowDefinition),
	}, nil
}

func (e *Engine) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return fmt.Errorf("temporal engine: invalid workflow definition")
	}
	queue := def.TaskQueue
	if queue == "" {
		queue = e.defaultQueue
	}
	w, err := e.workerForQueue(queue)
	if err != nil {
		return err
	}
	w.RegisterWorkflowWithOptions(func(tctx workflow.Context, input any) (any, error) {
		return def.Handler(&workflowContext{tctx: tctx}, input)
	}, workflow.RegisterOptions{Name: def.Name})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.workflows[def.Name] = def
	return nil
}

func (e *Engine) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return fmt.Errorf("temporal engine: invalid activity definition")
	}
	queue := def.Options.Queue
	if queue == "" {
		queue = e.defaultQueue
	}
	w, err := e.workerForQueue(queue)
	if err != nil {
		return err
	}
	w.RegisterActivityWithOptions(func(actx context.Context, input any) (any, error) {
		return def.Handler(actx, input)
	}, activity.RegisterOptions{Name: def.Name})
	return nil
}

func (e *Engine) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	e.mu.Lock()
	def, ok := e.workflows[req.Workflow]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("temporal engine: workflow %q not registered", req.Workflow)
	}

	e.ensureWorkersStarted()

	queue := req.TaskQueue
	if queue == "" {
		queue = def.TaskQueue
	}
	if queue == "" {
		queue = e.defaultQueue
	}

	startOpts := client.StartWorkflowOptions{ID: req.ID, TaskQueue: queue}
	if rp := req.RetryPolicy; rp.MaxAttempts > 0 || rp.InitialInterval > 0 {
		startOpts.RetryPolicy = convertRetryPolicy(rp)
	}

	run, err := e.client.ExecuteWorkflow(ctx, startOpts, req.Workflow, req.Input)
	if err != nil {
		return nil, err
	}
	return &workflowHandle{run: run, client: e.client}, nil
}

func (e *Engine) workerForQueue(queue string) (worker.Worker, error) {
	if queue == "" {
		return nil, fmt.Errorf("temporal engine: no task queue configured")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.workers[queue]; ok {
		return w, nil
	}
	w := worker.New(e.client, queue, e.workerOpts)
	e.workers[queue] = w
	if e.workerStarted {
		e.startWorker(w, queue)
	}
	return w, nil
}

// StartWorkers launches every worker registered so far. Call this once after
// registering all workflows/activities, before the first StartWorkflow, if
// you want workers running ahead of the first execution rather than lazily.
func (e *Engine) StartWorkers() {
	e.ensureWorkersStarted()
}

func (e *Engine) ensureWorkersStarted() {
	e.mu.Lock()
	if e.workerStarted {
		e.mu.Unlock()
		return
	}
	e.workerStarted = true
	workers := make(map[string]worker.Worker, len(e.workers))
	for q, w := range e.workers {
		workers[q] = w
	}
	e.mu.Unlock()
	for q, w := range workers {
		e.startWorker(w, q)
	}
}

func (e *Engine) startWorker(w worker.Worker, queue string) {
	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			e.logger.Error(context.Background(), "temporal worker exited", "queue", queue, "err", err)
		}
	}()
}

func convertRetryPolicy(rp engine.RetryPolicy) *tpr.RetryPolicy {
	return &tpr.RetryPolicy{
		MaximumAttempts:    int32(rp.MaxAttempts),
		InitialInterval:    rp.InitialInterval,
		BackoffCoefficient: rp.BackoffCoefficient,
	}
}
