// Package session implements the createThread entry point: resolve or
// create a thread, enqueue the first MESSAGE event, and drive that thread's
// queue to quiescence before returning.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowmesh-ai/flowmesh/catalog"
	"github.com/flowmesh-ai/flowmesh/engine"
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/processor"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/telemetry"
	"github.com/flowmesh-ai/flowmesh/toolregistry"
	"github.com/flowmesh-ai/flowmesh/worker"
)

// Request is the input to Start: the incoming message plus, on first
// contact, the thread's identifying and participant attributes.
type Request struct {
	ThreadID       string
	ThreadExternal string
	SenderID       string
	SenderType     event.SenderType
	Content        string
	ThreadName     string
	ParentThreadID string
	Participants   []string
	UserID         string
}

// Result is the output of Start.
type Result struct {
	QueueID  string
	Status   string
	ThreadID string
}

// Options configures a Runtime: the agent/tool catalog a thread routes
// against, the durability engine that drives its Worker, and the optional
// lifecycle callback surface.
type Options struct {
	Store       store.Store
	Agents      map[string]store.AgentConfig
	Tools       toolregistry.ToolRegistry
	LLM         llm.Service
	Engine      engine.Engine
	Bus         hooks.Bus
	OnEvent     processor.OnEventFunc
	Logger      telemetry.Logger
	Metrics     telemetry.Metrics
	Tracer      telemetry.Tracer
	ToolTimeout int64
}

// Runtime wires a catalog, worker pool and engine together and exposes
// Start as the session-level entry point.
type Runtime struct {
	catalog  *catalog.Catalog
	registry *processor.Registry
	pool     *worker.Pool
	engine   engine.Engine
	opts     Options
}

// ErrNoAgents is returned by New when opts.Agents is empty; a thread with no
// possible routing target can never make progress.
var ErrNoAgents = errors.New("session: no agents provided")

// New validates opts and builds a Runtime. It registers FlowMesh's single
// workflow/activity pair on opts.Engine, wiring the activity to Pool.Run so
// the engine's replay boundary lines up with "drain one thread's queue".
func New(ctx context.Context, opts Options) (*Runtime, error) {
	if len(opts.Agents) == 0 {
		return nil, ErrNoAgents
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session: Store is required")
	}
	if opts.Tools == nil {
		return nil, fmt.Errorf("session: Tools is required")
	}
	if opts.LLM == nil {
		return nil, fmt.Errorf("session: LLM is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("session: Engine is required")
	}

	cat := catalog.New(opts.Store)
	registry := DefaultRegistry()

	r := &Runtime{catalog: cat, registry: registry, engine: opts.Engine, opts: opts}
	r.pool = worker.NewPool(func() *worker.Worker {
		return &worker.Worker{
			Registry: registry,
			Deps: processor.Deps{
				Catalog:     cat,
				Tools:       opts.Tools,
				LLM:         opts.LLM,
				Agents:      opts.Agents,
				Bus:         opts.Bus,
				Logger:      opts.Logger,
				Metrics:     opts.Metrics,
				Tracer:      opts.Tracer,
				ToolTimeout: opts.ToolTimeout,
			},
			OnEvent: opts.OnEvent,
			Logger:  opts.Logger,
		}
	})

	if err := opts.Engine.RegisterActivity(ctx, engine.ActivityDefinition{
		Name: engine.DrainActivityName,
		Handler: func(actx context.Context, input any) (any, error) {
			in, ok := input.(engine.DrainThreadInput)
			if !ok {
				return nil, fmt.Errorf("session: unexpected activity input type %T", input)
			}
			return nil, r.pool.Run(actx, in.ThreadID)
		},
	}); err != nil {
		return nil, err
	}
	if err := opts.Engine.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name:    engine.WorkflowName,
		Handler: engine.DrainThreadWorkflow,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// Start resolves or creates req's thread, enqueues the initial MESSAGE
// event, runs the thread's workflow to completion, and returns the queued
// event's id alongside the resolved thread id.
func (r *Runtime) Start(ctx context.Context, req Request) (Result, error) {
	if req.Content == "" {
		return Result{}, fmt.Errorf("session: content is required")
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = req.ThreadExternal
	}
	if threadID == "" {
		return Result{}, fmt.Errorf("session: threadId or threadExternalId is required")
	}

	thread, err := r.opts.Store.FindOrCreateThread(ctx, threadID, store.ThreadSpec{
		ExternalID:     req.ThreadExternal,
		Name:           req.ThreadName,
		Participants:   req.Participants,
		ParentThreadID: req.ParentThreadID,
	})
	if err != nil {
		return Result{}, err
	}

	senderType := req.SenderType
	if senderType == "" {
		senderType = event.SenderUser
	}
	senderID := req.SenderID
	if senderID == "" {
		senderID = req.UserID
	}

	queued, err := r.opts.Store.Enqueue(ctx, event.Event{
		ThreadID: thread.ID,
		Type:     event.TypeMessage,
		Payload: event.MessagePayload{
			SenderID:   senderID,
			SenderType: senderType,
			Content:    req.Content,
		},
	})
	if err != nil {
		return Result{}, err
	}

	workflowID := fmt.Sprintf("thread-%s", thread.ID)
	handle, err := r.engine.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:       workflowID,
		Workflow: engine.WorkflowName,
		Input:    engine.DrainThreadInput{ThreadID: thread.ID},
	})
	if err != nil {
		return Result{}, err
	}
	if err := handle.Wait(ctx, nil); err != nil {
		return Result{}, err
	}

	return Result{QueueID: queued.ID, Status: "queued", ThreadID: thread.ID}, nil
}

// Catalog exposes the Runtime's catalog for callers that need read access
// outside the Worker pipeline (e.g. a CLI printing thread history).
func (r *Runtime) Catalog() *catalog.Catalog { return r.catalog }
