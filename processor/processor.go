// Package processor implements the Processor contract each event Type is
// dispatched to by Worker: shouldProcess/preProcess/process, plus the three
// concrete processors (message, tool-call, tool-result) the core ships.
package processor

import (
	"context"

	"github.com/flowmesh-ai/flowmesh/catalog"
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/telemetry"
	"github.com/flowmesh-ai/flowmesh/toolregistry"
)

// Deps carries everything a Processor needs to turn one Event into zero or
// more produced events, resolved once per Worker iteration.
type Deps struct {
	Catalog      *catalog.Catalog
	Tools        toolregistry.ToolRegistry
	LLM          llm.Service
	Agents       map[string]store.AgentConfig
	Bus          hooks.Bus
	Logger       telemetry.Logger
	Metrics      telemetry.Metrics
	Tracer       telemetry.Tracer
	ToolTimeout  int64 // default per-tool timeout in milliseconds; 0 means no timeout
}

// Result is what preProcess/process return: zero or more events to enqueue,
// in order, ahead of (preProcess) or instead of (process) the default.
type Result struct {
	ProducedEvents []event.Event
}

// Processor is implemented once per event.Type the core understands.
type Processor interface {
	// ShouldProcess reports whether process should run at all for evt. A
	// processor that always wants to run (the common case) returns true
	// unconditionally.
	ShouldProcess(ctx context.Context, evt event.Event, deps Deps) (bool, error)
	// PreProcess runs unconditionally, before any onEvent interception, and
	// typically persists state that must exist regardless of overrides (e.g.
	// an incoming Message).
	PreProcess(ctx context.Context, evt event.Event, deps Deps) (Result, error)
	// Process is the default handling for evt, run when no onEvent override
	// replaced it and ShouldProcess returned true.
	Process(ctx context.Context, evt event.Event, deps Deps) (Result, error)
}
