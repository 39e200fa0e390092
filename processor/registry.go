package processor

import (
	"context"

	"github.com/flowmesh-ai/flowmesh/event"
)

// OnEventResult is what a user-supplied onEvent callback returns.
// ProducedEvents, when non-nil, replaces the processor's own Process output
// (PreProcess output is unaffected). Drop, when true, skips the processor's
// Process step; PreProcess output is still enqueued.
type OnEventResult struct {
	ProducedEvents []event.Event
	Drop           bool
}

// OnEventFunc is the user-supplied interception hook. A nil OnEventFunc
// means no interception is configured.
type OnEventFunc func(ctx context.Context, evt event.Event) (OnEventResult, error)

// Registry maps an event.Type to the Processor that handles it. Types with
// no registered Processor are completed as a no-op by Worker: hosts register
// a Processor for event.TypeSystem if they want one.
type Registry struct {
	byType map[event.Type]Processor
}

// NewRegistry builds an empty Registry. session.DefaultRegistry returns one
// with the core's three processors registered.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[event.Type]Processor)}
}

// Register associates t with p, overwriting any prior registration.
func (r *Registry) Register(t event.Type, p Processor) {
	r.byType[t] = p
}

// Resolve returns the Processor registered for t, or ok=false if none.
func (r *Registry) Resolve(t event.Type) (Processor, bool) {
	p, ok := r.byType[t]
	return p, ok
}
