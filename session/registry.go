package session

import (
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/processor"
)

// DefaultRegistry returns a Registry with the three core processors wired to
// their event types. Hosts that want a SYSTEM event processor register one
// on top of this before passing it to a Runtime.
func DefaultRegistry() *processor.Registry {
	r := processor.NewRegistry()
	r.Register(event.TypeMessage, &processor.MessageProcessor{})
	r.Register(event.TypeToolCall, &processor.ToolCallProcessor{})
	r.Register(event.TypeToolResult, &processor.ToolResultProcessor{})
	return r
}
