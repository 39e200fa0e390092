// Package toolregistry defines the ToolRegistry interface and the
// RunnableTool shape tools implement. Concrete tool implementations (HTTP
// client, file I/O, MCP bridges, OpenAPI-generated clients) are supplied by
// the host; this package owns only the interface, JSON-Schema input
// validation, and the OpenAPI/MCP generator entry points.
package toolregistry

import (
	"context"
	"encoding/json"
)

// ExecContext is the enriched execution context a tool receives, built by
// ToolCallProcessor: threadId, the calling agent's senderId/senderType, and
// whatever host-specific values Extra carries (db handle, agents/tools
// catalog accessors) without forcing this package to depend on
// store/catalog, avoiding an import cycle with the packages that assemble
// ExecContext.
type ExecContext struct {
	ThreadID   string
	SenderID   string
	SenderType string
	Extra      map[string]any
}

// RunnableTool is a named executable capability with a JSON-schema input and
// arbitrary JSON output.
type RunnableTool interface {
	Key() string
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage, ec ExecContext) (any, error)
}

// ToolRegistry enumerates available tools and exposes Execute. Native,
// user, API-generated, and MCP-generated tools are all exposed through the
// same interface so ToolCallProcessor never needs to know where a tool
// came from.
type ToolRegistry interface {
	// List returns every tool currently registered.
	List(ctx context.Context) ([]RunnableTool, error)
	// Get returns the tool registered under key, or ok=false if none exists.
	Get(ctx context.Context, key string) (RunnableTool, bool)
}

// staticRegistry is the simplest ToolRegistry: a fixed, in-memory set
// assembled once at session start from native ∪ user ∪ API ∪ MCP tools.
type staticRegistry struct {
	byKey map[string]RunnableTool
}

// NewStaticRegistry builds a ToolRegistry from a fixed slice of tools.
// Later entries win on a Key collision, mirroring a union of native, user,
// API-generated, and MCP-generated tool sets layered in that priority order.
func NewStaticRegistry(tools ...RunnableTool) ToolRegistry {
	byKey := make(map[string]RunnableTool, len(tools))
	for _, t := range tools {
		byKey[t.Key()] = t
	}
	return &staticRegistry{byKey: byKey}
}

func (r *staticRegistry) List(_ context.Context) ([]RunnableTool, error) {
	out := make([]RunnableTool, 0, len(r.byKey))
	for _, t := range r.byKey {
		out = append(out, t)
	}
	return out, nil
}

func (r *staticRegistry) Get(_ context.Context, key string) (RunnableTool, bool) {
	t, ok := r.byKey[key]
	return t, ok
}
