package toolregistry

import (
	"context"
	"encoding/json"
)

// MCPToolDescriptor is the subset of an MCP server's tools/list response
// needed to wrap a remote tool as a RunnableTool: name, description, and
// input schema, exactly as the MCP protocol reports them.
type MCPToolDescriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// MCPCaller performs an MCP tools/call request against a specific server and
// tool name. Hosts implement this against whatever MCP client library they
// already use; this package only owns the descriptor-to-RunnableTool wrapping.
type MCPCaller func(ctx context.Context, toolName string, arguments json.RawMessage) (any, error)

type mcpTool struct {
	serverName string
	desc       MCPToolDescriptor
	call       MCPCaller
}

func (t *mcpTool) Key() string                  { return "mcp." + t.serverName + "." + t.desc.Name }
func (t *mcpTool) Name() string                 { return t.desc.Name }
func (t *mcpTool) Description() string          { return t.desc.Description }
func (t *mcpTool) InputSchema() json.RawMessage { return t.desc.InputSchema }
func (t *mcpTool) Execute(ctx context.Context, params json.RawMessage, _ ExecContext) (any, error) {
	return t.call(ctx, t.desc.Name, params)
}

// GenerateFromMCP wraps every tool an MCP server advertises as a
// RunnableTool, keyed by server name so two servers exposing a tool with the
// same name never collide in a registry built with NewStaticRegistry.
func GenerateFromMCP(serverName string, tools []MCPToolDescriptor, call MCPCaller) []RunnableTool {
	out := make([]RunnableTool, 0, len(tools))
	for _, d := range tools {
		out = append(out, &mcpTool{serverName: serverName, desc: d, call: call})
	}
	return out
}
