// Package llm defines the normalized LLMService interface that
// MessageProcessor consumes, independent of any concrete model provider.
// Provider adapters (anthropic, openai, bedrock subpackages) translate their
// native function-call markup into the same ChatResponse shape, so the rest
// of the module never branches on provider.
package llm

import (
	"context"
	"encoding/json"

	"github.com/flowmesh-ai/flowmesh/event"
)

// Role labels a chat message by who produced it, following the
// role-labeled-history convention MessageProcessor builds context with.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one entry in the role-labeled history passed to Chat. For
// assistant messages that previously issued tool calls, ToolCalls carries
// them so the provider adapter can rehydrate its own tool-use protocol; for
// RoleTool entries, ToolCallID links the result back to the call it answers.
type ChatMessage struct {
	Role       Role
	Content    string
	ToolCalls  []event.ToolCallRef
	ToolCallID string
}

// ToolSpec describes one callable tool offered to the model, trimmed from a
// toolregistry.RunnableTool to the fields a provider needs to advertise it.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Config carries provider/model selection and generation parameters. Zero
// values mean "use the provider adapter's default".
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Extra       map[string]any
}

// ChatRequest is the full input to a Chat call.
type ChatRequest struct {
	Messages []ChatMessage
	Tools    []ToolSpec
	Config   Config
	// StreamCallback, if non-nil, receives every StreamChunk as it arrives.
	// It is fire-and-forget: its return value is ignored.
	StreamCallback func(StreamChunk)
}

// ChatResponse is the normalized provider response. ToolCalls is always
// populated with parsed, well-formed entries regardless of how the
// underlying provider encoded them (native tool-use API, inline XML/JSON
// markup, or otherwise); Answer never contains residual markup.
type ChatResponse struct {
	Success   bool
	Answer    string
	ToolCalls []event.ToolCallRef
	Err       error
	Tokens    int
	Model     string
	Provider  string
}

// Service is the interface MessageProcessor's LLM branch consumes.
type Service interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
