// Package store defines the durable entities FlowMesh persists (threads,
// messages, events, tool logs, catalog rows) and the Store interface that
// owns all persistence. Concrete backends live in subpackages (memstore for
// tests/dev, mongostore for a durable deployment).
package store

import (
	"time"

	"github.com/flowmesh-ai/flowmesh/event"
)

// ThreadStatus is the lifecycle state of a Thread.
type ThreadStatus string

const (
	ThreadActive   ThreadStatus = "active"
	ThreadArchived ThreadStatus = "archived"
)

// Thread is a conversation scope with a fixed participant set.
type Thread struct {
	ID              string
	ExternalID      string
	Name            string
	Participants    []string
	Status          ThreadStatus
	Summary         string
	ParentThreadID  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Message is a persisted utterance by a user, agent, tool, or system within
// a thread. Content is always clean text; ToolCalls carries structured
// function-call data separately, never embedded in Content.
type Message struct {
	ID           string
	ThreadID     string
	SenderID     string
	SenderType   event.SenderType
	Content      string
	ToolCalls    []event.ToolCallRef
	ToolCallID   string
	SenderUserID string
	CreatedAt    time.Time
}

// ToolLogStatus records the outcome of a tool execution.
type ToolLogStatus string

const (
	ToolLogSuccess ToolLogStatus = "success"
	ToolLogError   ToolLogStatus = "error"
)

// ToolLog is an append-only record of a single tool execution.
type ToolLog struct {
	ThreadID     string
	ToolName     string
	ToolInput    any
	ToolOutput   any
	Status       ToolLogStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// User is referenced by messages when the host application supplies a
// concrete identity for the human participant.
type User struct {
	ID         string
	ExternalID string
	Email      string
	Name       string
	Metadata   map[string]any
}

// AgentType distinguishes LLM-driven agents from programmatic ones.
type AgentType string

const (
	AgentTypeAgentic      AgentType = "agentic"
	AgentTypeProgrammatic AgentType = "programmatic"
)

// ProcessingFunc is the pure function a programmatic agent uses in place of
// an LLM call. Its signature mirrors the MessageProcessor programmatic
// branch.
type ProcessingFunc func(ctx ProcessingFuncContext) (ProcessingFuncOutput, error)

// ProcessingFuncContext is passed to a programmatic agent's ProcessingFunc.
type ProcessingFuncContext struct {
	Message          Message
	History          []Message
	ThreadID         string
}

// ProcessingFuncOutput is returned by a programmatic agent's ProcessingFunc.
type ProcessingFuncOutput struct {
	Content         string
	ToolCalls       []event.ToolCallRef
	ShouldContinue  bool
}

// AgentConfig is a named participant policy. AllowedTools and AllowedAgents
// being nil means unrestricted; an empty-but-non-nil set means nothing is
// allowed.
type AgentConfig struct {
	Name             string
	Role             string
	Personality      string
	Instructions     string
	Description      string
	AgentType        AgentType
	AllowedTools     map[string]struct{} // nil == unrestricted
	AllowedAgents    map[string]struct{} // nil == unrestricted
	AllowTags        []string            // tag-based tool filter, supplements AllowedTools
	BlockTags        []string
	LLMOptions       map[string]any
	ProcessingFunc   ProcessingFunc // only used when AgentType == AgentTypeProgrammatic
}

// Allowed reports whether name is permitted given an AllowedX set (nil ==
// unrestricted).
func Allowed(set map[string]struct{}, name string) bool {
	if set == nil {
		return true
	}
	_, ok := set[name]
	return ok
}

// TagsAllowed reports whether a tool carrying toolTags passes an agent's
// AllowTags/BlockTags policy. BlockTags wins: any overlap with toolTags
// rejects the tool outright. An empty allowTags means tags don't further
// restrict the tool (AllowedTools is the only gate); a non-empty allowTags
// requires at least one overlapping tag.
func TagsAllowed(allowTags, blockTags, toolTags []string) bool {
	tagSet := make(map[string]struct{}, len(toolTags))
	for _, t := range toolTags {
		tagSet[t] = struct{}{}
	}
	for _, b := range blockTags {
		if _, ok := tagSet[b]; ok {
			return false
		}
	}
	if len(allowTags) == 0 {
		return true
	}
	for _, a := range allowTags {
		if _, ok := tagSet[a]; ok {
			return true
		}
	}
	return false
}
