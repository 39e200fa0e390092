package hooks

import (
	"encoding/json"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
)

// EventType discriminates the concrete Event implementations published on
// the Bus, one per member of the callback surface.
type EventType string

const (
	TypeMessageReceived EventType = "message_received"
	TypeMessageSent      EventType = "message_sent"
	TypeToolCalling      EventType = "tool_calling"
	TypeToolCompleted    EventType = "tool_completed"
	TypeLLMCompleted     EventType = "llm_completed"
	TypeTokenStream      EventType = "token_stream"
	TypeContentStream    EventType = "content_stream"
	TypeToolCallStream   EventType = "tool_call_stream"
	TypeIntercepted      EventType = "intercepted"
	TypeQueueEvent       EventType = "queue_event"
)

// Event is the interface every published lifecycle event satisfies.
// Subscribers type-switch on the concrete struct to reach event-specific
// fields.
type Event interface {
	Type() EventType
	ThreadID() string
}

type base struct {
	EventType EventType
	Thread    string
}

func (b base) Type() EventType  { return b.EventType }
func (b base) ThreadID() string { return b.Thread }

// MessageReceivedEvent fires when MessageProcessor's pre-process step has
// persisted an incoming Message, before routing/target resolution runs.
type MessageReceivedEvent struct {
	base
	Message store.Message
}

// MessageSentEvent fires after an outgoing agent or tool-result Message has
// been persisted, before the Worker enqueues the events produced alongside it.
type MessageSentEvent struct {
	base
	Message store.Message
}

// ToolCallingEvent fires immediately before ToolCallProcessor executes a
// resolved tool, after argument validation succeeds.
type ToolCallingEvent struct {
	base
	ToolKey   string
	Arguments json.RawMessage
	AgentName string
}

// ToolCompletedEvent fires after a tool call returns, successfully or not.
type ToolCompletedEvent struct {
	base
	ToolKey string
	Output  any
	Err     error
}

// LLMCompletedEvent fires once per MessageProcessor LLM branch invocation,
// whether it succeeded or failed.
type LLMCompletedEvent struct {
	base
	Success   bool
	Answer    string
	ToolCalls []event.ToolCallRef
	Err       error
	Model     string
	Provider  string
}

// TokenStreamEvent carries a raw provider token chunk, before the stateful
// content/tool-call splitter has classified it.
type TokenStreamEvent struct {
	base
	Token      string
	IsComplete bool
}

// ContentStreamEvent carries a classified content-bearing stream segment.
type ContentStreamEvent struct {
	base
	Delta      string
	IsComplete bool
}

// ToolCallStreamEvent carries a classified structured tool-call stream
// segment (function name and/or partial arguments).
type ToolCallStreamEvent struct {
	base
	ToolCallID string
	NameDelta  string
	ArgsDelta  string
	IsComplete bool
}

// InterceptedEvent fires whenever a user callback overrides a computed
// value.
type InterceptedEvent struct {
	base
	CallbackType     string
	OriginalValue    any
	InterceptedValue any
}

// QueueEvent mirrors a raw queue event transition, for subscribers that want
// visibility into every event the Worker claims and processes.
type QueueEvent struct {
	base
	Evt event.Event
}

func newBase(t EventType, threadID string) base { return base{EventType: t, Thread: threadID} }

// NewMessageReceived constructs a MessageReceivedEvent.
func NewMessageReceived(m store.Message) *MessageReceivedEvent {
	return &MessageReceivedEvent{base: newBase(TypeMessageReceived, m.ThreadID), Message: m}
}

// NewMessageSent constructs a MessageSentEvent.
func NewMessageSent(m store.Message) *MessageSentEvent {
	return &MessageSentEvent{base: newBase(TypeMessageSent, m.ThreadID), Message: m}
}

// NewToolCalling constructs a ToolCallingEvent.
func NewToolCalling(threadID, toolKey, agentName string, args json.RawMessage) *ToolCallingEvent {
	return &ToolCallingEvent{base: newBase(TypeToolCalling, threadID), ToolKey: toolKey, AgentName: agentName, Arguments: args}
}

// NewToolCompleted constructs a ToolCompletedEvent.
func NewToolCompleted(threadID, toolKey string, output any, err error) *ToolCompletedEvent {
	return &ToolCompletedEvent{base: newBase(TypeToolCompleted, threadID), ToolKey: toolKey, Output: output, Err: err}
}

// NewLLMCompleted constructs an LLMCompletedEvent.
func NewLLMCompleted(threadID string, success bool, answer string, toolCalls []event.ToolCallRef, err error, model, provider string) *LLMCompletedEvent {
	return &LLMCompletedEvent{
		base: newBase(TypeLLMCompleted, threadID), Success: success, Answer: answer,
		ToolCalls: toolCalls, Err: err, Model: model, Provider: provider,
	}
}

// NewTokenStream constructs a TokenStreamEvent.
func NewTokenStream(threadID, token string, isComplete bool) *TokenStreamEvent {
	return &TokenStreamEvent{base: newBase(TypeTokenStream, threadID), Token: token, IsComplete: isComplete}
}

// NewContentStream constructs a ContentStreamEvent.
func NewContentStream(threadID, delta string, isComplete bool) *ContentStreamEvent {
	return &ContentStreamEvent{base: newBase(TypeContentStream, threadID), Delta: delta, IsComplete: isComplete}
}

// NewToolCallStream constructs a ToolCallStreamEvent.
func NewToolCallStream(threadID, toolCallID, nameDelta, argsDelta string, isComplete bool) *ToolCallStreamEvent {
	return &ToolCallStreamEvent{
		base: newBase(TypeToolCallStream, threadID), ToolCallID: toolCallID,
		NameDelta: nameDelta, ArgsDelta: argsDelta, IsComplete: isComplete,
	}
}

// NewQueueEvent constructs a QueueEvent wrapping evt.
func NewQueueEvent(evt event.Event) *QueueEvent {
	return &QueueEvent{base: newBase(TypeQueueEvent, evt.ThreadID), Evt: evt}
}

// NewIntercepted constructs an InterceptedEvent.
func NewIntercepted(threadID, callbackType string, original, intercepted any) *InterceptedEvent {
	return &InterceptedEvent{
		base: newBase(TypeIntercepted, threadID), CallbackType: callbackType,
		OriginalValue: original, InterceptedValue: intercepted,
	}
}
