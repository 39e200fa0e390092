package mongostore

import (
	"time"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
)

// threadDoc, messageDoc, eventDoc and toolLogDoc are the BSON wire shapes for
// the corresponding store types. Keeping them separate from the domain types
// avoids leaking bson struct tags into the rest of the engine, mirroring the
// teacher's doc.go/store.go split.

type threadDoc struct {
	ID             string    `bson:"_id"`
	ExternalID     string    `bson:"external_id,omitempty"`
	Name           string    `bson:"name"`
	Participants   []string  `bson:"participants"`
	Status         string    `bson:"status"`
	Summary        string    `bson:"summary,omitempty"`
	ParentThreadID string    `bson:"parent_thread_id,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toThreadDoc(t store.Thread) threadDoc {
	return threadDoc{
		ID: t.ID, ExternalID: t.ExternalID, Name: t.Name, Participants: t.Participants,
		Status: string(t.Status), Summary: t.Summary, ParentThreadID: t.ParentThreadID,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

func (d threadDoc) toThread() store.Thread {
	return store.Thread{
		ID: d.ID, ExternalID: d.ExternalID, Name: d.Name, Participants: d.Participants,
		Status: store.ThreadStatus(d.Status), Summary: d.Summary, ParentThreadID: d.ParentThreadID,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type messageDoc struct {
	ID           string              `bson:"_id"`
	ThreadID     string              `bson:"thread_id"`
	SenderID     string              `bson:"sender_id"`
	SenderType   string              `bson:"sender_type"`
	Content      string              `bson:"content,omitempty"`
	ToolCalls    []event.ToolCallRef `bson:"tool_calls,omitempty"`
	ToolCallID   string              `bson:"tool_call_id,omitempty"`
	SenderUserID string              `bson:"sender_user_id,omitempty"`
	CreatedAt    time.Time           `bson:"created_at"`
}

func toMessageDoc(m store.Message) messageDoc {
	return messageDoc{
		ID: m.ID, ThreadID: m.ThreadID, SenderID: m.SenderID, SenderType: string(m.SenderType),
		Content: m.Content, ToolCalls: m.ToolCalls, ToolCallID: m.ToolCallID,
		SenderUserID: m.SenderUserID, CreatedAt: m.CreatedAt,
	}
}

func (d messageDoc) toMessage() store.Message {
	return store.Message{
		ID: d.ID, ThreadID: d.ThreadID, SenderID: d.SenderID, SenderType: event.SenderType(d.SenderType),
		Content: d.Content, ToolCalls: d.ToolCalls, ToolCallID: d.ToolCallID,
		SenderUserID: d.SenderUserID, CreatedAt: d.CreatedAt,
	}
}

type eventDoc struct {
	ID            string         `bson:"_id"`
	ThreadID      string         `bson:"thread_id"`
	Type          string         `bson:"type"`
	Payload       map[string]any `bson:"payload"`
	ParentEventID string         `bson:"parent_event_id,omitempty"`
	TraceID       string         `bson:"trace_id,omitempty"`
	Priority      int            `bson:"priority"`
	Status        string         `bson:"status"`
	TTLMillis     int64          `bson:"ttl_ms,omitempty"`
	ExpiresAt     *time.Time     `bson:"expires_at,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at"`
}

type toolLogDoc struct {
	ThreadID     string    `bson:"thread_id"`
	ToolName     string    `bson:"tool_name"`
	ToolInput    any       `bson:"tool_input,omitempty"`
	ToolOutput   any       `bson:"tool_output,omitempty"`
	Status       string    `bson:"status"`
	ErrorMessage string    `bson:"error_message,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toToolLogDoc(t store.ToolLog) toolLogDoc {
	return toolLogDoc{
		ThreadID: t.ThreadID, ToolName: t.ToolName, ToolInput: t.ToolInput, ToolOutput: t.ToolOutput,
		Status: string(t.Status), ErrorMessage: t.ErrorMessage, CreatedAt: t.CreatedAt,
	}
}

type agentDoc struct {
	ID         string `bson:"_id"`
	ExternalID string `bson:"external_id,omitempty"`
	Name       string `bson:"name"`
	Config     []byte `bson:"config"` // JSON-encoded store.AgentConfig (ProcessingFunc is not serialized)
}

type toolDoc struct {
	ID          string   `bson:"_id"`
	ExternalID  string   `bson:"external_id,omitempty"`
	Key         string   `bson:"key"`
	Name        string   `bson:"name"`
	Description string   `bson:"description,omitempty"`
	InputSchema []byte   `bson:"input_schema,omitempty"`
	Tags        []string `bson:"tags,omitempty"`
}

type apiDoc struct {
	ID          string `bson:"_id"`
	ExternalID  string `bson:"external_id,omitempty"`
	Name        string `bson:"name"`
	OpenAPISpec []byte `bson:"openapi_spec,omitempty"`
}

type userDoc struct {
	ID         string         `bson:"_id"`
	ExternalID string         `bson:"external_id,omitempty"`
	Email      string         `bson:"email,omitempty"`
	Name       string         `bson:"name,omitempty"`
	Metadata   map[string]any `bson:"metadata,omitempty"`
}

func toUserDoc(u store.User) userDoc {
	return userDoc{ID: u.ID, ExternalID: u.ExternalID, Email: u.Email, Name: u.Name, Metadata: u.Metadata}
}

func (d userDoc) toUser() store.User {
	return store.User{ID: d.ID, ExternalID: d.ExternalID, Email: d.Email, Name: d.Name, Metadata: d.Metadata}
}
