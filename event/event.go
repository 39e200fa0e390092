// Package event defines the durable queue item type that drives the
// FlowMesh scheduler: a typed, per-thread event with a tagged-union payload.
package event

import "time"

// Type discriminates the payload carried by an Event. New domain-specific
// types (e.g. KB_INGEST) may be added by hosts without changing the core
// engine, as long as a Processor is registered for them.
type Type string

const (
	// TypeMessage carries an inbound or outbound conversational message.
	TypeMessage Type = "MESSAGE"
	// TypeToolCall carries a single tool invocation request.
	TypeToolCall Type = "TOOL_CALL"
	// TypeToolResult carries the outcome of a tool invocation.
	TypeToolResult Type = "TOOL_RESULT"
	// TypeSystem carries a system-originated notification (no default processor).
	TypeSystem Type = "SYSTEM"
)

// Status is the lifecycle state of a queued Event. Transitions are
// Pending -> Processing -> {Completed, Failed}. Completed and Failed are
// terminal: no further transition is valid once reached.
type Status string

const (
	// StatusPending means the event has been durably enqueued but not claimed.
	StatusPending Status = "pending"
	// StatusProcessing means a Worker has claimed the event and is running it.
	StatusProcessing Status = "processing"
	// StatusCompleted is terminal: the event was processed successfully.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal: the event's processing raised an error, timed
	// out, or expired before being claimed.
	StatusFailed Status = "failed"
)

// Event is a single durable queue item belonging to exactly one thread.
//
// Invariants:
//   - at most one Event per ThreadID is ever in StatusProcessing at a time;
//   - StatusCompleted/StatusFailed are terminal and never transition further;
//   - Events produced while processing E are persisted as StatusPending only
//     after E itself reaches StatusCompleted; if E fails, none of them exist.
type Event struct {
	ID            string
	ThreadID      string
	Type          Type
	Payload       Payload
	ParentEventID string
	TraceID       string
	Priority      int
	Status        Status
	TTL           time.Duration
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Expired reports whether the event's TTL has elapsed as of now. Events with
// a zero ExpiresAt never expire.
func (e Event) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}
