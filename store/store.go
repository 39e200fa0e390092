package store

import (
	"context"

	"github.com/flowmesh-ai/flowmesh/queue"
)

// ThreadSpec carries the attributes used to create a Thread the first time
// FindOrCreateThread observes an unknown id.
type ThreadSpec struct {
	ExternalID     string
	Name           string
	Participants   []string
	ParentThreadID string
}

// CatalogAgent, CatalogTool, CatalogAPI and User (types.go) are the rows the
// catalog read-through cache (package catalog) upserts into and reads from
// the Store. They are intentionally thin: the Store only needs to round-trip
// them, not interpret them.
type (
	CatalogAgent struct {
		ID            string
		ExternalID    string
		Name          string
		Config        AgentConfig
	}
	CatalogTool struct {
		ID          string
		ExternalID  string
		Key         string
		Name        string
		Description string
		InputSchema []byte   // raw JSON Schema document
		Tags        []string // used by AgentConfig.AllowTags/BlockTags filtering
	}
	CatalogAPI struct {
		ID          string
		ExternalID  string
		Name        string
		OpenAPISpec []byte
	}
)

// Store is the exclusive owner of persistence for FlowMesh. All operations
// must be serializable with respect to a single row; row-level locking is
// sufficient.
//
// Store embeds queue.EventQueue: the event queue is not a separate storage
// system, just a facet of the same durable store, so a single Store value
// can be passed through the whole processing context.
type Store interface {
	queue.EventQueue

	// FindOrCreateThread is idempotent on id: a second call with the same id
	// returns the existing thread and ignores spec, except that ExternalID is
	// only ever set on the creating call.
	FindOrCreateThread(ctx context.Context, id string, spec ThreadSpec) (Thread, error)

	// GetThreadByID returns only active threads for routing paths: an
	// archived thread is reported as ErrNotFound here.
	GetThreadByID(ctx context.Context, id string) (Thread, error)

	// GetThreadStatus returns id's lifecycle status regardless of whether
	// it is active or archived; ErrNotFound if id is unknown. Used at queue
	// admission to refuse to advance any event for an archived thread.
	GetThreadStatus(ctx context.Context, id string) (ThreadStatus, error)

	// Archive transitions a thread to ThreadArchived and records summary.
	// Idempotent: archiving an already-archived thread is a no-op that
	// still updates Summary.
	Archive(ctx context.Context, id string, summary string) (Thread, error)

	// GetMessageHistory returns messages of the thread and its ancestor
	// chain (parent threads) up to limit, sorted by (createdAt asc,
	// threadLevel desc) so earlier parents precede later children at equal
	// timestamps. Parent-thread messages are filtered to only those threads
	// where forSenderID is a participant.
	GetMessageHistory(ctx context.Context, threadID string, forSenderID string, limit int) ([]Message, error)

	// CreateMessage persists a message. Stores keep no history cache;
	// catalog.Catalog.CreateMessage invalidates the catalog's cached history
	// for the thread. Not idempotent by design: callers must never retry a
	// successful CreateMessage call.
	CreateMessage(ctx context.Context, m Message) (Message, error)

	// CreateToolLogs atomically inserts a batch of tool log rows.
	CreateToolLogs(ctx context.Context, entries []ToolLog) error

	// Catalog upserts, each keyed on a single field: agents and APIs by
	// name, tools by key, users by id. A row is not matched by id or
	// externalId when that key differs. Used by package catalog to populate
	// rows the host application registers at session start.
	UpsertAgent(ctx context.Context, a CatalogAgent) (CatalogAgent, error)
	UpsertTool(ctx context.Context, t CatalogTool) (CatalogTool, error)
	UpsertAPI(ctx context.Context, a CatalogAPI) (CatalogAPI, error)
	UpsertUser(ctx context.Context, u User) (User, error)

	GetAgent(ctx context.Context, name string) (CatalogAgent, error)
	GetTool(ctx context.Context, key string) (CatalogTool, error)
	ListTools(ctx context.Context) ([]CatalogTool, error)
	GetUser(ctx context.Context, id string) (User, error)
}
