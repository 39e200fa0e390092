package catalog

import (
	"context"
	"fmt"

	"github.com/flowmesh-ai/flowmesh/store"
)

// Catalog is the read-through cache in front of store.Store: thread/history
// reads use TTLShort, agent/tool/API/user reads use TTLLong. Any write
// routed through Catalog invalidates the cache keys it derives.
//
// Catalog does not cache queue operations: the EventQueue's claim semantics
// require always reading current state.
type Catalog struct {
	store store.Store

	threads  *Cache
	history  *Cache
	agents   *Cache
	tools    *Cache
	apis     *Cache
	users    *Cache
}

// New wraps store with a fresh set of per-kind caches.
func New(s store.Store) *Catalog {
	return &Catalog{
		store:   s,
		threads: NewCache(),
		history: NewCache(),
		agents:  NewCache(),
		tools:   NewCache(),
		apis:    NewCache(),
		users:   NewCache(),
	}
}

// Store returns the underlying store.Store for operations the catalog does
// not cache (queue ops, message/tool-log writes).
func (c *Catalog) Store() store.Store { return c.store }

func historyKey(threadID, forSenderID string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", threadID, forSenderID, limit)
}

// GetThread returns the active thread for id, using TTLShort caching.
func (c *Catalog) GetThread(ctx context.Context, id string) (store.Thread, error) {
	if v, ok := c.threads.Get(id); ok {
		return v.(store.Thread), nil
	}
	th, err := c.store.GetThreadByID(ctx, id)
	if err != nil {
		return store.Thread{}, err
	}
	c.threads.Set(id, th, TTLShort)
	return th, nil
}

// InvalidateThread evicts a thread and all its cached history reads. Called
// after Archive and after any thread mutation.
func (c *Catalog) InvalidateThread(threadID string) {
	c.threads.Invalidate(threadID)
	c.history.InvalidatePrefix(threadID + "|")
}

// GetHistory returns message history for threadID, using TTLShort caching.
func (c *Catalog) GetHistory(ctx context.Context, threadID, forSenderID string, limit int) ([]store.Message, error) {
	key := historyKey(threadID, forSenderID, limit)
	if v, ok := c.history.Get(key); ok {
		return v.([]store.Message), nil
	}
	msgs, err := c.store.GetMessageHistory(ctx, threadID, forSenderID, limit)
	if err != nil {
		return nil, err
	}
	c.history.Set(key, msgs, TTLShort)
	return msgs, nil
}

// CreateMessage persists m and invalidates the thread's cached history.
func (c *Catalog) CreateMessage(ctx context.Context, m store.Message) (store.Message, error) {
	created, err := c.store.CreateMessage(ctx, m)
	if err != nil {
		return store.Message{}, err
	}
	c.history.InvalidatePrefix(m.ThreadID + "|")
	return created, nil
}

// GetAgent returns the named agent's catalog row, using TTLLong caching.
func (c *Catalog) GetAgent(ctx context.Context, name string) (store.CatalogAgent, error) {
	if v, ok := c.agents.Get(name); ok {
		return v.(store.CatalogAgent), nil
	}
	a, err := c.store.GetAgent(ctx, name)
	if err != nil {
		return store.CatalogAgent{}, err
	}
	c.agents.Set(name, a, TTLLong)
	return a, nil
}

// UpsertAgent writes through to the store and invalidates the cached row.
func (c *Catalog) UpsertAgent(ctx context.Context, a store.CatalogAgent) (store.CatalogAgent, error) {
	out, err := c.store.UpsertAgent(ctx, a)
	if err != nil {
		return store.CatalogAgent{}, err
	}
	c.agents.Invalidate(a.Name)
	return out, nil
}

// GetTool returns the named tool's catalog row, using TTLLong caching.
func (c *Catalog) GetTool(ctx context.Context, key string) (store.CatalogTool, error) {
	if v, ok := c.tools.Get(key); ok {
		return v.(store.CatalogTool), nil
	}
	t, err := c.store.GetTool(ctx, key)
	if err != nil {
		return store.CatalogTool{}, err
	}
	c.tools.Set(key, t, TTLLong)
	return t, nil
}

// UpsertTool writes through to the store and invalidates the cached row.
func (c *Catalog) UpsertTool(ctx context.Context, t store.CatalogTool) (store.CatalogTool, error) {
	out, err := c.store.UpsertTool(ctx, t)
	if err != nil {
		return store.CatalogTool{}, err
	}
	c.tools.Invalidate(t.Key)
	return out, nil
}

// ListTools returns every registered tool; not cached since it is used
// relatively infrequently (once per target agent per MessageProcessor turn)
// and caching a growing list invites staleness bugs that are worse than a
// cheap extra read.
func (c *Catalog) ListTools(ctx context.Context) ([]store.CatalogTool, error) {
	return c.store.ListTools(ctx)
}

// UpsertAPI writes through to the store and invalidates the cached row.
func (c *Catalog) UpsertAPI(ctx context.Context, a store.CatalogAPI) (store.CatalogAPI, error) {
	out, err := c.store.UpsertAPI(ctx, a)
	if err != nil {
		return store.CatalogAPI{}, err
	}
	c.apis.Invalidate(a.Name)
	return out, nil
}

// GetUser returns the catalog user row for id, using TTLLong caching.
func (c *Catalog) GetUser(ctx context.Context, id string) (store.User, error) {
	if v, ok := c.users.Get(id); ok {
		return v.(store.User), nil
	}
	u, err := c.store.GetUser(ctx, id)
	if err != nil {
		return store.User{}, err
	}
	c.users.Set(id, u, TTLLong)
	return u, nil
}

// UpsertUser writes through to the store and invalidates the cached row.
func (c *Catalog) UpsertUser(ctx context.Context, u store.User) (store.User, error) {
	out, err := c.store.UpsertUser(ctx, u)
	if err != nil {
		return store.User{}, err
	}
	c.users.Invalidate(u.ID)
	return out, nil
}
