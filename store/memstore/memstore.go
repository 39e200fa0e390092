// Package memstore is an in-memory store.Store implementation for tests and
// local development. It is not durable across process restarts and is not
// intended for production use.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/google/uuid"
)

// Store is an in-memory, mutex-protected implementation of store.Store.
type Store struct {
	mu sync.Mutex

	threads     map[string]store.Thread
	externalIdx map[string]string // externalID -> thread id, active threads only

	messages   []store.Message // append-only, insertion order preserved
	events     map[string]*event.Event
	toolLogs   []store.ToolLog

	agents map[string]store.CatalogAgent // keyed by Name
	tools  map[string]store.CatalogTool  // keyed by Key
	apis   map[string]store.CatalogAPI   // keyed by Name
	users  map[string]store.User        // keyed by ID

	seq uint64
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{
		threads:     make(map[string]store.Thread),
		externalIdx: make(map[string]string),
		events:      make(map[string]*event.Event),
		agents:      make(map[string]store.CatalogAgent),
		tools:       make(map[string]store.CatalogTool),
		apis:        make(map[string]store.CatalogAPI),
		users:       make(map[string]store.User),
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + uuid.NewString()
}

// --- Thread lifecycle -------------------------------------------------

func (s *Store) FindOrCreateThread(_ context.Context, id string, spec store.ThreadSpec) (store.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if th, ok := s.threads[id]; ok {
		return th, nil
	}
	now := time.Now()
	th := store.Thread{
		ID:             id,
		ExternalID:     spec.ExternalID,
		Name:           spec.Name,
		Participants:   append([]string(nil), spec.Participants...),
		Status:         store.ThreadActive,
		ParentThreadID: spec.ParentThreadID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.threads[id] = th
	if spec.ExternalID != "" {
		s.externalIdx[spec.ExternalID] = id
	}
	return th, nil
}

func (s *Store) GetThreadByID(_ context.Context, id string) (store.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[id]
	if !ok || th.Status != store.ThreadActive {
		return store.Thread{}, store.ErrNotFound
	}
	return th, nil
}

func (s *Store) GetThreadStatus(_ context.Context, id string) (store.ThreadStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return th.Status, nil
}

func (s *Store) Archive(_ context.Context, id string, summary string) (store.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[id]
	if !ok {
		return store.Thread{}, store.ErrNotFound
	}
	if th.ExternalID != "" {
		delete(s.externalIdx, th.ExternalID)
	}
	th.Status = store.ThreadArchived
	th.Summary = summary
	th.UpdatedAt = time.Now()
	s.threads[id] = th
	return th, nil
}

// threadLevel returns the ancestor depth of threadID: 0 for a root thread,
// N for a thread N parentThreadId hops away from its root. Missing parents
// are treated as roots to keep the computation total.
func (s *Store) threadLevel(threadID string) int {
	level := 0
	seen := map[string]bool{}
	cur := threadID
	for {
		if seen[cur] {
			return level // cycle guard
		}
		seen[cur] = true
		th, ok := s.threads[cur]
		if !ok || th.ParentThreadID == "" {
			return level
		}
		cur = th.ParentThreadID
		level++
	}
}

func (s *Store) ancestorChain(threadID string) []string {
	chain := []string{threadID}
	seen := map[string]bool{threadID: true}
	cur := threadID
	for {
		th, ok := s.threads[cur]
		if !ok || th.ParentThreadID == "" || seen[th.ParentThreadID] {
			return chain
		}
		chain = append(chain, th.ParentThreadID)
		seen[th.ParentThreadID] = true
		cur = th.ParentThreadID
	}
}

func (s *Store) GetMessageHistory(_ context.Context, threadID string, forSenderID string, limit int) ([]store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.ancestorChain(threadID) // [threadID, parent, grandparent, ...]
	chainSet := make(map[string]int, len(chain))
	for _, id := range chain {
		chainSet[id] = s.threadLevel(id)
	}

	type row struct {
		msg   store.Message
		level int
	}
	var rows []row
	for _, m := range s.messages {
		level, inChain := chainSet[m.ThreadID]
		if !inChain {
			continue
		}
		if m.ThreadID != threadID {
			// Ancestor-thread message: only visible if forSenderID was a
			// participant of that ancestor thread.
			th := s.threads[m.ThreadID]
			if !containsString(th.Participants, forSenderID) {
				continue
			}
		}
		rows = append(rows, row{msg: m, level: level})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].msg.CreatedAt.Equal(rows[j].msg.CreatedAt) {
			return rows[i].msg.CreatedAt.Before(rows[j].msg.CreatedAt)
		}
		return rows[i].level > rows[j].level // threadLevel desc tiebreak
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	out := make([]store.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.msg)
	}
	return out, nil
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Store) CreateMessage(_ context.Context, m store.Message) (store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = s.nextID("msg")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *Store) CreateToolLogs(_ context.Context, entries []store.ToolLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range entries {
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = time.Now()
		}
	}
	s.toolLogs = append(s.toolLogs, entries...)
	return nil
}

// ToolLogs returns a snapshot of every ToolLog recorded so far, oldest
// first.
func (s *Store) ToolLogs() []store.ToolLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.ToolLog(nil), s.toolLogs...)
}

// --- Queue ----------------------------------------------------------------

func (s *Store) Enqueue(_ context.Context, e event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID("evt")
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Status = event.StatusPending
	if e.TTL > 0 {
		exp := e.CreatedAt.Add(e.TTL)
		e.ExpiresAt = &exp
	}
	cp := e
	s.events[e.ID] = &cp
	return e, nil
}

func (s *Store) GetProcessing(_ context.Context, threadID string) (*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ThreadID == threadID && e.Status == event.StatusProcessing {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetNextPending(_ context.Context, threadID string) (*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var candidates []*event.Event
	for _, e := range s.events {
		if e.ThreadID != threadID {
			continue
		}
		if e.Status != event.StatusPending {
			continue
		}
		if e.Expired(now) {
			e.Status = event.StatusFailed
			e.UpdatedAt = now
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})
	cp := *candidates[0]
	return &cp, nil
}

func (s *Store) Claim(_ context.Context, eventID string) (*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok || e.Status != event.StatusPending {
		return nil, nil // lost race or gone: caller moves on, not an error
	}
	e.Status = event.StatusProcessing
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (s *Store) UpdateStatus(_ context.Context, eventID string, status event.Status, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil // missing queue item: nil result, not store.ErrNotFound
	}
	if e.Status == event.StatusCompleted || e.Status == event.StatusFailed {
		return nil // terminal states never transition further (invariant 2)
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

// --- Catalog ------------------------------------------------------------

func (s *Store) UpsertAgent(_ context.Context, a store.CatalogAgent) (store.CatalogAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.nextID("agent")
	}
	s.agents[a.Name] = a
	return a, nil
}

func (s *Store) UpsertTool(_ context.Context, t store.CatalogTool) (store.CatalogTool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = s.nextID("tool")
	}
	s.tools[t.Key] = t
	return t, nil
}

func (s *Store) UpsertAPI(_ context.Context, a store.CatalogAPI) (store.CatalogAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.nextID("api")
	}
	s.apis[a.Name] = a
	return a, nil
}

func (s *Store) UpsertUser(_ context.Context, u store.User) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("user")
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetAgent(_ context.Context, name string) (store.CatalogAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[name]
	if !ok {
		return store.CatalogAgent{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetTool(_ context.Context, key string) (store.CatalogTool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tools[key]
	if !ok {
		return store.CatalogTool{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTools(_ context.Context) ([]store.CatalogTool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.CatalogTool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

var _ store.Store = (*Store)(nil)
