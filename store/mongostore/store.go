package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	flowevent "github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/google/uuid"
)

const defaultOpTimeout = 5 * time.Second

// Store is a MongoDB-backed store.Store.
type Store struct {
	threads  *mongo.Collection
	messages *mongo.Collection
	events   *mongo.Collection
	toolLogs *mongo.Collection
	agents   *mongo.Collection
	tools    *mongo.Collection
	apis     *mongo.Collection
	users    *mongo.Collection
	timeout  time.Duration
}

// Options configures the Mongo-backed Store.
type Options struct {
	Client   *mongo.Client
	Database string
	Timeout  time.Duration
}

// New returns a Store backed by MongoDB, creating the indexes required for
// the query patterns this store serves (per-thread queue scans, history
// reads, catalog lookups) to stay index-backed as data grows.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongostore: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongostore: database name is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	db := opts.Client.Database(opts.Database)
	s := &Store{
		threads:  db.Collection("threads"),
		messages: db.Collection("messages"),
		events:   db.Collection("events"),
		toolLogs: db.Collection("tool_logs"),
		agents:   db.Collection("catalog_agents"),
		tools:    db.Collection("catalog_tools"),
		apis:     db.Collection("catalog_apis"),
		users:    db.Collection("users"),
		timeout:  timeout,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.threads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"status": "active", "external_id": bson.M{"$exists": true, "$ne": ""}}),
	}); err != nil {
		return err
	}
	if _, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "status", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "priority", Value: -1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	}); err != nil {
		return err
	}
	return nil
}

func (s *Store) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// --- Threads --------------------------------------------------------

func (s *Store) FindOrCreateThread(ctx context.Context, id string, spec store.ThreadSpec) (store.Thread, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	doc := threadDoc{
		ID: id, ExternalID: spec.ExternalID, Name: spec.Name, Participants: spec.Participants,
		Status: string(store.ThreadActive), ParentThreadID: spec.ParentThreadID,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := s.threads.UpdateOne(cctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": doc},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return store.Thread{}, err
	}
	var got threadDoc
	if err := s.threads.FindOne(cctx, bson.M{"_id": id}).Decode(&got); err != nil {
		return store.Thread{}, err
	}
	return got.toThread(), nil
}

func (s *Store) GetThreadByID(ctx context.Context, id string) (store.Thread, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	var got threadDoc
	err := s.threads.FindOne(cctx, bson.M{"_id": id, "status": string(store.ThreadActive)}).Decode(&got)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Thread{}, store.ErrNotFound
	}
	if err != nil {
		return store.Thread{}, err
	}
	return got.toThread(), nil
}

func (s *Store) GetThreadStatus(ctx context.Context, id string) (store.ThreadStatus, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	var got threadDoc
	err := s.threads.FindOne(cctx, bson.M{"_id": id}).Decode(&got)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return store.ThreadStatus(got.Status), nil
}

func (s *Store) Archive(ctx context.Context, id string, summary string) (store.Thread, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	res := s.threads.FindOneAndUpdate(cctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(store.ThreadArchived), "summary": summary, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var got threadDoc
	if err := res.Decode(&got); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Thread{}, store.ErrNotFound
		}
		return store.Thread{}, err
	}
	return got.toThread(), nil
}

// --- Messages ---------------------------------------------------------

// GetMessageHistory fetches the ancestor chain in memory (thread chains are
// shallow in practice) then issues a single range query over the resulting
// thread id set, mirroring the in-process ancestor walk memstore performs.
func (s *Store) GetMessageHistory(ctx context.Context, threadID string, forSenderID string, limit int) ([]store.Message, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()

	chain, levels, participants, err := s.ancestorChain(cctx, threadID)
	if err != nil {
		return nil, err
	}

	cur, err := s.messages.Find(cctx, bson.M{"thread_id": bson.M{"$in": chain}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(cctx)

	type row struct {
		msg   store.Message
		level int
	}
	var rows []row
	for cur.Next(cctx) {
		var d messageDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		if d.ThreadID != threadID {
			if !containsString(participants[d.ThreadID], forSenderID) {
				continue
			}
		}
		rows = append(rows, row{msg: d.toMessage(), level: levels[d.ThreadID]})
	}
	if err := cur.Err(); err != nil {
		return nil, err
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

func (s *Store) ancestorChain(ctx context.Context, threadID string) (ids []string, levels map[string]int, participants map[string][]string, err error) {
	levels = map[string]int{}
	participants = map[string][]string{}
	level := 0
	cur := threadID
	seen := map[string]bool{}
	for {
		if seen[cur] {
			break
		}
		seen[cur] = true
		var d threadDoc
		err := s.threads.FindOne(ctx, bson.M{"_id": cur}).Decode(&d)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		ids = append(ids, cur)
		levels[cur] = level
		participants[cur] = d.Participants
		if d.ParentThreadID == "" {
			break
		}
		cur = d.ParentThreadID
		level++
	}
	// Normalize so the thread itself has the highest level (deepest).
	maxLevel := len(ids) - 1
	for id, lvl := range levels {
		levels[id] = maxLevel - lvl
	}
	return ids, levels, participants, nil
}

func (s *Store) CreateMessage(ctx context.Context, m store.Message) (store.Message, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	if m.ID == "" {
		m.ID = "msg-" + uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if _, err := s.messages.InsertOne(cctx, toMessageDoc(m)); err != nil {
		return store.Message{}, err
	}
	return m, nil
}

func (s *Store) CreateToolLogs(ctx context.Context, entries []store.ToolLog) error {
	if len(entries) == 0 {
		return nil
	}
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	docs := make([]any, 0, len(entries))
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		docs = append(docs, toToolLogDoc(e))
	}
	_, err := s.toolLogs.InsertMany(cctx, docs)
	return err
}

// --- Queue --------------------------------------------------------------

func (s *Store) Enqueue(ctx context.Context, e flowevent.Event) (flowevent.Event, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	if e.ID == "" {
		e.ID = "evt-" + uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Status = flowevent.StatusPending
	if e.TTL > 0 {
		exp := e.CreatedAt.Add(e.TTL)
		e.ExpiresAt = &exp
	}

	raw, err := flowevent.EncodePayload(e.Payload)
	if err != nil {
		return flowevent.Event{}, err
	}
	var payloadMap map[string]any
	if err := json.Unmarshal(raw, &payloadMap); err != nil {
		return flowevent.Event{}, err
	}
	doc := eventDoc{
		ID: e.ID, ThreadID: e.ThreadID, Type: string(e.Type), Payload: payloadMap,
		ParentEventID: e.ParentEventID, TraceID: e.TraceID, Priority: e.Priority,
		Status: string(e.Status), TTLMillis: e.TTL.Milliseconds(), ExpiresAt: e.ExpiresAt,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
	if _, err := s.events.InsertOne(cctx, doc); err != nil {
		return flowevent.Event{}, err
	}
	return e, nil
}

func (s *Store) docToEvent(d eventDoc) (flowevent.Event, error) {
	raw, err := json.Marshal(d.Payload)
	if err != nil {
		return flowevent.Event{}, err
	}
	payload, err := flowevent.DecodePayload(flowevent.Type(d.Type), raw)
	if err != nil {
		return flowevent.Event{}, err
	}
	return flowevent.Event{
		ID: d.ID, ThreadID: d.ThreadID, Type: flowevent.Type(d.Type), Payload: payload,
		ParentEventID: d.ParentEventID, TraceID: d.TraceID, Priority: d.Priority,
		Status: flowevent.Status(d.Status), TTL: time.Duration(d.TTLMillis) * time.Millisecond,
		ExpiresAt: d.ExpiresAt, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

func (s *Store) GetProcessing(ctx context.Context, threadID string) (*flowevent.Event, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	var d eventDoc
	err := s.events.FindOne(cctx, bson.M{"thread_id": threadID, "status": string(flowevent.StatusProcessing)}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e, err := s.docToEvent(d)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) GetNextPending(ctx context.Context, threadID string) (*flowevent.Event, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	// Expire anything whose deadline has passed before selecting the head.
	_, _ = s.events.UpdateMany(cctx,
		bson.M{"thread_id": threadID, "status": string(flowevent.StatusPending), "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": string(flowevent.StatusFailed), "updated_at": now}},
	)

	opts := options.FindOne().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	var d eventDoc
	err := s.events.FindOne(cctx, bson.M{"thread_id": threadID, "status": string(flowevent.StatusPending)}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e, err := s.docToEvent(d)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Claim performs the atomic status transition analogous to
// `UPDATE ... SET status='processing' WHERE id=$1 AND status='pending'
// RETURNING *` for a relational store; FindOneAndUpdate is the equivalent
// primitive for a document store.
func (s *Store) Claim(ctx context.Context, eventID string) (*flowevent.Event, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	res := s.events.FindOneAndUpdate(cctx,
		bson.M{"_id": eventID, "status": string(flowevent.StatusPending)},
		bson.M{"$set": bson.M{"status": string(flowevent.StatusProcessing), "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var d eventDoc
	if err := res.Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // lost the race: not an error
		}
		return nil, err
	}
	e, err := s.docToEvent(d)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpdateStatus(ctx context.Context, eventID string, status flowevent.Status, _ string) error {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	_, err := s.events.UpdateOne(cctx,
		bson.M{"_id": eventID, "status": bson.M{"$nin": []string{string(flowevent.StatusCompleted), string(flowevent.StatusFailed)}}},
		bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}},
	)
	return err
}

// --- Catalog ------------------------------------------------------------

func (s *Store) UpsertAgent(ctx context.Context, a store.CatalogAgent) (store.CatalogAgent, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	if a.ID == "" {
		a.ID = "agent-" + uuid.NewString()
	}
	cfg, err := json.Marshal(a.Config)
	if err != nil {
		return store.CatalogAgent{}, err
	}
	_, err = s.agents.UpdateOne(cctx,
		bson.M{"name": a.Name},
		bson.M{"$set": agentDoc{ID: a.ID, ExternalID: a.ExternalID, Name: a.Name, Config: cfg}},
		options.UpdateOne().SetUpsert(true),
	)
	return a, err
}

func (s *Store) UpsertTool(ctx context.Context, t store.CatalogTool) (store.CatalogTool, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	if t.ID == "" {
		t.ID = "tool-" + uuid.NewString()
	}
	_, err := s.tools.UpdateOne(cctx,
		bson.M{"key": t.Key},
		bson.M{"$set": toolDoc{ID: t.ID, ExternalID: t.ExternalID, Key: t.Key, Name: t.Name, Description: t.Description, InputSchema: t.InputSchema, Tags: t.Tags}},
		options.UpdateOne().SetUpsert(true),
	)
	return t, err
}

func (s *Store) UpsertAPI(ctx context.Context, a store.CatalogAPI) (store.CatalogAPI, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	if a.ID == "" {
		a.ID = "api-" + uuid.NewString()
	}
	_, err := s.apis.UpdateOne(cctx,
		bson.M{"name": a.Name},
		bson.M{"$set": apiDoc{ID: a.ID, ExternalID: a.ExternalID, Name: a.Name, OpenAPISpec: a.OpenAPISpec}},
		options.UpdateOne().SetUpsert(true),
	)
	return a, err
}

func (s *Store) UpsertUser(ctx context.Context, u store.User) (store.User, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	if u.ID == "" {
		u.ID = "user-" + uuid.NewString()
	}
	_, err := s.users.UpdateOne(cctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": toUserDoc(u)},
		options.UpdateOne().SetUpsert(true),
	)
	return u, err
}

func (s *Store) GetAgent(ctx context.Context, name string) (store.CatalogAgent, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	var d agentDoc
	err := s.agents.FindOne(cctx, bson.M{"name": name}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.CatalogAgent{}, store.ErrNotFound
	}
	if err != nil {
		return store.CatalogAgent{}, err
	}
	var cfg store.AgentConfig
	if err := json.Unmarshal(d.Config, &cfg); err != nil {
		return store.CatalogAgent{}, err
	}
	return store.CatalogAgent{ID: d.ID, ExternalID: d.ExternalID, Name: d.Name, Config: cfg}, nil
}

func (s *Store) GetTool(ctx context.Context, key string) (store.CatalogTool, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	var d toolDoc
	err := s.tools.FindOne(cctx, bson.M{"key": key}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.CatalogTool{}, store.ErrNotFound
	}
	if err != nil {
		return store.CatalogTool{}, err
	}
	return store.CatalogTool{ID: d.ID, ExternalID: d.ExternalID, Key: d.Key, Name: d.Name, Description: d.Description, InputSchema: d.InputSchema, Tags: d.Tags}, nil
}

func (s *Store) ListTools(ctx context.Context) ([]store.CatalogTool, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	cur, err := s.tools.Find(cctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(cctx)
	var out []store.CatalogTool
	for cur.Next(cctx) {
		var d toolDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, store.CatalogTool{ID: d.ID, ExternalID: d.ExternalID, Key: d.Key, Name: d.Name, Description: d.Description, InputSchema: d.InputSchema, Tags: d.Tags})
	}
	return out, cur.Err()
}

func (s *Store) GetUser(ctx context.Context, id string) (store.User, error) {
	cctx, cancel := s.ctx(ctx)
	defer cancel()
	var d userDoc
	err := s.users.FindOne(cctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, err
	}
	return d.toUser(), nil
}

var _ store.Store = (*Store)(nil)
