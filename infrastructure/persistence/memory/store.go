// Package memory is a process-local Store used for development and tests.
// Write transactions are serialized store-wide and staged until commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

type graphData struct {
	graph  entities.KnowledgeGraph
	topics []entities.Topic
	edges  []entities.Edge
	names  map[string]int
	pairs  map[string]struct{}
}

// Store keeps everything in maps guarded by a RWMutex
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex

	graphs    map[valueobjects.GraphID]*graphData
	users     map[valueobjects.UserID]entities.User
	usernames map[string]valueobjects.UserID
	emails    map[string]valueobjects.UserID
	uploads   map[valueobjects.UploadID]entities.Upload
}

var _ ports.Store = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		graphs:    make(map[valueobjects.GraphID]*graphData),
		users:     make(map[valueobjects.UserID]entities.User),
		usernames: make(map[string]valueobjects.UserID),
		emails:    make(map[string]valueobjects.UserID),
		uploads:   make(map[valueobjects.UploadID]entities.Upload),
	}
}

func (s *Store) Migrate(context.Context) error { return nil }
func (s *Store) Ping(context.Context) error    { return nil }
func (s *Store) Close() error                  { return nil }

func (s *Store) CreateGraph(_ context.Context, graph *entities.KnowledgeGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.graphs[graph.ID]; exists {
		return entities.ErrDuplicate
	}
	s.graphs[graph.ID] = &graphData{
		graph: *graph,
		names: make(map[string]int),
		pairs: make(map[string]struct{}),
	}
	return nil
}

func (s *Store) GetGraph(_ context.Context, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	out := g.graph
	return &out, nil
}

func (s *Store) ListGraphs(_ context.Context, owner valueobjects.UserID) ([]*entities.KnowledgeGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*entities.KnowledgeGraph{}
	for _, g := range s.graphs {
		if g.graph.OwnerID == owner {
			graph := g.graph
			out = append(out, &graph)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteGraph(_ context.Context, id valueobjects.GraphID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[id]; !ok {
		return fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	delete(s.graphs, id)
	for uid, u := range s.uploads {
		if u.GraphID == id {
			delete(s.uploads, uid)
		}
	}
	return nil
}

func (s *Store) LoadSnapshot(_ context.Context, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return aggregates.NewGraphSnapshot(g.graph, g.topics, g.edges), nil
}

// WithinTx stages fn's writes and applies them only if fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.GraphTx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx := &memTx{store: s, names: make(map[string]entities.Topic), pairs: make(map[string]struct{}), touched: make(map[valueobjects.GraphID]time.Time)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

type memTx struct {
	store   *Store
	topics  []entities.Topic
	edges   []entities.Edge
	names   map[string]entities.Topic
	pairs   map[string]struct{}
	touched map[valueobjects.GraphID]time.Time
}

func nameKey(graphID valueobjects.GraphID, name string) string {
	return string(graphID) + "\x00" + name
}

func (t *memTx) TopicByName(_ context.Context, graphID valueobjects.GraphID, name string) (*entities.Topic, error) {
	if topic, ok := t.names[nameKey(graphID, name)]; ok {
		return &topic, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	g, ok := t.store.graphs[graphID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, graphID)
	}
	if i, ok := g.names[name]; ok {
		topic := g.topics[i]
		return &topic, nil
	}
	return nil, entities.ErrTopicNotFound
}

func (t *memTx) InsertTopic(ctx context.Context, topic *entities.Topic) (bool, error) {
	if _, err := t.TopicByName(ctx, topic.GraphID, topic.Name); err == nil {
		return false, nil
	} else if !errors.Is(err, entities.ErrTopicNotFound) {
		return false, err
	}
	t.topics = append(t.topics, *topic)
	t.names[nameKey(topic.GraphID, topic.Name)] = *topic
	return true, nil
}

func (t *memTx) InsertEdge(_ context.Context, edge *entities.Edge) (bool, error) {
	key := string(edge.GraphID) + "\x00" + edge.Key()
	if _, staged := t.pairs[key]; staged {
		return false, nil
	}
	t.store.mu.RLock()
	g, ok := t.store.graphs[edge.GraphID]
	var exists bool
	if ok {
		_, exists = g.pairs[edge.Key()]
	}
	t.store.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, edge.GraphID)
	}
	if exists {
		return false, nil
	}
	t.edges = append(t.edges, *edge)
	t.pairs[key] = struct{}{}
	return true, nil
}

func (t *memTx) TouchGraph(_ context.Context, graphID valueobjects.GraphID, at time.Time) error {
	t.touched[graphID] = at
	return nil
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// a graph deleted mid-transaction takes its staged rows with it
	for _, topic := range t.topics {
		g, ok := s.graphs[topic.GraphID]
		if !ok {
			continue
		}
		g.names[topic.Name] = len(g.topics)
		g.topics = append(g.topics, topic)
	}
	for _, edge := range t.edges {
		g, ok := s.graphs[edge.GraphID]
		if !ok {
			continue
		}
		g.pairs[edge.Key()] = struct{}{}
		g.edges = append(g.edges, edge)
	}
	for id, at := range t.touched {
		if g, ok := s.graphs[id]; ok {
			g.graph.UpdatedAt = at
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[user.Username]; taken {
		return entities.ErrDuplicate
	}
	if _, taken := s.emails[user.Email]; taken {
		return entities.ErrDuplicate
	}
	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	s.emails[user.Email] = user.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id valueobjects.UserID) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	s.mu.RLock()
	id, ok := s.usernames[strings.TrimSpace(username)]
	s.mu.RUnlock()
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) CreateUpload(_ context.Context, upload *entities.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[upload.ID] = *upload
	return nil
}

func (s *Store) GetUpload(_ context.Context, id valueobjects.UploadID) (*entities.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, entities.ErrUploadNotFound
	}
	return &u, nil
}

func (s *Store) AttachUpload(_ context.Context, id valueobjects.UploadID, graphID valueobjects.GraphID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return entities.ErrUploadNotFound
	}
	if _, ok := s.graphs[graphID]; !ok {
		return fmt.Errorf("%w: %s", entities.ErrGraphNotFound, graphID)
	}
	u.GraphID = graphID
	s.uploads[id] = u
	return nil
}
