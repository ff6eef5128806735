package aggregates

import (
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// GraphSnapshot is an immutable point-in-time copy of a graph's topics and
// edges. Edges keep the order in which the store returned them, which is the
// order they were created.
type GraphSnapshot struct {
	graph  entities.KnowledgeGraph
	topics []entities.Topic
	edges  []entities.Edge

	byID   map[valueobjects.TopicID]int
	byName map[string]valueobjects.TopicID
}

// NewGraphSnapshot copies the given slices into a snapshot
func NewGraphSnapshot(graph entities.KnowledgeGraph, topics []entities.Topic, edges []entities.Edge) *GraphSnapshot {
	s := &GraphSnapshot{
		graph:  graph,
		topics: make([]entities.Topic, len(topics)),
		edges:  make([]entities.Edge, len(edges)),
		byID:   make(map[valueobjects.TopicID]int, len(topics)),
		byName: make(map[string]valueobjects.TopicID, len(topics)),
	}
	copy(s.topics, topics)
	copy(s.edges, edges)

	for i, t := range s.topics {
		s.byID[t.ID] = i
		if _, exists := s.byName[t.Name]; !exists {
			s.byName[t.Name] = t.ID
		}
	}
	return s
}

func (s *GraphSnapshot) Graph() entities.KnowledgeGraph { return s.graph }
func (s *GraphSnapshot) TopicCount() int                { return len(s.topics) }
func (s *GraphSnapshot) EdgeCount() int                 { return len(s.edges) }

// Topics returns a copy of the topic list
func (s *GraphSnapshot) Topics() []entities.Topic {
	out := make([]entities.Topic, len(s.topics))
	copy(out, s.topics)
	return out
}

// Edges returns a copy of the edge list in creation order
func (s *GraphSnapshot) Edges() []entities.Edge {
	out := make([]entities.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// TopicIDByName resolves an exact topic name
func (s *GraphSnapshot) TopicIDByName(name string) (valueobjects.TopicID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Topic returns the topic with the given id
func (s *GraphSnapshot) Topic(id valueobjects.TopicID) (entities.Topic, bool) {
	i, ok := s.byID[id]
	if !ok {
		return entities.Topic{}, false
	}
	return s.topics[i], true
}

// NameOf returns the name of a topic, or "" when unknown
func (s *GraphSnapshot) NameOf(id valueobjects.TopicID) string {
	t, _ := s.Topic(id)
	return t.Name
}

// Adjacency maps every topic to its direct successors in edge order.
// Repeated edges and edges whose endpoints are not in the snapshot are ignored.
func (s *GraphSnapshot) Adjacency() map[valueobjects.TopicID][]valueobjects.TopicID {
	adj := make(map[valueobjects.TopicID][]valueobjects.TopicID, len(s.topics))
	seen := make(map[string]struct{}, len(s.edges))
	for _, e := range s.edges {
		if _, ok := s.byID[e.FromTopicID]; !ok {
			continue
		}
		if _, ok := s.byID[e.ToTopicID]; !ok {
			continue
		}
		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		adj[e.FromTopicID] = append(adj[e.FromTopicID], e.ToTopicID)
	}
	return adj
}

// Prerequisites returns the topics with an edge into id, in edge order
func (s *GraphSnapshot) Prerequisites(id valueobjects.TopicID) []entities.Topic {
	var out []entities.Topic
	for _, e := range s.edges {
		if e.ToTopicID != id {
			continue
		}
		if t, ok := s.Topic(e.FromTopicID); ok {
			out = append(out, t)
		}
	}
	return out
}

// Dependents returns the topics id has an edge to, in edge order
func (s *GraphSnapshot) Dependents(id valueobjects.TopicID) []entities.Topic {
	var out []entities.Topic
	for _, e := range s.edges {
		if e.FromTopicID != id {
			continue
		}
		if t, ok := s.Topic(e.ToTopicID); ok {
			out = append(out, t)
		}
	}
	return out
}
