package entities

import (
	"time"

	"pathfinder-backend/domain/core/valueobjects"
)

// Edge is a directed "learn From before To" relationship
type Edge struct {
	ID          valueobjects.EdgeID  `json:"id"`
	GraphID     valueobjects.GraphID `json:"graph_id"`
	FromTopicID valueobjects.TopicID `json:"from_topic_id"`
	ToTopicID   valueobjects.TopicID `json:"to_topic_id"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NewEdge creates an edge with a fresh identifier
func NewEdge(graphID valueobjects.GraphID, from, to valueobjects.TopicID) *Edge {
	return &Edge{
		ID:          valueobjects.NewEdgeID(),
		GraphID:     graphID,
		FromTopicID: from,
		ToTopicID:   to,
		CreatedAt:   time.Now().UTC(),
	}
}

// IsSelfLoop reports whether both endpoints are the same topic
func (e Edge) IsSelfLoop() bool {
	return e.FromTopicID == e.ToTopicID
}

// Key is unique per ordered endpoint pair within a graph
func (e Edge) Key() string {
	return EdgeKey(e.FromTopicID, e.ToTopicID)
}

// EdgeKey builds the uniqueness key for an ordered endpoint pair
func EdgeKey(from, to valueobjects.TopicID) string {
	return string(from) + "->" + string(to)
}
