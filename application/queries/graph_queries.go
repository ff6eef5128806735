package queries

import (
	"time"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
)

// GetGraphQuery addresses one graph of one owner
type GetGraphQuery struct {
	UserID  string `validate:"required"`
	GraphID string `validate:"required,uuid"`
}

func (q GetGraphQuery) Validate() error { return commands.ValidateStruct(q) }

// GetTopicQuery addresses one topic of one graph
type GetTopicQuery struct {
	UserID  string `validate:"required"`
	GraphID string `validate:"required,uuid"`
	TopicID string `validate:"required,uuid"`
}

func (q GetTopicQuery) Validate() error { return commands.ValidateStruct(q) }

// FindRoadmapQuery asks for every learning path from Start to Target
type FindRoadmapQuery struct {
	UserID  string `validate:"required"`
	GraphID string `validate:"required,uuid"`
	Start   string `validate:"required"`
	Target  string `validate:"required"`
}

func (q FindRoadmapQuery) Validate() error { return commands.ValidateStruct(q) }

// GraphDTO is the external view of a graph
type GraphDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TopicDTO is the external view of a topic
type TopicDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EdgeDTO is the external view of an edge, with endpoint names resolved
type EdgeDTO struct {
	ID        string `json:"id"`
	FromID    string `json:"from_topic_id"`
	ToID      string `json:"to_topic_id"`
	FromTopic string `json:"from_topic"`
	ToTopic   string `json:"to_topic"`
}

// GraphSnapshotResult is the full node and edge list of a graph
type GraphSnapshotResult struct {
	Graph GraphDTO   `json:"graph"`
	Nodes []TopicDTO `json:"nodes"`
	Edges []EdgeDTO  `json:"edges"`
}

// TopicDetailResult is a topic with its direct neighbours
type TopicDetailResult struct {
	Topic         TopicDTO   `json:"topic"`
	Prerequisites []TopicDTO `json:"prerequisites"`
	Dependents    []TopicDTO `json:"dependents"`
}

// RoadmapResult is the response of a path query; Paths is never nil
type RoadmapResult struct {
	Start     string     `json:"start"`
	Target    string     `json:"target"`
	Paths     [][]string `json:"paths"`
	Truncated bool       `json:"truncated"`
}

// NewGraphDTO converts a graph entity
func NewGraphDTO(g entities.KnowledgeGraph) GraphDTO {
	return GraphDTO{ID: g.ID.String(), Name: g.Name, CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt}
}

// NewTopicDTOs converts topics, always returning a non-nil slice
func NewTopicDTOs(topics []entities.Topic) []TopicDTO {
	out := make([]TopicDTO, 0, len(topics))
	for _, t := range topics {
		out = append(out, TopicDTO{ID: t.ID.String(), Name: t.Name, Description: t.Description})
	}
	return out
}

// NewEdgeDTOs converts the snapshot's edges, resolving endpoint names
func NewEdgeDTOs(snap *aggregates.GraphSnapshot) []EdgeDTO {
	edges := snap.Edges()
	out := make([]EdgeDTO, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgeDTO{
			ID:        string(e.ID),
			FromID:    e.FromTopicID.String(),
			ToID:      e.ToTopicID.String(),
			FromTopic: snap.NameOf(e.FromTopicID),
			ToTopic:   snap.NameOf(e.ToTopicID),
		})
	}
	return out
}

// NewGraphSnapshotResult converts a snapshot for display
func NewGraphSnapshotResult(snap *aggregates.GraphSnapshot) *GraphSnapshotResult {
	return &GraphSnapshotResult{
		Graph: NewGraphDTO(snap.Graph()),
		Nodes: NewTopicDTOs(snap.Topics()),
		Edges: NewEdgeDTOs(snap),
	}
}
