package entities

import (
	"strings"
	"time"

	"pathfinder-backend/domain/core/valueobjects"
)

// KnowledgeGraph is one user-owned roadmap: a named set of topics and edges
type KnowledgeGraph struct {
	ID        valueobjects.GraphID `json:"id"`
	OwnerID   valueobjects.UserID  `json:"owner_id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewKnowledgeGraph creates an empty graph owned by owner
func NewKnowledgeGraph(owner valueobjects.UserID, name string) (*KnowledgeGraph, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyGraphName
	}
	now := time.Now().UTC()
	return &KnowledgeGraph{
		ID:        valueobjects.NewGraphID(),
		OwnerID:   owner,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOwnedBy reports whether user owns the graph
func (g KnowledgeGraph) IsOwnedBy(user valueobjects.UserID) bool {
	return g.OwnerID == user
}
