package events

import (
	"time"

	"pathfinder-backend/domain/core/valueobjects"
)

// DomainEvent is something that happened to an aggregate
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides the common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeGraphCreated  = "graph.created"
	TypeGraphIngested = "graph.ingested"
	TypeGraphDeleted  = "graph.deleted"
)

// GraphCreated is raised when a user creates a roadmap graph
type GraphCreated struct {
	BaseEvent
	OwnerID valueobjects.UserID `json:"owner_id"`
	Name    string              `json:"name"`
}

func NewGraphCreated(graphID valueobjects.GraphID, owner valueobjects.UserID, name string, at time.Time) GraphCreated {
	return GraphCreated{
		BaseEvent: BaseEvent{AggregateID: graphID.String(), EventType: TypeGraphCreated, Timestamp: at, Version: 1},
		OwnerID:   owner,
		Name:      name,
	}
}

// GraphIngested is raised after an ingestion transaction commits
type GraphIngested struct {
	BaseEvent
	OwnerID        valueobjects.UserID `json:"owner_id"`
	Source         string              `json:"source"`
	TopicsCreated  int                 `json:"topics_created"`
	EdgesCreated   int                 `json:"edges_created"`
	EdgesSkipped   int                 `json:"edges_skipped"`
	TopicsResolved int                 `json:"topics_resolved"`
}

func NewGraphIngested(graphID valueobjects.GraphID, owner valueobjects.UserID, source string, resolved, topicsCreated, edgesCreated, skipped int, at time.Time) GraphIngested {
	return GraphIngested{
		BaseEvent:      BaseEvent{AggregateID: graphID.String(), EventType: TypeGraphIngested, Timestamp: at, Version: 1},
		OwnerID:        owner,
		Source:         source,
		TopicsResolved: resolved,
		TopicsCreated:  topicsCreated,
		EdgesCreated:   edgesCreated,
		EdgesSkipped:   skipped,
	}
}

// GraphDeleted is raised after a graph and everything it owns is removed
type GraphDeleted struct {
	BaseEvent
	OwnerID valueobjects.UserID `json:"owner_id"`
}

func NewGraphDeleted(graphID valueobjects.GraphID, owner valueobjects.UserID, at time.Time) GraphDeleted {
	return GraphDeleted{
		BaseEvent: BaseEvent{AggregateID: graphID.String(), EventType: TypeGraphDeleted, Timestamp: at, Version: 1},
		OwnerID:   owner,
	}
}
