package ports

import (
	"context"
	"time"

	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/domain/events"
)

// GraphRepository persists knowledge graphs together with their topics and edges.
// Implementations return entities.ErrGraphNotFound for unknown graphs.
type GraphRepository interface {
	// CreateGraph stores a new, empty graph
	CreateGraph(ctx context.Context, graph *entities.KnowledgeGraph) error

	// GetGraph retrieves graph metadata
	GetGraph(ctx context.Context, id valueobjects.GraphID) (*entities.KnowledgeGraph, error)

	// ListGraphs returns the graphs owned by a user, newest first
	ListGraphs(ctx context.Context, owner valueobjects.UserID) ([]*entities.KnowledgeGraph, error)

	// DeleteGraph removes a graph and everything scoped to it
	DeleteGraph(ctx context.Context, id valueobjects.GraphID) error

	// LoadSnapshot reads the graph, its topics and its edges (in creation order)
	LoadSnapshot(ctx context.Context, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error)

	// WithinTx runs fn in a single transaction; fn's writes are committed
	// together only if it returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx GraphTx) error) error
}

// GraphTx is the primitive write surface used by ingestion.
type GraphTx interface {
	// TopicByName finds a topic by exact name, returning entities.ErrTopicNotFound if absent
	TopicByName(ctx context.Context, graphID valueobjects.GraphID, name string) (*entities.Topic, error)

	// InsertTopic inserts the topic unless its name is already taken in the
	// graph. It reports whether a row was written.
	InsertTopic(ctx context.Context, topic *entities.Topic) (bool, error)

	// InsertEdge inserts the edge unless the ordered pair already exists in
	// the graph. It reports whether a row was written.
	InsertEdge(ctx context.Context, edge *entities.Edge) (bool, error)

	// TouchGraph bumps the graph's updated timestamp
	TouchGraph(ctx context.Context, graphID valueobjects.GraphID, at time.Time) error
}

// UserRepository persists user accounts.
// Create returns entities.ErrDuplicate when the username or email is taken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUser(ctx context.Context, id valueobjects.UserID) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
}

// UploadRepository persists uploaded documents and their extracted text
type UploadRepository interface {
	CreateUpload(ctx context.Context, upload *entities.Upload) error
	GetUpload(ctx context.Context, id valueobjects.UploadID) (*entities.Upload, error)
	AttachUpload(ctx context.Context, id valueobjects.UploadID, graphID valueobjects.GraphID) error
}

// Store is implemented by every persistence backend
type Store interface {
	GraphRepository
	UserRepository
	UploadRepository

	// Migrate creates the schema if it does not exist
	Migrate(ctx context.Context) error
	// Ping checks connectivity
	Ping(ctx context.Context) error
	Close() error
}

// IngestionLocker serializes ingestion per key. Callers must invoke the
// returned release function exactly once.
type IngestionLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
