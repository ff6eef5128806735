package services

import (
	"context"
	"fmt"

	"pathfinder-backend/application/queries"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// GraphQueryService serves read-only views of a graph
type GraphQueryService struct {
	graphs *GraphStoreService
}

// NewGraphQueryService creates a new graph query service
func NewGraphQueryService(graphs *GraphStoreService) *GraphQueryService {
	return &GraphQueryService{graphs: graphs}
}

func (s *GraphQueryService) snapshot(ctx context.Context, q queries.GetGraphQuery) (*aggregates.GraphSnapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.graphs.GetGraphSnapshot(ctx, valueobjects.UserID(q.UserID), valueobjects.GraphID(q.GraphID))
}

// GetGraph returns the graph with all nodes and edges
func (s *GraphQueryService) GetGraph(ctx context.Context, q queries.GetGraphQuery) (*queries.GraphSnapshotResult, error) {
	snap, err := s.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	return queries.NewGraphSnapshotResult(snap), nil
}

// ListTopics returns the graph's nodes
func (s *GraphQueryService) ListTopics(ctx context.Context, q queries.GetGraphQuery) ([]queries.TopicDTO, error) {
	snap, err := s.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	return queries.NewTopicDTOs(snap.Topics()), nil
}

// ListEdges returns the graph's edges with endpoint names
func (s *GraphQueryService) ListEdges(ctx context.Context, q queries.GetGraphQuery) ([]queries.EdgeDTO, error) {
	snap, err := s.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	return queries.NewEdgeDTOs(snap), nil
}

// GetTopicDetail returns a topic together with its prerequisites and dependents
func (s *GraphQueryService) GetTopicDetail(ctx context.Context, q queries.GetTopicQuery) (*queries.TopicDetailResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := s.graphs.GetGraphSnapshot(ctx, valueobjects.UserID(q.UserID), valueobjects.GraphID(q.GraphID))
	if err != nil {
		return nil, err
	}

	id := valueobjects.TopicID(q.TopicID)
	topic, ok := snap.Topic(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrTopicNotFound, id)
	}
	detail := NewTopicDetail(snap, topic)
	return &detail, nil
}

// NewTopicDetail builds the detail view of topic from snap
func NewTopicDetail(snap *aggregates.GraphSnapshot, topic entities.Topic) queries.TopicDetailResult {
	return queries.TopicDetailResult{
		Topic:         queries.NewTopicDTOs([]entities.Topic{topic})[0],
		Prerequisites: queries.NewTopicDTOs(snap.Prerequisites(topic.ID)),
		Dependents:    queries.NewTopicDTOs(snap.Dependents(topic.ID)),
	}
}
