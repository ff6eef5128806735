package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// DecomposeResult is the graph built from a topic decomposition
type DecomposeResult struct {
	Graph     *entities.KnowledgeGraph  `json:"graph"`
	Hierarchy *commands.HierarchyResult `json:"hierarchy"`
}

// Explanation is a tutor answer about one topic
type Explanation struct {
	TopicID       string   `json:"topic_id"`
	Topic         string   `json:"topic"`
	Prerequisites []string `json:"prerequisites"`
	Explanation   string   `json:"explanation"`
}

// LearningService covers the model-driven features: decomposition and tutoring
type LearningService struct {
	graphs     *GraphStoreService
	decomposer ports.TopicDecomposer
	tutor      ports.Tutor
	logger     *zap.Logger
}

// NewLearningService creates a new learning service
func NewLearningService(graphs *GraphStoreService, decomposer ports.TopicDecomposer, tutor ports.Tutor, logger *zap.Logger) *LearningService {
	return &LearningService{graphs: graphs, decomposer: decomposer, tutor: tutor, logger: logger}
}

// Decompose asks the model for the prerequisites of a topic and stores
// them as a new graph ending at that topic. The graph is removed again if
// the hierarchy cannot be applied.
func (s *LearningService) Decompose(ctx context.Context, cmd commands.DecomposeTopicCommand) (*DecomposeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	prereqs, err := s.decomposer.Decompose(ctx, cmd.Topic)
	if err != nil {
		return nil, err
	}
	if prereqs.Len() == 0 {
		return nil, pkgerrors.NewExternalError("llm", fmt.Errorf("empty decomposition for %q", cmd.Topic))
	}

	name := cmd.GraphName
	if name == "" {
		name = cmd.Topic
	}
	graph, err := s.graphs.CreateGraph(ctx, valueobjects.UserID(cmd.UserID), name)
	if err != nil {
		return nil, err
	}

	hierarchy, err := s.graphs.ApplyHierarchy(ctx, commands.BuildHierarchyCommand{
		UserID:        cmd.UserID,
		GraphID:       graph.ID.String(),
		Source:        "decomposition",
		Prerequisites: prereqs,
	})
	if err != nil {
		s.graphs.discardGraph(ctx, graph, err)
		return nil, err
	}

	s.logger.Info("Topic decomposed",
		zap.String("graph_id", graph.ID.String()),
		zap.Int("topics", len(hierarchy.Topics)),
		zap.Int("connections", hierarchy.CreatedConnections),
	)
	return &DecomposeResult{Graph: graph, Hierarchy: hierarchy}, nil
}

// Explain asks the tutor model about one topic of a graph
func (s *LearningService) Explain(ctx context.Context, cmd commands.ExplainTopicCommand) (*Explanation, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	snap, err := s.graphs.GetGraphSnapshot(ctx, valueobjects.UserID(cmd.UserID), valueobjects.GraphID(cmd.GraphID))
	if err != nil {
		return nil, err
	}
	topic, ok := snap.Topic(valueobjects.TopicID(cmd.TopicID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrTopicNotFound, cmd.TopicID)
	}

	prereqs := []string{}
	for _, p := range snap.Prerequisites(topic.ID) {
		prereqs = append(prereqs, p.Name)
	}

	text, err := s.tutor.Explain(ctx, topic.Name, prereqs, cmd.Question)
	if err != nil {
		return nil, err
	}
	return &Explanation{
		TopicID:       topic.ID.String(),
		Topic:         topic.Name,
		Prerequisites: prereqs,
		Explanation:   text,
	}, nil
}
