package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/ports"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/domain/events"
	"pathfinder-backend/pkg/observability"
)

// ErrIngestionTooLarge is returned when a request exceeds the ingestion limits
var ErrIngestionTooLarge = errors.New("ingestion request too large")

// GraphStoreService owns graph lifecycle and ingestion. Ingestion for one
// graph is serialized with the locker and runs in a single transaction.
type GraphStoreService struct {
	repo     ports.GraphRepository
	locker   ports.IngestionLocker
	events   ports.EventPublisher
	settings domainconfig.Source
	metrics  *observability.Collector
	tracer   *observability.Tracer
	logger   *zap.Logger

	loads singleflight.Group
}

// NewGraphStoreService creates a new graph store service
func NewGraphStoreService(
	repo ports.GraphRepository,
	locker ports.IngestionLocker,
	publisher ports.EventPublisher,
	settings domainconfig.Source,
	metrics *observability.Collector,
	logger *zap.Logger,
) *GraphStoreService {
	return &GraphStoreService{
		repo:     repo,
		locker:   locker,
		events:   publisher,
		settings: settings,
		metrics:  metrics,
		tracer:   observability.NewTracer("graph-store"),
		logger:   logger,
	}
}

// CreateGraph creates an empty graph for the user
func (s *GraphStoreService) CreateGraph(ctx context.Context, owner valueobjects.UserID, name string) (*entities.KnowledgeGraph, error) {
	if name == "" {
		name = s.settings.Current().DefaultGraphName
	}
	graph, err := entities.NewKnowledgeGraph(owner, name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGraph(ctx, graph); err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}

	s.logger.Info("Graph created",
		zap.String("graph_id", graph.ID.String()),
		zap.String("owner_id", owner.String()),
	)
	s.publish(ctx, events.NewGraphCreated(graph.ID, owner, graph.Name, graph.CreatedAt))
	return graph, nil
}

// ListGraphs returns the user's graphs
func (s *GraphStoreService) ListGraphs(ctx context.Context, owner valueobjects.UserID) ([]*entities.KnowledgeGraph, error) {
	graphs, err := s.repo.ListGraphs(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	if graphs == nil {
		graphs = []*entities.KnowledgeGraph{}
	}
	return graphs, nil
}

// GetGraph returns graph metadata if owner owns it
func (s *GraphStoreService) GetGraph(ctx context.Context, owner valueobjects.UserID, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	graph, err := s.repo.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	if !graph.IsOwnedBy(owner) {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return graph, nil
}

// GetGraphSnapshot returns every topic and edge of a graph owned by owner.
// Concurrent loads of the same graph share one read. The shared read is
// detached from any single caller, and each caller still stops waiting when
// its own context ends.
func (s *GraphStoreService) GetGraphSnapshot(ctx context.Context, owner valueobjects.UserID, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(id.String(), func() (interface{}, error) {
		return s.repo.LoadSnapshot(loadCtx, id)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	snap := res.Val.(*aggregates.GraphSnapshot)
	if !snap.Graph().IsOwnedBy(owner) {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return snap, nil
}

// DeleteGraph removes the graph with its topics, edges and uploads
func (s *GraphStoreService) DeleteGraph(ctx context.Context, cmd commands.DeleteGraphCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	owner := valueobjects.UserID(cmd.UserID)
	graphID := valueobjects.GraphID(cmd.GraphID)

	if _, err := s.GetGraph(ctx, owner, graphID); err != nil {
		return err
	}

	err := s.withIngestionLock(ctx, graphID, func(ctx context.Context) error {
		return s.repo.DeleteGraph(ctx, graphID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Graph deleted",
		zap.String("graph_id", graphID.String()),
		zap.String("owner_id", owner.String()),
	)
	s.publish(ctx, events.NewGraphDeleted(graphID, owner, time.Now().UTC()))
	return nil
}

// discardGraph deletes a graph whose seeding failed after it was created.
// It runs detached from ctx so a cancelled request still cleans up.
func (s *GraphStoreService) discardGraph(ctx context.Context, graph *entities.KnowledgeGraph, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.withIngestionLock(ctx, graph.ID, func(ctx context.Context) error {
		return s.repo.DeleteGraph(ctx, graph.ID)
	})
	if err != nil && !errors.Is(err, entities.ErrGraphNotFound) {
		s.logger.Error("Failed to discard graph after seeding failed",
			zap.String("graph_id", graph.ID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}

	s.logger.Warn("Discarded graph after seeding failed",
		zap.String("graph_id", graph.ID.String()),
		zap.Error(cause),
	)
	s.publish(ctx, events.NewGraphDeleted(graph.ID, graph.OwnerID, time.Now().UTC()))
}

// Ingest upserts extracted topics and connections into a graph
func (s *GraphStoreService) Ingest(ctx context.Context, cmd commands.ImportTopicsCommand) (result *commands.IngestionResult, err error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	cfg := s.settings.Current()
	if cfg.MaxTopicsPerIngestion > 0 && len(cmd.Topics) > cfg.MaxTopicsPerIngestion {
		return nil, fmt.Errorf("%w: %d topics exceeds %d", ErrIngestionTooLarge, len(cmd.Topics), cfg.MaxTopicsPerIngestion)
	}
	if cfg.MaxConnectionsPerIngestion > 0 && len(cmd.Connections) > cfg.MaxConnectionsPerIngestion {
		return nil, fmt.Errorf("%w: %d connections exceeds %d", ErrIngestionTooLarge, len(cmd.Connections), cfg.MaxConnectionsPerIngestion)
	}

	owner := valueobjects.UserID(cmd.UserID)
	graphID := valueobjects.GraphID(cmd.GraphID)
	source := sourceOrDefault(cmd.Source, "import")

	ctx, span := s.tracer.Start(ctx, "GraphStore.Ingest",
		attribute.String("graph.id", graphID.String()),
		attribute.Int("input.topics", len(cmd.Topics)),
		attribute.Int("input.connections", len(cmd.Connections)),
	)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	if _, err := s.GetGraph(ctx, owner, graphID); err != nil {
		return nil, err
	}

	var scope *GraphScope
	var resolved map[string]valueobjects.TopicID
	var edgesCreated int
	err = s.withIngestionLock(ctx, graphID, func(ctx context.Context) error {
		return s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			scope = NewGraphScope(tx, graphID, cfg, s.logger)

			nameToID, err := scope.UpsertTopics(ctx, cmd.Topics)
			if err != nil {
				return err
			}
			created, err := scope.UpsertEdges(ctx, cmd.Connections, nameToID)
			if err != nil {
				return err
			}
			resolved, edgesCreated = nameToID, created
			return tx.TouchGraph(ctx, graphID, time.Now().UTC())
		})
	})
	if err != nil {
		s.metrics.Ingestions.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	result = &commands.IngestionResult{
		ImportedTopics:      len(resolved),
		ImportedConnections: edgesCreated,
		CreatedTopics:       scope.CreatedTopics(),
		SkippedConnections:  scope.Skipped(),
	}
	s.recordIngestion(ctx, owner, graphID, source, scope, len(resolved))
	return result, nil
}

// ApplyHierarchy ingests a prerequisite map into a graph
func (s *GraphStoreService) ApplyHierarchy(ctx context.Context, cmd commands.BuildHierarchyCommand) (result *commands.HierarchyResult, err error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	cfg := s.settings.Current()
	if cfg.MaxConnectionsPerIngestion > 0 && cmd.Prerequisites.Len() > cfg.MaxConnectionsPerIngestion {
		return nil, fmt.Errorf("%w: %d entries exceeds %d", ErrIngestionTooLarge, cmd.Prerequisites.Len(), cfg.MaxConnectionsPerIngestion)
	}

	owner := valueobjects.UserID(cmd.UserID)
	graphID := valueobjects.GraphID(cmd.GraphID)
	source := sourceOrDefault(cmd.Source, "hierarchy")

	ctx, span := s.tracer.Start(ctx, "GraphStore.ApplyHierarchy",
		attribute.String("graph.id", graphID.String()),
		attribute.Int("input.entries", cmd.Prerequisites.Len()),
	)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	if _, err := s.GetGraph(ctx, owner, graphID); err != nil {
		return nil, err
	}

	var scope *GraphScope
	var touched map[string]valueobjects.TopicID
	err = s.withIngestionLock(ctx, graphID, func(ctx context.Context) error {
		return s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			scope = NewGraphScope(tx, graphID, cfg, s.logger)
			nameToID, err := scope.BuildHierarchy(ctx, cmd.Prerequisites)
			if err != nil {
				return err
			}
			touched = nameToID
			return tx.TouchGraph(ctx, graphID, time.Now().UTC())
		})
	})
	if err != nil {
		s.metrics.Ingestions.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	result = &commands.HierarchyResult{
		Topics:             touched,
		CreatedTopics:      scope.CreatedTopics(),
		CreatedConnections: scope.CreatedEdges(),
		SkippedEntries:     scope.Skipped(),
	}
	s.recordIngestion(ctx, owner, graphID, source, scope, len(touched))
	return result, nil
}

func (s *GraphStoreService) withIngestionLock(ctx context.Context, graphID valueobjects.GraphID, fn func(context.Context) error) error {
	start := time.Now()
	release, err := s.locker.Lock(ctx, "graph:"+graphID.String())
	if err != nil {
		return fmt.Errorf("acquire ingestion lock: %w", err)
	}
	defer release()
	s.metrics.LockWait.Observe(time.Since(start).Seconds())

	return fn(ctx)
}

func (s *GraphStoreService) recordIngestion(ctx context.Context, owner valueobjects.UserID, graphID valueobjects.GraphID, source string, scope *GraphScope, resolved int) {
	s.metrics.Ingestions.WithLabelValues(source, "ok").Inc()
	s.metrics.TopicsCreated.Add(float64(scope.CreatedTopics()))
	s.metrics.EdgesCreated.Add(float64(scope.CreatedEdges()))
	for _, sk := range scope.Skipped() {
		s.metrics.EdgesSkipped.WithLabelValues(sk.Reason).Inc()
	}

	s.logger.Info("Graph ingestion committed",
		zap.String("graph_id", graphID.String()),
		zap.String("source", source),
		zap.Int("topics_resolved", resolved),
		zap.Int("topics_created", scope.CreatedTopics()),
		zap.Int("edges_created", scope.CreatedEdges()),
		zap.Int("edges_skipped", len(scope.Skipped())),
	)
	s.publish(ctx, events.NewGraphIngested(graphID, owner, source, resolved,
		scope.CreatedTopics(), scope.CreatedEdges(), len(scope.Skipped()), time.Now().UTC()))
}

// publish is best effort: the write has already committed
func (s *GraphStoreService) publish(ctx context.Context, event events.DomainEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

func sourceOrDefault(source, fallback string) string {
	if source == "" {
		return fallback
	}
	return source
}
