package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"pathfinder-backend/application/queries"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/domain/core/valueobjects"
	domainservices "pathfinder-backend/domain/services"
	"pathfinder-backend/pkg/observability"
)

// RoadmapService answers "how do I get from start to target" queries
type RoadmapService struct {
	graphs   *GraphStoreService
	settings domainconfig.Source
	metrics  *observability.Collector
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// NewRoadmapService creates a new roadmap service
func NewRoadmapService(graphs *GraphStoreService, settings domainconfig.Source, metrics *observability.Collector, logger *zap.Logger) *RoadmapService {
	return &RoadmapService{
		graphs:   graphs,
		settings: settings,
		metrics:  metrics,
		tracer:   observability.NewTracer("roadmap"),
		logger:   logger,
	}
}

// FindRoadmap enumerates every simple path from Start to Target over a
// fresh snapshot of the graph, within the configured limits.
func (s *RoadmapService) FindRoadmap(ctx context.Context, q queries.FindRoadmapQuery) (result *queries.RoadmapResult, err error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "Roadmap.Find", attribute.String("graph.id", q.GraphID))
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	snap, err := s.graphs.GetGraphSnapshot(ctx, valueobjects.UserID(q.UserID), valueobjects.GraphID(q.GraphID))
	if err != nil {
		return nil, err
	}

	cfg := s.settings.Current()
	if cfg.RoadmapTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RoadmapTimeout)
		defer cancel()
	}

	finder := domainservices.NewPathFinder(domainservices.PathLimits{
		MaxPaths: cfg.MaxPaths,
		MaxDepth: cfg.MaxPathDepth,
	})

	start := time.Now()
	found, err := finder.FindPaths(ctx, snap, q.Start, q.Target)
	s.metrics.RoadmapDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	s.metrics.RoadmapPaths.Observe(float64(len(found.Paths)))
	if found.Truncated {
		s.metrics.RoadmapTruncated.Inc()
		s.logger.Info("Roadmap search truncated",
			zap.String("graph_id", q.GraphID),
			zap.Int("paths", len(found.Paths)),
			zap.Int("max_paths", cfg.MaxPaths),
			zap.Int("max_depth", cfg.MaxPathDepth),
		)
	}
	span.SetAttributes(attribute.Int("result.paths", len(found.Paths)), attribute.Bool("result.truncated", found.Truncated))

	return &queries.RoadmapResult{
		Start:     q.Start,
		Target:    q.Target,
		Paths:     found.Paths,
		Truncated: found.Truncated,
	}, nil
}
