package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathfinder-backend/application/queries"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	domainservices "pathfinder-backend/domain/services"
)

func seedDiamond(t *testing.T, f *fixture) valueobjects.GraphID {
	t.Helper()
	id := f.newGraph(t)
	_, err := f.graphs.Ingest(context.Background(), importCmd(id,
		topics("Basics", "Lists", "Maps", "Algorithms", "Orphan"),
		conn("Basics", "Lists"),
		conn("Basics", "Maps"),
		conn("Lists", "Algorithms"),
		conn("Maps", "Algorithms"),
	))
	require.NoError(t, err)
	return id
}

func roadmapQuery(id valueobjects.GraphID, start, target string) queries.FindRoadmapQuery {
	return queries.FindRoadmapQuery{UserID: owner.String(), GraphID: id.String(), Start: start, Target: target}
}

func TestRoadmapService_FindRoadmap(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return every path in discovery order", func(t *testing.T) {
		f := newFixture(t, nil)
		id := seedDiamond(t, f)
		roadmaps := NewRoadmapService(f.graphs, domainconfig.Static(domainconfig.DefaultDomainConfig()), f.metrics, zap.NewNop())

		result, err := roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Basics", "Algorithms"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Basics", "Lists", "Algorithms"},
			{"Basics", "Maps", "Algorithms"},
		}, result.Paths)
		assert.False(t, result.Truncated)
	})

	t.Run("Should return an empty list for unreachable targets", func(t *testing.T) {
		f := newFixture(t, nil)
		id := seedDiamond(t, f)
		roadmaps := NewRoadmapService(f.graphs, domainconfig.Static(domainconfig.DefaultDomainConfig()), f.metrics, zap.NewNop())

		result, err := roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Basics", "Orphan"))
		require.NoError(t, err)
		assert.NotNil(t, result.Paths)
		assert.Empty(t, result.Paths)
	})

	t.Run("Should report missing endpoints", func(t *testing.T) {
		f := newFixture(t, nil)
		id := seedDiamond(t, f)
		roadmaps := NewRoadmapService(f.graphs, domainconfig.Static(domainconfig.DefaultDomainConfig()), f.metrics, zap.NewNop())

		_, err := roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Calculus", "Algorithms"))
		assert.ErrorIs(t, err, domainservices.ErrStartTopicNotFound)

		_, err = roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Basics", "Calculus"))
		assert.ErrorIs(t, err, domainservices.ErrTargetTopicNotFound)
	})

	t.Run("Should truncate at the configured path limit", func(t *testing.T) {
		cfg := domainconfig.DefaultDomainConfig()
		cfg.MaxPaths = 1
		f := newFixture(t, cfg)
		id := seedDiamond(t, f)
		roadmaps := NewRoadmapService(f.graphs, domainconfig.Static(cfg), f.metrics, zap.NewNop())

		result, err := roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Basics", "Algorithms"))
		require.NoError(t, err)
		assert.Len(t, result.Paths, 1)
		assert.True(t, result.Truncated)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RoadmapTruncated))
	})

	t.Run("Should see edges added after a previous query", func(t *testing.T) {
		f := newFixture(t, nil)
		id := seedDiamond(t, f)
		roadmaps := NewRoadmapService(f.graphs, domainconfig.Static(domainconfig.DefaultDomainConfig()), f.metrics, zap.NewNop())

		result, err := roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Basics", "Orphan"))
		require.NoError(t, err)
		assert.Empty(t, result.Paths)

		_, err = f.graphs.Ingest(ctx, importCmd(id, topics("Algorithms", "Orphan"), conn("Algorithms", "Orphan")))
		require.NoError(t, err)

		result, err = roadmaps.FindRoadmap(ctx, roadmapQuery(id, "Basics", "Orphan"))
		require.NoError(t, err)
		assert.Len(t, result.Paths, 2)
	})

	t.Run("Should not expose another user's graph", func(t *testing.T) {
		f := newFixture(t, nil)
		id := seedDiamond(t, f)
		roadmaps := NewRoadmapService(f.graphs, domainconfig.Static(domainconfig.DefaultDomainConfig()), f.metrics, zap.NewNop())

		q := roadmapQuery(id, "Basics", "Algorithms")
		q.UserID = "intruder"
		_, err := roadmaps.FindRoadmap(ctx, q)
		assert.ErrorIs(t, err, entities.ErrGraphNotFound)
	})
}
