package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// racingTx behaves as if another writer inserted every topic between the
// first lookup and the insert
type racingTx struct {
	winner    *entities.Topic
	rereadErr error

	lookups int
	inserts int
}

func (tx *racingTx) TopicByName(_ context.Context, _ valueobjects.GraphID, _ string) (*entities.Topic, error) {
	tx.lookups++
	if tx.lookups == 1 {
		return nil, entities.ErrTopicNotFound
	}
	if tx.rereadErr != nil {
		return nil, tx.rereadErr
	}
	return tx.winner, nil
}

func (tx *racingTx) InsertTopic(context.Context, *entities.Topic) (bool, error) {
	tx.inserts++
	return false, nil
}

func (tx *racingTx) InsertEdge(context.Context, *entities.Edge) (bool, error) { return true, nil }

func (tx *racingTx) TouchGraph(context.Context, valueobjects.GraphID, time.Time) error { return nil }

func TestGraphScope_ConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	graphID := valueobjects.NewGraphID()
	cfg := domainconfig.DefaultDomainConfig()

	t.Run("Should adopt the winning writer's topic", func(t *testing.T) {
		winner, err := entities.NewTopic(graphID, "Pointers", "from the other writer")
		require.NoError(t, err)
		tx := &racingTx{winner: winner}
		scope := NewGraphScope(tx, graphID, cfg, zap.NewNop())

		nameToID, err := scope.UpsertTopics(ctx, topics("Pointers"))
		require.NoError(t, err)
		assert.Equal(t, winner.ID, nameToID["Pointers"])
		assert.Equal(t, 0, scope.CreatedTopics())
		assert.Equal(t, 2, tx.lookups)
		assert.Equal(t, 1, tx.inserts)

		again, err := scope.UpsertTopics(ctx, topics("Pointers"))
		require.NoError(t, err)
		assert.Equal(t, winner.ID, again["Pointers"])
		assert.Equal(t, 2, tx.lookups, "resolved names are not looked up again")
	})

	t.Run("Should fail when the winner cannot be re-read", func(t *testing.T) {
		tx := &racingTx{rereadErr: errors.New("connection reset")}
		scope := NewGraphScope(tx, graphID, cfg, zap.NewNop())

		_, err := scope.UpsertTopics(ctx, topics("Pointers"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after concurrent insert")
		assert.Equal(t, 0, scope.CreatedTopics())
	})
}

func TestGraphScope_NameLimit(t *testing.T) {
	cfg := domainconfig.DefaultDomainConfig()
	cfg.MaxTopicNameLength = 10
	tx := &racingTx{}
	scope := NewGraphScope(tx, valueobjects.NewGraphID(), cfg, zap.NewNop())

	_, err := scope.UpsertTopics(context.Background(), topics(strings.Repeat("y", 11)))
	assert.ErrorIs(t, err, entities.ErrTopicNameTooLong)
	assert.Equal(t, 0, tx.lookups, "names are checked before touching storage")
}
