package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

func newGraph(t *testing.T, s *Store) *entities.KnowledgeGraph {
	t.Helper()
	g, err := entities.NewKnowledgeGraph("user-1", "graph")
	require.NoError(t, err)
	require.NoError(t, s.CreateGraph(context.Background(), g))
	return g
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Should commit staged topics and edges together", func(t *testing.T) {
		s := NewStore()
		g := newGraph(t, s)
		a, _ := entities.NewTopic(g.ID, "A", "")
		b, _ := entities.NewTopic(g.ID, "B", "")

		err := s.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			for _, topic := range []*entities.Topic{a, b} {
				inserted, err := tx.InsertTopic(ctx, topic)
				require.NoError(t, err)
				assert.True(t, inserted)
			}
			staged, err := tx.TopicByName(ctx, g.ID, "A")
			require.NoError(t, err)
			assert.Equal(t, a.ID, staged.ID)

			inserted, err := tx.InsertEdge(ctx, entities.NewEdge(g.ID, a.ID, b.ID))
			require.NoError(t, err)
			assert.True(t, inserted)
			inserted, err = tx.InsertEdge(ctx, entities.NewEdge(g.ID, a.ID, b.ID))
			require.NoError(t, err)
			assert.False(t, inserted)
			return tx.TouchGraph(ctx, g.ID, time.Now().Add(time.Hour))
		})
		require.NoError(t, err)

		snap, err := s.LoadSnapshot(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.TopicCount())
		assert.Equal(t, 1, snap.EdgeCount())
		assert.True(t, snap.Graph().UpdatedAt.After(g.UpdatedAt))
	})

	t.Run("Should discard writes when fn fails", func(t *testing.T) {
		s := NewStore()
		g := newGraph(t, s)
		a, _ := entities.NewTopic(g.ID, "A", "")

		err := s.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			_, err := tx.InsertTopic(ctx, a)
			require.NoError(t, err)
			return errors.New("abort")
		})
		require.Error(t, err)

		snap, err := s.LoadSnapshot(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.TopicCount())
	})

	t.Run("Should not insert a second topic with the same name", func(t *testing.T) {
		s := NewStore()
		g := newGraph(t, s)
		first, _ := entities.NewTopic(g.ID, "A", "")
		second, _ := entities.NewTopic(g.ID, "A", "")

		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			_, err := tx.InsertTopic(ctx, first)
			return err
		}))
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			inserted, err := tx.InsertTopic(ctx, second)
			assert.False(t, inserted)
			return err
		}))
	})

	t.Run("Should report unknown graphs", func(t *testing.T) {
		s := NewStore()
		err := s.WithinTx(ctx, func(ctx context.Context, tx ports.GraphTx) error {
			_, err := tx.TopicByName(ctx, valueobjects.NewGraphID(), "A")
			return err
		})
		assert.ErrorIs(t, err, entities.ErrGraphNotFound)
	})
}

func TestStore_DeleteGraph(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	g := newGraph(t, s)

	upload := entities.NewUpload("user-1", "notes", "/tmp/notes.txt", "text/plain", "text")
	require.NoError(t, s.CreateUpload(ctx, upload))
	require.NoError(t, s.AttachUpload(ctx, upload.ID, g.ID))

	require.NoError(t, s.DeleteGraph(ctx, g.ID))

	_, err := s.GetGraph(ctx, g.ID)
	assert.ErrorIs(t, err, entities.ErrGraphNotFound)
	_, err = s.GetUpload(ctx, upload.ID)
	assert.ErrorIs(t, err, entities.ErrUploadNotFound)
	assert.ErrorIs(t, s.DeleteGraph(ctx, g.ID), entities.ErrGraphNotFound)
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u, err := entities.NewUser("grace", "grace@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, u))

	dup, err := entities.NewUser("grace", "other@example.com", "hash")
	require.NoError(t, err)
	assert.ErrorIs(t, s.CreateUser(ctx, dup), entities.ErrDuplicate)

	found, err := s.GetUserByUsername(ctx, " grace ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}
