package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStoreWithPool(mock, zap.NewNop()), mock
}

func TestStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateGraph(t *testing.T) {
	store, mock := newMockStore(t)
	graph, err := entities.NewKnowledgeGraph(valueobjects.NewUserID(), "Maths")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO knowledge_graphs")).
		WithArgs(graph.ID.String(), graph.OwnerID.String(), "Maths", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, store.CreateGraph(context.Background(), graph))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateGraph_UnknownOwner(t *testing.T) {
	store, mock := newMockStore(t)
	graph, err := entities.NewKnowledgeGraph(valueobjects.NewUserID(), "Maths")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO knowledge_graphs")).
		WithArgs(graph.ID.String(), graph.OwnerID.String(), "Maths", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation})

	err = store.CreateGraph(context.Background(), graph)
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetGraph_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := valueobjects.NewGraphID()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id::text, owner_id::text, name, created_at, updated_at FROM knowledge_graphs WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetGraph(context.Background(), id)
	assert.ErrorIs(t, err, entities.ErrGraphNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListGraphs(t *testing.T) {
	store, mock := newMockStore(t)
	owner := valueobjects.NewUserID()
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "owner_id", "name", "created_at", "updated_at"}).
		AddRow("g-2", owner.String(), "Physics", now, now).
		AddRow("g-1", owner.String(), "Maths", now.Add(-time.Hour), now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM knowledge_graphs WHERE owner_id = $1 ORDER BY created_at DESC")).
		WithArgs(owner.String()).
		WillReturnRows(rows)

	graphs, err := store.ListGraphs(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, "Physics", graphs[0].Name)
	assert.Equal(t, owner, graphs[1].OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteGraph(t *testing.T) {
	store, mock := newMockStore(t)
	id := valueobjects.NewGraphID()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM knowledge_graphs WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM knowledge_graphs WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, store.DeleteGraph(context.Background(), id))
	assert.ErrorIs(t, store.DeleteGraph(context.Background(), id), entities.ErrGraphNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadSnapshot(t *testing.T) {
	store, mock := newMockStore(t)
	graphID := valueobjects.NewGraphID()
	owner := valueobjects.NewUserID()
	now := time.Now().UTC()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(regexp.QuoteMeta("FROM knowledge_graphs WHERE id = $1")).
		WithArgs(graphID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "name", "created_at", "updated_at"}).
			AddRow(graphID.String(), owner.String(), "Maths", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM topics WHERE graph_id = $1 ORDER BY seq")).
		WithArgs(graphID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "graph_id", "name", "description", "created_at"}).
			AddRow("t-1", graphID.String(), "Algebra", "", now).
			AddRow("t-2", graphID.String(), "Calculus", "limits", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM topic_connections WHERE graph_id = $1 ORDER BY seq")).
		WithArgs(graphID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "graph_id", "from_topic_id", "to_topic_id", "created_at"}).
			AddRow("e-1", graphID.String(), "t-1", "t-2", now))
	mock.ExpectCommit()

	snap, err := store.LoadSnapshot(context.Background(), graphID)
	require.NoError(t, err)
	assert.Equal(t, owner, snap.Graph().OwnerID)
	assert.Equal(t, 2, snap.TopicCount())
	edges := snap.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "Algebra", snap.NameOf(edges[0].FromTopicID))
	assert.Equal(t, "Calculus", snap.NameOf(edges[0].ToTopicID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadSnapshot_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	graphID := valueobjects.NewGraphID()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(regexp.QuoteMeta("FROM knowledge_graphs WHERE id = $1")).
		WithArgs(graphID.String()).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.LoadSnapshot(context.Background(), graphID)
	assert.ErrorIs(t, err, entities.ErrGraphNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_InsertIfAbsent(t *testing.T) {
	store, mock := newMockStore(t)
	graphID := valueobjects.NewGraphID()
	topic, err := entities.NewTopic(graphID, "Algebra", "")
	require.NoError(t, err)
	edge := entities.NewEdge(graphID, valueobjects.NewTopicID(), valueobjects.NewTopicID())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topics")).
		WithArgs(topic.ID.String(), graphID.String(), "Algebra", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topics")).
		WithArgs(topic.ID.String(), graphID.String(), "Algebra", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topic_connections")).
		WithArgs(edge.ID.String(), graphID.String(), edge.FromTopicID.String(), edge.ToTopicID.String(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE knowledge_graphs SET updated_at = $1 WHERE id = $2")).
		WithArgs(pgxmock.AnyArg(), graphID.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = store.WithinTx(context.Background(), func(ctx context.Context, tx ports.GraphTx) error {
		inserted, err := tx.InsertTopic(ctx, topic)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = tx.InsertTopic(ctx, topic)
		require.NoError(t, err)
		assert.False(t, inserted)

		inserted, err = tx.InsertEdge(ctx, edge)
		require.NoError(t, err)
		assert.False(t, inserted)

		return tx.TouchGraph(ctx, graphID, time.Now())
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	graphID := valueobjects.NewGraphID()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM topics WHERE graph_id = $1 AND name = $2")).
		WithArgs(graphID.String(), "Algebra").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx ports.GraphTx) error {
		_, err := tx.TopicByName(ctx, graphID, "Algebra")
		assert.ErrorIs(t, err, entities.ErrTopicNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)
	user, err := entities.NewUser("ada", "ada@example.com", "hash")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(user.ID.String(), "ada", "ada@example.com", "hash", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	assert.ErrorIs(t, store.CreateUser(context.Background(), user), entities.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetUserByUsername(t *testing.T) {
	store, mock := newMockStore(t)
	id := valueobjects.NewUserID()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("ada").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(id.String(), "ada", "ada@example.com", "hash", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	user, err := store.GetUserByUsername(context.Background(), " ada ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)

	_, err = store.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AttachUpload(t *testing.T) {
	store, mock := newMockStore(t)
	uploadID := valueobjects.NewUploadID()
	graphID := valueobjects.NewGraphID()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE uploads SET graph_id = $1 WHERE id = $2")).
		WithArgs(graphID.String(), uploadID.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE uploads SET graph_id = $1 WHERE id = $2")).
		WithArgs(graphID.String(), uploadID.String()).
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation})

	assert.ErrorIs(t, store.AttachUpload(context.Background(), uploadID, graphID), entities.ErrUploadNotFound)
	assert.ErrorIs(t, store.AttachUpload(context.Background(), uploadID, graphID), entities.ErrGraphNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
