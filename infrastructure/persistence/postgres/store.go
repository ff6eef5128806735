// Package postgres is the production Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DBPool is the subset of pgxpool.Pool the store uses
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Options configures the connection pool
type Options struct {
	ConnString      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Store implements ports.Store on PostgreSQL
type Store struct {
	pool   DBPool
	logger *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// NewStore connects a pool
func NewStore(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// NewStoreWithPool wraps an existing pool
func NewStoreWithPool(pool DBPool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateGraph(ctx context.Context, graph *entities.KnowledgeGraph) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO knowledge_graphs (id, owner_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		graph.ID.String(), graph.OwnerID.String(), graph.Name, graph.CreatedAt, graph.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case pgCode(err) == codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", entities.ErrUserNotFound, graph.OwnerID)
	case pgCode(err) == codeUniqueViolation:
		return entities.ErrDuplicate
	default:
		return fmt.Errorf("failed to insert graph: %w", err)
	}
}

const graphColumns = `id::text, owner_id::text, name, created_at, updated_at`

func (s *Store) GetGraph(ctx context.Context, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	return getGraph(ctx, s.pool, id)
}

func (s *Store) ListGraphs(ctx context.Context, owner valueobjects.UserID) ([]*entities.KnowledgeGraph, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+graphColumns+` FROM knowledge_graphs WHERE owner_id = $1 ORDER BY created_at DESC`,
		owner.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	defer rows.Close()

	graphs := make([]*entities.KnowledgeGraph, 0)
	for rows.Next() {
		g, err := scanGraph(rows)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, rows.Err()
}

func (s *Store) DeleteGraph(ctx context.Context, id valueobjects.GraphID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM knowledge_graphs WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return nil
}

// LoadSnapshot reads graph, topics and edges from one repeatable-read snapshot
func (s *Store) LoadSnapshot(ctx context.Context, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}

	snap, err := loadSnapshot(ctx, tx, id)
	if err != nil {
		s.rollback(ctx, tx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to end snapshot: %w", err)
	}
	return snap, nil
}

func loadSnapshot(ctx context.Context, tx pgx.Tx, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error) {
	graph, err := getGraph(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT id::text, graph_id::text, name, description, created_at FROM topics WHERE graph_id = $1 ORDER BY seq`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	topics, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Topic, error) {
		t, err := scanTopic(row)
		if err != nil {
			return entities.Topic{}, err
		}
		return *t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id::text, graph_id::text, from_topic_id::text, to_topic_id::text, created_at
		 FROM topic_connections WHERE graph_id = $1 ORDER BY seq`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Edge, error) {
		var e entities.Edge
		var eid, gid, from, to string
		if err := row.Scan(&eid, &gid, &from, &to, &e.CreatedAt); err != nil {
			return e, err
		}
		e.ID = valueobjects.EdgeID(eid)
		e.GraphID = valueobjects.GraphID(gid)
		e.FromTopicID = valueobjects.TopicID(from)
		e.ToTopicID = valueobjects.TopicID(to)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}

	return aggregates.NewGraphSnapshot(*graph, topics, edges), nil
}

// WithinTx runs fn inside one database transaction
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.GraphTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(ctx, &graphTx{tx: tx}); err != nil {
		s.rollback(ctx, tx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) rollback(ctx context.Context, tx pgx.Tx) {
	// the caller's ctx may already be done
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Warn("Rollback failed", zap.Error(err))
	}
}

type graphTx struct {
	tx pgx.Tx
}

func (t *graphTx) TopicByName(ctx context.Context, graphID valueobjects.GraphID, name string) (*entities.Topic, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT id::text, graph_id::text, name, description, created_at FROM topics WHERE graph_id = $1 AND name = $2`,
		graphID.String(), name,
	)
	topic, err := scanTopic(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.ErrTopicNotFound
	}
	return topic, err
}

func (t *graphTx) InsertTopic(ctx context.Context, topic *entities.Topic) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO topics (id, graph_id, name, description, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (graph_id, name) DO NOTHING`,
		topic.ID.String(), topic.GraphID.String(), topic.Name, topic.Description, topic.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return false, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, topic.GraphID)
		}
		return false, fmt.Errorf("failed to insert topic: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *graphTx) InsertEdge(ctx context.Context, edge *entities.Edge) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO topic_connections (id, graph_id, from_topic_id, to_topic_id, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (graph_id, from_topic_id, to_topic_id) DO NOTHING`,
		edge.ID.String(), edge.GraphID.String(), edge.FromTopicID.String(), edge.ToTopicID.String(), edge.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return false, fmt.Errorf("%w: edge %s", entities.ErrTopicNotFound, edge.Key())
		}
		return false, fmt.Errorf("failed to insert edge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *graphTx) TouchGraph(ctx context.Context, graphID valueobjects.GraphID, at time.Time) error {
	if _, err := t.tx.Exec(ctx, `UPDATE knowledge_graphs SET updated_at = $1 WHERE id = $2`, at, graphID.String()); err != nil {
		return fmt.Errorf("failed to touch graph: %w", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getGraph(ctx context.Context, q rowQuerier, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	row := q.QueryRow(ctx, `SELECT `+graphColumns+` FROM knowledge_graphs WHERE id = $1`, id.String())
	g, err := scanGraph(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return g, err
}

func scanGraph(row pgx.Row) (*entities.KnowledgeGraph, error) {
	var g entities.KnowledgeGraph
	var id, owner string
	if err := row.Scan(&id, &owner, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan graph: %w", err)
	}
	g.ID = valueobjects.GraphID(id)
	g.OwnerID = valueobjects.UserID(owner)
	return &g, nil
}

func scanTopic(row pgx.Row) (*entities.Topic, error) {
	var t entities.Topic
	var id, graphID string
	if err := row.Scan(&id, &graphID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan topic: %w", err)
	}
	t.ID = valueobjects.TopicID(id)
	t.GraphID = valueobjects.GraphID(graphID)
	return &t, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
