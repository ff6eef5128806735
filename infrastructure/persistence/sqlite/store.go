// Package sqlite is the embedded Store used for local development and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

const driverName = "sqlite"

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements ports.Store on a single SQLite database file
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}

	var dsn string
	if cleanPath == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		dir := filepath.Dir(cleanPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory %q: %w", dir, err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", cleanPath, err)
	}
	// One connection: transactions serialize and an in-memory database
	// lives as long as the store.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", cleanPath, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize sqlite schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateGraph(ctx context.Context, graph *entities.KnowledgeGraph) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_graphs (id, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		graph.ID.String(), graph.OwnerID.String(), graph.Name, formatTime(graph.CreatedAt), formatTime(graph.UpdatedAt),
	)
	switch {
	case err == nil:
		return nil
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY):
		return fmt.Errorf("%w: %s", entities.ErrUserNotFound, graph.OwnerID)
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY):
		return entities.ErrDuplicate
	default:
		return fmt.Errorf("insert graph: %w", err)
	}
}

func (s *Store) GetGraph(ctx context.Context, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	return getGraph(ctx, s.db, id)
}

func (s *Store) ListGraphs(ctx context.Context, owner valueobjects.UserID) ([]*entities.KnowledgeGraph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM knowledge_graphs WHERE owner_id = ? ORDER BY created_at DESC`,
		owner.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_graphs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return nil
}

// LoadSnapshot reads the graph in one read transaction so topics and edges
// are mutually consistent
func (s *Store) LoadSnapshot(ctx context.Context, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	graph, err := getGraph(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	topics := make([]entities.Topic, 0)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, graph_id, name, description, created_at FROM topics WHERE graph_id = ? ORDER BY rowid`, id.String())
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		topics = append(topics, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}

	edges := make([]entities.Edge, 0)
	rows, err = tx.QueryContext(ctx,
		`SELECT id, graph_id, from_topic_id, to_topic_id, created_at FROM topic_connections WHERE graph_id = ? ORDER BY rowid`, id.String())
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entities.Edge
		var eid, gid, from, to, created string
		if err := rows.Scan(&eid, &gid, &from, &to, &created); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.ID = valueobjects.EdgeID(eid)
		e.GraphID = valueobjects.GraphID(gid)
		e.FromTopicID = valueobjects.TopicID(from)
		e.ToTopicID = valueobjects.TopicID(to)
		e.CreatedAt = parseTime(created)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	return aggregates.NewGraphSnapshot(*graph, topics, edges), nil
}

// WithinTx runs fn in one SQLite transaction
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.GraphTx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, &graphTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type graphTx struct {
	tx *sql.Tx
}

func (t *graphTx) TopicByName(ctx context.Context, graphID valueobjects.GraphID, name string) (*entities.Topic, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, graph_id, name, description, created_at FROM topics WHERE graph_id = ? AND name = ?`,
		graphID.String(), name,
	)
	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrTopicNotFound
	}
	return topic, err
}

func (t *graphTx) InsertTopic(ctx context.Context, topic *entities.Topic) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO topics (id, graph_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (graph_id, name) DO NOTHING`,
		topic.ID.String(), topic.GraphID.String(), topic.Name, topic.Description, formatTime(topic.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return false, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, topic.GraphID)
		}
		return false, fmt.Errorf("insert topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert topic: %w", err)
	}
	return n == 1, nil
}

func (t *graphTx) InsertEdge(ctx context.Context, edge *entities.Edge) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO topic_connections (id, graph_id, from_topic_id, to_topic_id, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (graph_id, from_topic_id, to_topic_id) DO NOTHING`,
		edge.ID.String(), edge.GraphID.String(), edge.FromTopicID.String(), edge.ToTopicID.String(), formatTime(edge.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return false, fmt.Errorf("%w: edge %s", entities.ErrTopicNotFound, edge.Key())
		}
		return false, fmt.Errorf("insert edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert edge: %w", err)
	}
	return n == 1, nil
}

func (t *graphTx) TouchGraph(ctx context.Context, graphID valueobjects.GraphID, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE knowledge_graphs SET updated_at = ? WHERE id = ?`, formatTime(at), graphID.String())
	if err != nil {
		return fmt.Errorf("touch graph: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getGraph(ctx context.Context, q queryer, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM knowledge_graphs WHERE id = ?`, id.String())
	g, err := scanGraph(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	return g, err
}

func scanGraph(row scanner) (*entities.KnowledgeGraph, error) {
	var id, owner, name, created, updated string
	if err := row.Scan(&id, &owner, &name, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan graph: %w", err)
	}
	return &entities.KnowledgeGraph{
		ID:        valueobjects.GraphID(id),
		OwnerID:   valueobjects.UserID(owner),
		Name:      name,
		CreatedAt: parseTime(created),
		UpdatedAt: parseTime(updated),
	}, nil
}

func scanTopic(row scanner) (*entities.Topic, error) {
	var id, graphID, name, description, created string
	if err := row.Scan(&id, &graphID, &name, &description, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &entities.Topic{
		ID:          valueobjects.TopicID(id),
		GraphID:     valueobjects.GraphID(graphID),
		Name:        name,
		Description: description,
		CreatedAt:   parseTime(created),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isConstraint reports whether err is the given extended constraint code.
// A bare SQLITE_CONSTRAINT also matches unique and primary key checks.
func isConstraint(err error, code int) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == code {
		return true
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT && code != sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}
