package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "modernc.org/sqlite/lib"

	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

func (s *Store) CreateUser(ctx context.Context, user *entities.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.Email, user.PasswordHash, formatTime(user.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE) || isConstraint(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
			return entities.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, id.String())
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`, strings.TrimSpace(username))
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*entities.User, error) {
	var id, username, email, hash, created string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&id, &username, &email, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &entities.User{
		ID:           valueobjects.UserID(id),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    parseTime(created),
	}, nil
}

func (s *Store) CreateUpload(ctx context.Context, upload *entities.Upload) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, owner_id, graph_id, title, file_path, content_type, body_text, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.ID.String(), upload.OwnerID.String(), nullableGraph(upload.GraphID),
		upload.Title, upload.FilePath, upload.ContentType, upload.Text, formatTime(upload.UploadedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return fmt.Errorf("%w: %s", entities.ErrUserNotFound, upload.OwnerID)
		}
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id valueobjects.UploadID) (*entities.Upload, error) {
	var u entities.Upload
	var uid, owner, title, path, contentType, text, stamp string
	var graphID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, graph_id, title, file_path, content_type, body_text, uploaded_at FROM uploads WHERE id = ?`,
		id.String(),
	).Scan(&uid, &owner, &graphID, &title, &path, &contentType, &text, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}

	u.ID = valueobjects.UploadID(uid)
	u.OwnerID = valueobjects.UserID(owner)
	if graphID.Valid {
		u.GraphID = valueobjects.GraphID(graphID.String)
	}
	u.Title = title
	u.FilePath = path
	u.ContentType = contentType
	u.Text = text
	u.UploadedAt = parseTime(stamp)
	return &u, nil
}

func (s *Store) AttachUpload(ctx context.Context, id valueobjects.UploadID, graphID valueobjects.GraphID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE uploads SET graph_id = ? WHERE id = ?`, graphID.String(), id.String())
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return fmt.Errorf("%w: %s", entities.ErrGraphNotFound, graphID)
		}
		return fmt.Errorf("attach upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach upload: %w", err)
	}
	if n == 0 {
		return entities.ErrUploadNotFound
	}
	return nil
}

func nullableGraph(id valueobjects.GraphID) sql.NullString {
	return sql.NullString{String: id.String(), Valid: id != ""}
}
