package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

const userColumns = `id::text, username, email, password_hash, created_at`

func (s *Store) CreateUser(ctx context.Context, user *entities.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID.String(), user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return entities.ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, strings.TrimSpace(username))
}

func (s *Store) getUser(ctx context.Context, query, arg string) (*entities.User, error) {
	var u entities.User
	var id string
	err := s.pool.QueryRow(ctx, query, arg).Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.ID = valueobjects.UserID(id)
	return &u, nil
}

func (s *Store) CreateUpload(ctx context.Context, upload *entities.Upload) error {
	var graphID *string
	if upload.GraphID != "" {
		g := upload.GraphID.String()
		graphID = &g
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uploads (id, owner_id, graph_id, title, file_path, content_type, body_text, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		upload.ID.String(), upload.OwnerID.String(), graphID,
		upload.Title, upload.FilePath, upload.ContentType, upload.Text, upload.UploadedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("%w: %s", entities.ErrUserNotFound, upload.OwnerID)
		}
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id valueobjects.UploadID) (*entities.Upload, error) {
	var u entities.Upload
	var uid, owner string
	var graphID *string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, owner_id::text, graph_id::text, title, file_path, content_type, body_text, uploaded_at
		 FROM uploads WHERE id = $1`,
		id.String(),
	).Scan(&uid, &owner, &graphID, &u.Title, &u.FilePath, &u.ContentType, &u.Text, &u.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load upload: %w", err)
	}
	u.ID = valueobjects.UploadID(uid)
	u.OwnerID = valueobjects.UserID(owner)
	if graphID != nil {
		u.GraphID = valueobjects.GraphID(*graphID)
	}
	return &u, nil
}

func (s *Store) AttachUpload(ctx context.Context, id valueobjects.UploadID, graphID valueobjects.GraphID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE uploads SET graph_id = $1 WHERE id = $2`, graphID.String(), id.String())
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("%w: %s", entities.ErrGraphNotFound, graphID)
		}
		return fmt.Errorf("failed to attach upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrUploadNotFound
	}
	return nil
}
