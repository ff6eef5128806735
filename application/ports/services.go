package ports

import (
	"context"
	"io"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/domain/core/valueobjects"
)

// Completer sends one system+user prompt pair to a language model and
// returns the raw text reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TextExtractor turns an uploaded document into plain text
type TextExtractor interface {
	Extract(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID, email string, roles []string) (string, error)
}

// FileStore persists raw uploaded bytes and returns their location
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// TopicExtractor reads document text and proposes topics and prerequisite connections
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, text string) ([]commands.TopicRecord, []commands.ConnectionRecord, error)
}

// TopicDecomposer breaks a topic down into a prerequisite map ending at ROOT
type TopicDecomposer interface {
	Decompose(ctx context.Context, topic string) (valueobjects.PrerequisiteMap, error)
}

// Tutor explains one topic given what the learner already covered
type Tutor interface {
	Explain(ctx context.Context, topic string, prerequisites []string, question string) (string, error)
}
