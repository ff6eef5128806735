package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// GraphID identifies a knowledge graph
type GraphID string

// TopicID identifies a topic within a graph
type TopicID string

// EdgeID identifies a prerequisite edge
type EdgeID string

// UserID identifies a registered user
type UserID string

// UploadID identifies an uploaded document
type UploadID string

var errEmptyID = errors.New("identifier cannot be empty")

func NewGraphID() GraphID   { return GraphID(uuid.New().String()) }
func NewTopicID() TopicID   { return TopicID(uuid.New().String()) }
func NewEdgeID() EdgeID     { return EdgeID(uuid.New().String()) }
func NewUserID() UserID     { return UserID(uuid.New().String()) }
func NewUploadID() UploadID { return UploadID(uuid.New().String()) }

func (id GraphID) String() string  { return string(id) }
func (id TopicID) String() string  { return string(id) }
func (id EdgeID) String() string   { return string(id) }
func (id UserID) String() string   { return string(id) }
func (id UploadID) String() string { return string(id) }

// ParseGraphID validates an externally supplied graph identifier
func ParseGraphID(s string) (GraphID, error) {
	if err := validateUUID(s); err != nil {
		return "", err
	}
	return GraphID(s), nil
}

// ParseTopicID validates an externally supplied topic identifier
func ParseTopicID(s string) (TopicID, error) {
	if err := validateUUID(s); err != nil {
		return "", err
	}
	return TopicID(s), nil
}

// ParseUploadID validates an externally supplied upload identifier
func ParseUploadID(s string) (UploadID, error) {
	if err := validateUUID(s); err != nil {
		return "", err
	}
	return UploadID(s), nil
}

func validateUUID(s string) error {
	if s == "" {
		return errEmptyID
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("identifier must be a valid UUID")
	}
	return nil
}
