package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pathfinder-backend/domain/core/valueobjects"
)

// MaxTopicNameLength mirrors the width of the topics.name column
const MaxTopicNameLength = 100

// Topic is one learnable concept in a roadmap graph
type Topic struct {
	ID          valueobjects.TopicID `json:"id"`
	GraphID     valueobjects.GraphID `json:"graph_id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NormalizeTopicName trims the surrounding whitespace LLM output tends to carry.
// Matching after normalization is exact and case-sensitive.
func NormalizeTopicName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateTopicName checks an already normalized name against maxLen runes
func ValidateTopicName(name string, maxLen int) error {
	if name == "" {
		return ErrEmptyTopicName
	}
	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrTopicNameTooLong, name, maxLen)
	}
	return nil
}

// NewTopic creates a topic with a fresh identifier
func NewTopic(graphID valueobjects.GraphID, name, description string) (*Topic, error) {
	name = NormalizeTopicName(name)
	if err := ValidateTopicName(name, MaxTopicNameLength); err != nil {
		return nil, err
	}
	return &Topic{
		ID:          valueobjects.NewTopicID(),
		GraphID:     graphID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
