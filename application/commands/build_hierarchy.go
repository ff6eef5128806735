package commands

import (
	"pathfinder-backend/domain/core/valueobjects"
)

// BuildHierarchyCommand ingests a decomposition's prerequisite map into a graph
type BuildHierarchyCommand struct {
	UserID        string                       `validate:"required"`
	GraphID       string                       `validate:"required,uuid"`
	Source        string                       `validate:"-"`
	Prerequisites valueobjects.PrerequisiteMap `validate:"-"`
}

// Validate checks the command shape
func (c BuildHierarchyCommand) Validate() error {
	return ValidateStruct(c)
}

// HierarchyResult maps every touched topic name to its identifier
type HierarchyResult struct {
	Topics             map[string]valueobjects.TopicID `json:"topics"`
	CreatedTopics      int                             `json:"created_topics"`
	CreatedConnections int                             `json:"created_connections"`
	SkippedEntries     []SkippedConnection             `json:"skipped_entries"`
}
