package commands

// Reasons a connection or hierarchy entry is dropped during ingestion
const (
	SkipUnresolvedFrom = "unresolved_from"
	SkipUnresolvedTo   = "unresolved_to"
	SkipEmptyName      = "empty_name"
	SkipSelfLoop       = "self_loop"
)

// TopicRecord is one extracted topic
type TopicRecord struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty" validate:"max=5000"`
}

// ConnectionRecord says FromTopic is a prerequisite of ToTopic
type ConnectionRecord struct {
	FromTopic string `json:"from_topic"`
	ToTopic   string `json:"to_topic"`
}

// ImportTopicsCommand ingests extracted topics and connections into a graph
type ImportTopicsCommand struct {
	UserID      string             `json:"-" validate:"required"`
	GraphID     string             `json:"-" validate:"required,uuid"`
	Source      string             `json:"-"`
	Topics      []TopicRecord      `json:"topics" validate:"dive"`
	Connections []ConnectionRecord `json:"connections"`
}

// Validate checks the command shape
func (c ImportTopicsCommand) Validate() error {
	return ValidateStruct(c)
}

// SkippedConnection reports a dropped pair and why
type SkippedConnection struct {
	FromTopic string `json:"from_topic"`
	ToTopic   string `json:"to_topic"`
	Reason    string `json:"reason"`
}

// IngestionResult summarizes one ingestion call. ImportedTopics counts the
// distinct names resolved (found or created); ImportedConnections counts the
// edges actually created.
type IngestionResult struct {
	ImportedTopics      int                 `json:"imported_topics"`
	ImportedConnections int                 `json:"imported_connections"`
	CreatedTopics       int                 `json:"created_topics"`
	SkippedConnections  []SkippedConnection `json:"skipped_connections"`
}
