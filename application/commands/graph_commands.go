package commands

import "io"

// CreateGraphCommand creates a graph, optionally seeded from an upload
type CreateGraphCommand struct {
	UserID   string `json:"-" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
	UploadID string `json:"upload_id,omitempty" validate:"omitempty,uuid"`
}

func (c CreateGraphCommand) Validate() error { return ValidateStruct(c) }

// DeleteGraphCommand removes a graph owned by the user
type DeleteGraphCommand struct {
	UserID  string `validate:"required"`
	GraphID string `validate:"required,uuid"`
}

func (c DeleteGraphCommand) Validate() error { return ValidateStruct(c) }

// DecomposeTopicCommand asks the language model for the prerequisites of a
// topic and stores them as a new graph
type DecomposeTopicCommand struct {
	UserID    string `json:"-" validate:"required"`
	Topic     string `json:"topic" validate:"required,max=100"`
	GraphName string `json:"graph_name,omitempty" validate:"max=255"`
}

func (c DecomposeTopicCommand) Validate() error { return ValidateStruct(c) }

// UploadDocumentCommand stores a document and extracts its text
type UploadDocumentCommand struct {
	UserID      string    `validate:"required"`
	Filename    string    `validate:"required,max=255"`
	ContentType string    `validate:"max=255"`
	Body        io.Reader `validate:"required"`
}

func (c UploadDocumentCommand) Validate() error { return ValidateStruct(c) }

// ExplainTopicCommand asks the tutor model to explain a topic
type ExplainTopicCommand struct {
	UserID   string `json:"-" validate:"required"`
	GraphID  string `json:"-" validate:"required,uuid"`
	TopicID  string `json:"-" validate:"required,uuid"`
	Question string `json:"question,omitempty" validate:"max=2000"`
}

func (c ExplainTopicCommand) Validate() error { return ValidateStruct(c) }
