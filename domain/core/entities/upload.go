package entities

import (
	"time"

	"pathfinder-backend/domain/core/valueobjects"
)

// Upload is a document whose extracted text can seed a graph
type Upload struct {
	ID          valueobjects.UploadID `json:"id"`
	OwnerID     valueobjects.UserID   `json:"owner_id"`
	GraphID     valueobjects.GraphID  `json:"graph_id,omitempty"`
	Title       string                `json:"title"`
	FilePath    string                `json:"-"`
	ContentType string                `json:"content_type"`
	Text        string                `json:"text,omitempty"`
	UploadedAt  time.Time             `json:"uploaded_at"`
}

// NewUpload creates an upload not yet attached to a graph
func NewUpload(owner valueobjects.UserID, title, filePath, contentType, text string) *Upload {
	return &Upload{
		ID:          valueobjects.NewUploadID(),
		OwnerID:     owner,
		Title:       title,
		FilePath:    filePath,
		ContentType: contentType,
		Text:        text,
		UploadedAt:  time.Now().UTC(),
	}
}

// IsAttached reports whether the upload already seeded a graph
func (u Upload) IsAttached() bool {
	return u.GraphID != ""
}
