package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// CreateGraphResult is the graph created plus, when seeded from an upload,
// the ingestion summary
type CreateGraphResult struct {
	Graph     *entities.KnowledgeGraph  `json:"graph"`
	Ingestion *commands.IngestionResult `json:"ingestion,omitempty"`
}

// UploadService stores documents and turns them into graphs
type UploadService struct {
	files     ports.FileStore
	extractor ports.TextExtractor
	uploads   ports.UploadRepository
	graphs    *GraphStoreService
	topics    ports.TopicExtractor
	logger    *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(
	files ports.FileStore,
	extractor ports.TextExtractor,
	uploads ports.UploadRepository,
	graphs *GraphStoreService,
	topics ports.TopicExtractor,
	logger *zap.Logger,
) *UploadService {
	return &UploadService{
		files:     files,
		extractor: extractor,
		uploads:   uploads,
		graphs:    graphs,
		topics:    topics,
		logger:    logger,
	}
}

// Upload saves the document, extracts its text and records it
func (s *UploadService) Upload(ctx context.Context, cmd commands.UploadDocumentCommand) (*entities.Upload, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	name := filepath.Base(cmd.Filename)

	data, err := io.ReadAll(cmd.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	path, err := s.files.Save(ctx, name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	text, err := s.extractor.Extract(ctx, name, cmd.ContentType, bytes.NewReader(data))
	if err != nil {
		s.discardFile(ctx, path)
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("could not read %s", name)).WithCause(err)
	}

	title := strings.TrimSuffix(name, filepath.Ext(name))
	upload := entities.NewUpload(valueobjects.UserID(cmd.UserID), title, path, cmd.ContentType, text)
	if err := s.uploads.CreateUpload(ctx, upload); err != nil {
		s.discardFile(ctx, path)
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("upload_id", upload.ID.String()),
		zap.String("content_type", cmd.ContentType),
		zap.Int("text_length", len(text)),
	)
	return upload, nil
}

func (s *UploadService) discardFile(ctx context.Context, path string) {
	if err := s.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		s.logger.Warn("Failed to remove upload file", zap.String("path", path), zap.Error(err))
	}
}

// GetUpload returns an upload owned by owner
func (s *UploadService) GetUpload(ctx context.Context, owner valueobjects.UserID, id valueobjects.UploadID) (*entities.Upload, error) {
	upload, err := s.uploads.GetUpload(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.OwnerID != owner {
		return nil, fmt.Errorf("%w: %s", entities.ErrUploadNotFound, id)
	}
	return upload, nil
}

// CreateGraph creates a graph and, when an upload is given, seeds it with the
// topics the language model extracts from the upload's text. A seeded graph
// is kept only when ingestion succeeds; the upload is attached last.
func (s *UploadService) CreateGraph(ctx context.Context, cmd commands.CreateGraphCommand) (*CreateGraphResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	owner := valueobjects.UserID(cmd.UserID)

	if cmd.UploadID == "" {
		graph, err := s.graphs.CreateGraph(ctx, owner, cmd.Name)
		if err != nil {
			return nil, err
		}
		return &CreateGraphResult{Graph: graph}, nil
	}

	upload, err := s.GetUpload(ctx, owner, valueobjects.UploadID(cmd.UploadID))
	if err != nil {
		return nil, err
	}
	if upload.IsAttached() {
		return nil, pkgerrors.NewConflictError("upload already seeded a graph").WithCode("UPLOAD_ATTACHED")
	}

	topics, connections, err := s.topics.ExtractTopics(ctx, upload.Text)
	if err != nil {
		return nil, err
	}

	name := cmd.Name
	if name == "" {
		name = upload.Title
	}
	graph, err := s.graphs.CreateGraph(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	ingestion, err := s.graphs.Ingest(ctx, commands.ImportTopicsCommand{
		UserID:      cmd.UserID,
		GraphID:     graph.ID.String(),
		Source:      "upload",
		Topics:      topics,
		Connections: connections,
	})
	if err != nil {
		s.graphs.discardGraph(ctx, graph, err)
		return nil, err
	}
	if err := s.uploads.AttachUpload(ctx, upload.ID, graph.ID); err != nil {
		s.graphs.discardGraph(ctx, graph, err)
		return nil, fmt.Errorf("attach upload: %w", err)
	}
	return &CreateGraphResult{Graph: graph, Ingestion: ingestion}, nil
}
