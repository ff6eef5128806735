package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/domain/events"
	"pathfinder-backend/infrastructure/documents"
	pkgerrors "pathfinder-backend/pkg/errors"
)

type stubDecomposer struct {
	prereqs valueobjects.PrerequisiteMap
	err     error
}

func (s stubDecomposer) Decompose(context.Context, string) (valueobjects.PrerequisiteMap, error) {
	return s.prereqs, s.err
}

type recordingTutor struct {
	topic   string
	prereqs []string
}

func (r *recordingTutor) Explain(_ context.Context, topic string, prerequisites []string, question string) (string, error) {
	r.topic, r.prereqs = topic, prerequisites
	return "explained " + topic + ": " + question, nil
}

type stubTopicExtractor struct {
	topics      []commands.TopicRecord
	connections []commands.ConnectionRecord
}

func (s stubTopicExtractor) ExtractTopics(context.Context, string) ([]commands.TopicRecord, []commands.ConnectionRecord, error) {
	return s.topics, s.connections, nil
}

func TestLearningService_Decompose(t *testing.T) {
	ctx := context.Background()

	t.Run("Should store the decomposition as a graph", func(t *testing.T) {
		f := newFixture(t, nil)
		learning := NewLearningService(f.graphs, stubDecomposer{prereqs: valueobjects.NewPrerequisiteMap(
			valueobjects.PrerequisiteEntry{Prerequisite: "Limits", Dependent: "Derivatives"},
			valueobjects.PrerequisiteEntry{Prerequisite: "Derivatives", Dependent: valueobjects.RootSentinel},
		)}, &recordingTutor{}, zap.NewNop())

		result, err := learning.Decompose(ctx, commands.DecomposeTopicCommand{UserID: owner.String(), Topic: "Derivatives"})
		require.NoError(t, err)
		assert.Equal(t, "Derivatives", result.Graph.Name)
		assert.Len(t, result.Hierarchy.Topics, 2)
		assert.Equal(t, 1, result.Hierarchy.CreatedConnections)
	})

	t.Run("Should reject an empty decomposition", func(t *testing.T) {
		f := newFixture(t, nil)
		learning := NewLearningService(f.graphs, stubDecomposer{}, &recordingTutor{}, zap.NewNop())

		_, err := learning.Decompose(ctx, commands.DecomposeTopicCommand{UserID: owner.String(), Topic: "Derivatives"})
		require.Error(t, err)
		assert.NotNil(t, pkgerrors.GetAppError(err))

		graphs, err := f.graphs.ListGraphs(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, graphs)
	})

	t.Run("Should remove the graph when the hierarchy is rejected", func(t *testing.T) {
		f := newFixture(t, nil)
		learning := NewLearningService(f.graphs, stubDecomposer{prereqs: valueobjects.NewPrerequisiteMap(
			valueobjects.PrerequisiteEntry{Prerequisite: strings.Repeat("x", 150), Dependent: "Derivatives"},
		)}, &recordingTutor{}, zap.NewNop())

		_, err := learning.Decompose(ctx, commands.DecomposeTopicCommand{UserID: owner.String(), Topic: "Derivatives"})
		assert.ErrorIs(t, err, entities.ErrTopicNameTooLong)

		graphs, err := f.graphs.ListGraphs(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, graphs)
		f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
			return e.GetEventType() == events.TypeGraphDeleted
		}))
	})

	t.Run("Should pass model failures through", func(t *testing.T) {
		f := newFixture(t, nil)
		boom := errors.New("model offline")
		learning := NewLearningService(f.graphs, stubDecomposer{err: boom}, &recordingTutor{}, zap.NewNop())

		_, err := learning.Decompose(ctx, commands.DecomposeTopicCommand{UserID: owner.String(), Topic: "Derivatives"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestLearningService_Explain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	id := f.newGraph(t)
	_, err := f.graphs.Ingest(ctx, importCmd(id, topics("Sets", "Functions"), conn("Sets", "Functions")))
	require.NoError(t, err)

	snap, err := f.graphs.GetGraphSnapshot(ctx, owner, id)
	require.NoError(t, err)
	functionsID, ok := snap.TopicIDByName("Functions")
	require.True(t, ok)

	tutor := &recordingTutor{}
	learning := NewLearningService(f.graphs, stubDecomposer{}, tutor, zap.NewNop())

	t.Run("Should hand the prerequisites to the tutor", func(t *testing.T) {
		out, err := learning.Explain(ctx, commands.ExplainTopicCommand{
			UserID:   owner.String(),
			GraphID:  id.String(),
			TopicID:  functionsID.String(),
			Question: "why?",
		})
		require.NoError(t, err)
		assert.Equal(t, "Functions", tutor.topic)
		assert.Equal(t, []string{"Sets"}, tutor.prereqs)
		assert.Equal(t, []string{"Sets"}, out.Prerequisites)
		assert.Equal(t, "explained Functions: why?", out.Explanation)
	})

	t.Run("Should report unknown topics", func(t *testing.T) {
		_, err := learning.Explain(ctx, commands.ExplainTopicCommand{
			UserID:  owner.String(),
			GraphID: id.String(),
			TopicID: valueobjects.NewTopicID().String(),
		})
		assert.ErrorIs(t, err, entities.ErrTopicNotFound)
	})
}

func TestUploadService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	files, err := documents.NewLocalFileStore(t.TempDir())
	require.NoError(t, err)
	extractor := stubTopicExtractor{
		topics:      topics("Cells", "Genetics"),
		connections: []commands.ConnectionRecord{conn("Cells", "Genetics")},
	}
	uploads := NewUploadService(files, documents.NewExtractor(1<<20, zap.NewNop()), f.store, f.graphs, extractor, zap.NewNop())

	upload, err := uploads.Upload(ctx, commands.UploadDocumentCommand{
		UserID:      owner.String(),
		Filename:    "../biology.txt",
		ContentType: "text/plain",
		Body:        strings.NewReader("Cells come before genetics."),
	})
	require.NoError(t, err)
	assert.Equal(t, "biology", upload.Title)
	assert.Contains(t, upload.Text, "Cells come before genetics.")

	t.Run("Should keep uploads private", func(t *testing.T) {
		_, err := uploads.GetUpload(ctx, "intruder", upload.ID)
		assert.ErrorIs(t, err, entities.ErrUploadNotFound)
	})

	t.Run("Should seed a graph from the upload once", func(t *testing.T) {
		result, err := uploads.CreateGraph(ctx, commands.CreateGraphCommand{UserID: owner.String(), UploadID: upload.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, "biology", result.Graph.Name)
		require.NotNil(t, result.Ingestion)
		assert.Equal(t, 2, result.Ingestion.CreatedTopics)
		assert.Equal(t, 1, result.Ingestion.ImportedConnections)

		_, err = uploads.CreateGraph(ctx, commands.CreateGraphCommand{UserID: owner.String(), UploadID: upload.ID.String()})
		require.True(t, pkgerrors.IsConflict(err))
		assert.Equal(t, "UPLOAD_ATTACHED", pkgerrors.GetAppError(err).Code)
	})

	t.Run("Should create an empty graph without an upload", func(t *testing.T) {
		result, err := uploads.CreateGraph(ctx, commands.CreateGraphCommand{UserID: owner.String(), Name: "blank"})
		require.NoError(t, err)
		assert.Equal(t, "blank", result.Graph.Name)
		assert.Nil(t, result.Ingestion)
	})

	t.Run("Should reject unreadable documents and drop the stored file", func(t *testing.T) {
		dir := t.TempDir()
		files, err := documents.NewLocalFileStore(dir)
		require.NoError(t, err)
		uploads := NewUploadService(files, documents.NewExtractor(1<<20, zap.NewNop()), f.store, f.graphs, extractor, zap.NewNop())

		_, err = uploads.Upload(ctx, commands.UploadDocumentCommand{
			UserID:      owner.String(),
			Filename:    "scan.png",
			ContentType: "image/png",
			Body:        strings.NewReader("\x89PNG"),
		})
		assert.True(t, pkgerrors.IsValidation(err))

		left, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestUploadService_CreateGraphRollback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	files, err := documents.NewLocalFileStore(t.TempDir())
	require.NoError(t, err)
	text := documents.NewExtractor(1<<20, zap.NewNop())

	broken := stubTopicExtractor{topics: topics("Cells", strings.Repeat("x", 150))}
	uploads := NewUploadService(files, text, f.store, f.graphs, broken, zap.NewNop())

	upload, err := uploads.Upload(ctx, commands.UploadDocumentCommand{
		UserID:      owner.String(),
		Filename:    "cells.md",
		ContentType: "text/markdown",
		Body:        strings.NewReader("# Cells"),
	})
	require.NoError(t, err)

	t.Run("Should leave no graph and a free upload when ingestion fails", func(t *testing.T) {
		_, err := uploads.CreateGraph(ctx, commands.CreateGraphCommand{UserID: owner.String(), UploadID: upload.ID.String()})
		assert.ErrorIs(t, err, entities.ErrTopicNameTooLong)

		graphs, err := f.graphs.ListGraphs(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, graphs)

		stored, err := uploads.GetUpload(ctx, owner, upload.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsAttached())
	})

	t.Run("Should seed the graph on retry", func(t *testing.T) {
		fixed := stubTopicExtractor{topics: topics("Cells", "Tissues"), connections: []commands.ConnectionRecord{conn("Cells", "Tissues")}}
		retry := NewUploadService(files, text, f.store, f.graphs, fixed, zap.NewNop())

		result, err := retry.CreateGraph(ctx, commands.CreateGraphCommand{UserID: owner.String(), UploadID: upload.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Ingestion.CreatedTopics)

		graphs, err := f.graphs.ListGraphs(ctx, owner)
		require.NoError(t, err)
		require.Len(t, graphs, 1)
		assert.Equal(t, result.Graph.ID, graphs[0].ID)

		stored, err := retry.GetUpload(ctx, owner, upload.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Graph.ID, stored.GraphID)
	})
}
