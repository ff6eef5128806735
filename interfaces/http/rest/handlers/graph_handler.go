package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/queries"
	"pathfinder-backend/application/services"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// GraphHandler handles graph, topic and edge HTTP requests
type GraphHandler struct {
	responder
	store   *services.GraphStoreService
	queries *services.GraphQueryService
	uploads *services.UploadService
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(
	store *services.GraphStoreService,
	graphQueries *services.GraphQueryService,
	uploads *services.UploadService,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *GraphHandler {
	return &GraphHandler{
		responder: responder{errors: errs, logger: logger},
		store:     store,
		queries:   graphQueries,
		uploads:   uploads,
	}
}

// GraphListResponse is the body of GET /graphs
type GraphListResponse struct {
	Graphs []queries.GraphDTO `json:"graphs"`
}

// CreateGraph handles POST /graphs
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var cmd commands.CreateGraphCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.UserID = uid

	result, err := h.uploads.CreateGraph(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// ListGraphs handles GET /graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	graphs, err := h.store.ListGraphs(r.Context(), valueobjects.UserID(uid))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]queries.GraphDTO, 0, len(graphs))
	for _, g := range graphs {
		out = append(out, queries.NewGraphDTO(*g))
	}
	h.respondJSON(w, http.StatusOK, GraphListResponse{Graphs: out})
}

// GetGraph handles GET /graphs/{graphID}
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.queries.GetGraph(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// DeleteGraph handles DELETE /graphs/{graphID}
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.store.DeleteGraph(r.Context(), commands.DeleteGraphCommand{UserID: q.UserID, GraphID: q.GraphID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /graphs/{graphID}/import
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var cmd commands.ImportTopicsCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.UserID, cmd.GraphID, cmd.Source = q.UserID, q.GraphID, "api"

	result, err := h.store.Ingest(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// Hierarchy handles POST /graphs/{graphID}/hierarchy. The body is a JSON
// object mapping each prerequisite to its dependent (or ROOT); key order is kept.
func (h *GraphHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var prereqs valueobjects.PrerequisiteMap
	if err := h.decode(w, r, &prereqs); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.store.ApplyHierarchy(r.Context(), commands.BuildHierarchyCommand{
		UserID:        q.UserID,
		GraphID:       q.GraphID,
		Source:        "api",
		Prerequisites: prereqs,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// ListNodes handles GET /graphs/{graphID}/nodes
func (h *GraphHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	nodes, err := h.queries.ListTopics(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"nodes": nodes})
}

// GetNode handles GET /graphs/{graphID}/nodes/{topicID}
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.queries.GetTopicDetail(r.Context(), queries.GetTopicQuery{
		UserID:  q.UserID,
		GraphID: q.GraphID,
		TopicID: chi.URLParam(r, "topicID"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, detail)
}

// ListEdges handles GET /graphs/{graphID}/edges
func (h *GraphHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	edges, err := h.queries.ListEdges(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"edges": edges})
}

func graphQuery(r *http.Request) (queries.GetGraphQuery, error) {
	uid, err := userID(r)
	if err != nil {
		return queries.GetGraphQuery{}, err
	}
	return queries.GetGraphQuery{UserID: uid, GraphID: chi.URLParam(r, "graphID")}, nil
}
