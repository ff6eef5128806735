package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"pathfinder-backend/application/queries"
	"pathfinder-backend/application/services"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// RoadmapHandler serves learning path queries
type RoadmapHandler struct {
	responder
	roadmaps *services.RoadmapService
}

// NewRoadmapHandler creates a new roadmap handler
func NewRoadmapHandler(roadmaps *services.RoadmapService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *RoadmapHandler {
	return &RoadmapHandler{responder: responder{errors: errs, logger: logger}, roadmaps: roadmaps}
}

// GetRoadmap handles GET /graphs/{graphID}/roadmap?start=&target=
func (h *RoadmapHandler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	gq, err := graphQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	params := r.URL.Query()
	result, err := h.roadmaps.FindRoadmap(r.Context(), queries.FindRoadmapQuery{
		UserID:  gq.UserID,
		GraphID: gq.GraphID,
		Start:   params.Get("start"),
		Target:  params.Get("target"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
