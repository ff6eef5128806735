package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/services"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// LearningHandler serves the model-backed endpoints
type LearningHandler struct {
	responder
	learning *services.LearningService
}

// NewLearningHandler creates a new learning handler
func NewLearningHandler(learning *services.LearningService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *LearningHandler {
	return &LearningHandler{responder: responder{errors: errs, logger: logger}, learning: learning}
}

// Decompose handles POST /decompose
func (h *LearningHandler) Decompose(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var cmd commands.DecomposeTopicCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.UserID = uid

	result, err := h.learning.Decompose(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// Explain handles POST /graphs/{graphID}/nodes/{topicID}/explain; the body is optional
func (h *LearningHandler) Explain(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var cmd commands.ExplainTopicCommand
	if r.ContentLength > 0 {
		if err := h.decode(w, r, &cmd); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	cmd.UserID = uid
	cmd.GraphID = chi.URLParam(r, "graphID")
	cmd.TopicID = chi.URLParam(r, "topicID")

	result, err := h.learning.Explain(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
