package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/services"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// AuthHandler handles account HTTP requests
type AuthHandler struct {
	responder
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{errors: errs, logger: logger}, auth: auth}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RegisterUserCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd commands.LoginCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.auth.Me(r.Context(), valueobjects.UserID(uid))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}
