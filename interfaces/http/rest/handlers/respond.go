package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"pathfinder-backend/pkg/auth"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// maxJSONBody bounds request bodies other than uploads
const maxJSONBody = 4 << 20

// responder is embedded by every handler
type responder struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Handle(w, r, err)
}

// decode reads a JSON body into v
func (h responder) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return pkgerrors.NewValidationError("request body too large").WithCode("BODY_TOO_LARGE")
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is empty").WithCode("INVALID_JSON")
		default:
			return pkgerrors.NewValidationError("invalid JSON: " + err.Error()).WithCode("INVALID_JSON")
		}
	}
	return nil
}

// userID returns the authenticated caller
func userID(r *http.Request) (string, error) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}
