package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/services"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// multipart parts beyond this are spooled to disk by net/http
const uploadMemory = 8 << 20

// UploadHandler accepts documents
type UploadHandler struct {
	responder
	uploads  *services.UploadService
	maxBytes int64
}

// NewUploadHandler creates a new upload handler; maxBytes bounds the request body
func NewUploadHandler(uploads *services.UploadService, maxBytes int64, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{responder: responder{errors: errs, logger: logger}, uploads: uploads, maxBytes: maxBytes}
}

// Upload handles POST /uploads with a multipart "file" field
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.maxBytes > 0 {
		// room for the multipart envelope
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, pkgerrors.NewValidationError("upload too large").WithCode("DOCUMENT_TOO_LARGE"))
			return
		}
		h.fail(w, r, pkgerrors.NewValidationError("expected a multipart form").WithCode("INVALID_UPLOAD").WithCause(err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, pkgerrors.NewValidationError(`missing "file" field`).WithCode("INVALID_UPLOAD"))
		return
	}
	defer file.Close()

	upload, err := h.uploads.Upload(r.Context(), commands.UploadDocumentCommand{
		UserID:      uid,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, upload)
}

// GetUpload handles GET /uploads/{uploadID}
func (h *UploadHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id, err := valueobjects.ParseUploadID(chi.URLParam(r, "uploadID"))
	if err != nil {
		h.fail(w, r, pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_ID"))
		return
	}

	upload, err := h.uploads.GetUpload(r.Context(), valueobjects.UserID(uid), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, upload)
}
