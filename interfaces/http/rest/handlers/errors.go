package handlers

import (
	"context"
	"errors"

	"pathfinder-backend/application/services"
	"pathfinder-backend/domain/core/entities"
	domainservices "pathfinder-backend/domain/services"
	"pathfinder-backend/infrastructure/documents"
	"pathfinder-backend/infrastructure/llm"
	"pathfinder-backend/infrastructure/locking"
	"pathfinder-backend/infrastructure/persistence/dynamodb"
	"pathfinder-backend/pkg/auth"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// TranslateError maps domain and adapter errors onto AppErrors. It returns
// nil for errors it does not know, which the error handler renders as 500.
func TranslateError(err error) *pkgerrors.AppError {
	switch {
	case errors.Is(err, entities.ErrGraphNotFound):
		return pkgerrors.NewNotFoundError("graph").WithCause(err)
	case errors.Is(err, entities.ErrTopicNotFound):
		return pkgerrors.NewNotFoundError("topic").WithCause(err)
	case errors.Is(err, entities.ErrUploadNotFound):
		return pkgerrors.NewNotFoundError("upload").WithCause(err)
	case errors.Is(err, entities.ErrUserNotFound):
		return pkgerrors.NewNotFoundError("user").WithCause(err)
	case errors.Is(err, domainservices.ErrStartTopicNotFound):
		return pkgerrors.NewNotFoundError("start topic").WithCode("START_TOPIC_NOT_FOUND").WithCause(err)
	case errors.Is(err, domainservices.ErrTargetTopicNotFound):
		return pkgerrors.NewNotFoundError("target topic").WithCode("TARGET_TOPIC_NOT_FOUND").WithCause(err)

	case errors.Is(err, entities.ErrTopicNameTooLong),
		errors.Is(err, entities.ErrEmptyTopicName),
		errors.Is(err, entities.ErrEmptyGraphName),
		errors.Is(err, entities.ErrMissingOwner):
		return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_INPUT")
	case errors.Is(err, services.ErrIngestionTooLarge):
		return pkgerrors.NewValidationError(err.Error()).WithCode("INGESTION_TOO_LARGE")
	case errors.Is(err, documents.ErrUnsupportedFormat):
		return pkgerrors.NewValidationError(err.Error()).WithCode("UNSUPPORTED_FORMAT")
	case errors.Is(err, documents.ErrTooLarge):
		return pkgerrors.NewValidationError(err.Error()).WithCode("DOCUMENT_TOO_LARGE")
	case errors.Is(err, documents.ErrNotText):
		return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_DOCUMENT")

	case errors.Is(err, entities.ErrDuplicate):
		return pkgerrors.NewConflictError("resource already exists").WithCause(err)

	case errors.Is(err, auth.ErrNoUser):
		return pkgerrors.NewUnauthorizedError("")

	case errors.Is(err, llm.ErrDisabled):
		return pkgerrors.NewUnavailableError("llm").WithCode("LLM_DISABLED").WithCause(err)
	case errors.Is(err, llm.ErrUnavailable):
		return pkgerrors.NewUnavailableError("llm").WithCode("LLM_UNAVAILABLE").WithCause(err)
	case errors.Is(err, locking.ErrLockTimeout), errors.Is(err, dynamodb.ErrLockTimeout):
		return pkgerrors.NewUnavailableError("ingestion lock").WithCode("GRAPH_BUSY").WithCause(err)

	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.NewTimeoutError("request").WithCause(err)
	}
	return nil
}
