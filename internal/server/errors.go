package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/keyword-blog/internal/completion"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/slug"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnprocessable indicates a well-formed request whose content cannot be used.
type ErrUnprocessable struct {
	Message string
}

func (e *ErrUnprocessable) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var validationErrs validator.ValidationErrors
	var unprocessable *ErrUnprocessable
	var upstream *generation.UpstreamError
	var incomplete *completion.IncompleteDocumentError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.As(err, &unprocessable), errors.Is(err, db.ErrScheduleInPast):
		return http.StatusUnprocessableEntity
	case errors.Is(err, db.ErrKeywordRecordNotFound),
		errors.Is(err, db.ErrBlogNotFound),
		errors.Is(err, db.ErrSystemPromptNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrSlugTaken), errors.Is(err, slug.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &incomplete):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing message for err. Server-side
// failures never expose internal details.
func errorMessage(err error) string {
	var upstream *generation.UpstreamError
	var incomplete *completion.IncompleteDocumentError

	switch {
	case errors.Is(err, db.ErrKeywordRecordNotFound):
		return generation.MsgRecordNotFound
	case errors.Is(err, db.ErrBlogNotFound):
		return "Blog not found."
	case errors.Is(err, db.ErrSystemPromptNotFound):
		return "System prompt not found."
	case errors.Is(err, db.ErrSlugTaken):
		return "Slug is already in use by another blog."
	case errors.Is(err, db.ErrScheduleInPast):
		return "Scheduled time must be in the future."
	case errors.As(err, &upstream), errors.As(err, &incomplete),
		errors.Is(err, slug.ErrConflict),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return generation.UserMessage(err)
	}

	if status := HTTPStatus(err); status >= http.StatusInternalServerError {
		return "Internal server error."
	}
	return err.Error()
}

// handleError writes the status and message for err, logging server-side failures.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.errorResponse(w, status, errorMessage(err))
}
