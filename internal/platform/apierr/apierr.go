package apierr

import (
	"errors"
	"fmt"
	"net/http"

	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From maps a service error onto an HTTP status and a stable error code.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var validation *perrors.ValidationError
	var extraction *perrors.ExtractionError
	var service *perrors.ServiceError
	switch {
	case errors.Is(err, perrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, perrors.ErrConflict):
		return New(http.StatusConflict, "processing_in_progress", err)
	case errors.Is(err, perrors.ErrNoWork):
		return New(http.StatusBadRequest, "no_extracted_documents", err)
	case errors.Is(err, perrors.ErrInvalidPosition):
		return New(http.StatusBadRequest, "invalid_position", err)
	case errors.Is(err, perrors.ErrEmptySplit):
		return New(http.StatusBadRequest, "empty_split", err)
	case errors.Is(err, perrors.ErrCrossDocumentMerge):
		return New(http.StatusBadRequest, "cross_document_merge", err)
	case errors.Is(err, perrors.ErrInvalidTransition):
		return New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, perrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.As(err, &validation):
		return New(http.StatusUnprocessableEntity, "validation_failed", err)
	case errors.As(err, &extraction):
		return New(http.StatusBadRequest, "extraction_failed", err)
	case errors.As(err, &service):
		return New(http.StatusBadGateway, "upstream_failed", err)
	default:
		return New(http.StatusInternalServerError, "internal", errors.New("internal server error"))
	}
}
