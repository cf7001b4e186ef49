package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict reports that a processing run is already in progress.
	ErrConflict = errors.New("processing already in progress")
	// ErrNoWork reports that a project has no extracted documents to process.
	ErrNoWork          = errors.New("no extracted documents to process")
	ErrInvalidPosition = errors.New("invalid split position")
	ErrEmptySplit      = errors.New("split would create an empty chunk")
	// ErrCrossDocumentMerge rejects merging chunks that belong to different documents.
	ErrCrossDocumentMerge = errors.New("chunks belong to different documents")
	// ErrInvalidTransition rejects a document status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a malformed or unusable payload, typically an AI response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil || e.Reason == "" {
		return "validation failed"
	}
	return "validation failed: " + e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ServiceError reports that an external service kept failing after all retries.
type ServiceError struct {
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("processing failed after %d attempts: %s", e.Attempts, msg)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ExtractionError reports that text could not be extracted from an uploaded file.
type ExtractionError struct {
	Filename        string
	UnsupportedType string
	Err             error
}

func (e *ExtractionError) Error() string {
	if e == nil {
		return ""
	}
	if e.UnsupportedType != "" {
		return fmt.Sprintf("unsupported file type: %s", e.UnsupportedType)
	}
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s", e.Filename, e.Err.Error())
	}
	return fmt.Sprintf("extract %s failed", e.Filename)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
