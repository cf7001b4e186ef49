package knowledge

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunStatusIdle       = "idle"
	RunStatusProcessing = "processing"
	RunStatusDone       = "done"
)

// RunError records one failed document. DocumentID and Filename are nil for a
// failure of the run loop itself.
type RunError struct {
	DocumentID *uuid.UUID `json:"documentId"`
	Filename   *string    `json:"filename"`
	Error      string     `json:"error"`
}

// ProcessingRun is the in-memory progress record of one project's run.
type ProcessingRun struct {
	ProjectID       uuid.UUID  `json:"-"`
	Status          string     `json:"status"`
	Total           int        `json:"total"`
	Completed       int        `json:"completed"`
	CurrentDocument *string    `json:"currentDocument"`
	Errors          []RunError `json:"errors"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

func IdleRun(projectID uuid.UUID) ProcessingRun {
	return ProcessingRun{ProjectID: projectID, Status: RunStatusIdle, Errors: []RunError{}}
}

// Clone returns a copy that shares no mutable state with r.
func (r ProcessingRun) Clone() ProcessingRun {
	out := r
	out.Errors = make([]RunError, len(r.Errors))
	copy(out.Errors, r.Errors)
	if r.CurrentDocument != nil {
		s := *r.CurrentDocument
		out.CurrentDocument = &s
	}
	return out
}
