package apierr

import (
	"fmt"
	"net/http"
	"testing"

	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
)

func TestFromMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("chunk: %w", perrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{perrors.ErrConflict, http.StatusConflict, "processing_in_progress"},
		{perrors.ErrNoWork, http.StatusBadRequest, "no_extracted_documents"},
		{perrors.ErrInvalidPosition, http.StatusBadRequest, "invalid_position"},
		{perrors.ErrEmptySplit, http.StatusBadRequest, "empty_split"},
		{perrors.ErrCrossDocumentMerge, http.StatusBadRequest, "cross_document_merge"},
		{perrors.NewValidationError("missing chunks"), http.StatusUnprocessableEntity, "validation_failed"},
		{&perrors.ServiceError{Attempts: 4, Err: fmt.Errorf("boom")}, http.StatusBadGateway, "upstream_failed"},
		{fmt.Errorf("db down"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		got := From(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("From(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, got.Status, got.Code)
		}
	}
}

func TestFromHidesInternalDetails(t *testing.T) {
	got := From(fmt.Errorf("pq: password authentication failed"))
	if got.Error() != "internal server error" {
		t.Fatalf("internal message leaked: %q", got.Error())
	}
}
