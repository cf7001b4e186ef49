package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/refyne-backend/internal/data/repos/testutil"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
)

func TestDocumentRepoTransitionStatus(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, "p")
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusUploaded, "")

	if err := repo.TransitionStatus(dbc, doc.ID, types.DocumentStatusExtracting, nil); err != nil {
		t.Fatalf("uploaded -> extracting: %v", err)
	}
	text := "hello"
	if err := repo.TransitionStatus(dbc, doc.ID, types.DocumentStatusExtracted, map[string]interface{}{"raw_text": text}); err != nil {
		t.Fatalf("extracting -> extracted: %v", err)
	}
	err := repo.TransitionStatus(dbc, doc.ID, types.DocumentStatusProcessed, nil)
	if !errors.Is(err, perrors.ErrInvalidTransition) {
		t.Fatalf("extracted -> processed: want ErrInvalidTransition got=%v", err)
	}
	if err := repo.TransitionStatus(dbc, uuid.New(), types.DocumentStatusProcessing, nil); !errors.Is(err, perrors.ErrNotFound) {
		t.Fatalf("missing doc: want ErrNotFound got=%v", err)
	}

	got, err := repo.GetByID(dbc, doc.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v", err)
	}
	if got.Status != types.DocumentStatusExtracted || got.RawText == nil || *got.RawText != "hello" {
		t.Fatalf("document after transitions: %+v", got)
	}

	extracted, err := repo.ListByProjectAndStatus(dbc, p.ID, types.DocumentStatusExtracted)
	if err != nil || len(extracted) != 1 {
		t.Fatalf("ListByProjectAndStatus: err=%v len=%d", err, len(extracted))
	}
}

func TestDocumentRepoDeleteCascades(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, "p")
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusProcessed, "x")
	keep := testutil.SeedDocument(t, ctx, db, p.ID, "b.txt", types.DocumentStatusProcessed, "y")
	c := testutil.SeedChunk(t, ctx, db, doc, 0, "x", "content")
	testutil.SeedChunk(t, ctx, db, keep, 0, "x", "content")
	testutil.SeedTag(t, ctx, db, p.ID, "t", c.ID)

	if ok, err := repo.Delete(dbc, doc.ID); err != nil || !ok {
		t.Fatalf("Delete: err=%v ok=%v", err, ok)
	}
	var chunks int64
	db.Model(&types.Chunk{}).Count(&chunks)
	if chunks != 1 {
		t.Fatalf("chunks after delete: want=1 got=%d", chunks)
	}
	listed, err := repo.ListByProject(dbc, p.ID)
	if err != nil || len(listed) != 1 || listed[0].ID != keep.ID {
		t.Fatalf("ListByProject: err=%v got=%v", err, listed)
	}
	if listed[0].RawText != nil {
		t.Fatalf("list should omit raw text")
	}
}
