package knowledge

import (
	"context"
	"testing"

	"github.com/yungbote/refyne-backend/internal/data/repos/testutil"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
)

func TestProjectRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewProjectRepo(db, testutil.Logger(t))

	p, err := repo.Create(dbc, &types.Project{Name: "Help Center"})
	if err != nil || p.Status != types.ProjectStatusActive {
		t.Fatalf("Create: err=%v got=%+v", err, p)
	}
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusProcessed, "x")
	c := testutil.SeedChunk(t, ctx, db, doc, 0, "x", "content")
	testutil.SeedTag(t, ctx, db, p.ID, "t", c.ID)

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v", err)
	}
	if got.DocumentCount != 1 || got.ChunkCount != 1 {
		t.Fatalf("counts: got=%d/%d", got.DocumentCount, got.ChunkCount)
	}

	if err := repo.UpdateFields(dbc, p.ID, map[string]interface{}{"status": types.ProjectStatusArchived}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	list, err := repo.List(dbc)
	if err != nil || len(list) != 1 || list[0].Status != types.ProjectStatusArchived {
		t.Fatalf("List: err=%v got=%+v", err, list)
	}

	if ok, err := repo.Delete(dbc, p.ID); err != nil || !ok {
		t.Fatalf("Delete: err=%v ok=%v", err, ok)
	}
	for _, model := range []interface{}{&types.Document{}, &types.Chunk{}, &types.Tag{}, &types.ChunkTag{}} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil || n != 0 {
			t.Fatalf("leftover %T: err=%v n=%d", model, err, n)
		}
	}
	if got, err := repo.GetByID(dbc, p.ID); err != nil || got != nil {
		t.Fatalf("GetByID deleted: err=%v got=%v", err, got)
	}
}
