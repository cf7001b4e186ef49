package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/refyne-backend/internal/data/repos/testutil"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	"github.com/yungbote/refyne-backend/internal/pkg/pointers"
)

func TestChunkRepoCreateAndList(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, "p")
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusProcessed, "text")

	chunks := []*types.Chunk{
		{DocumentID: doc.ID, ProjectID: p.ID, Title: "Refunds", Content: "Refunds are issued within 14 days.", Summary: "refund policy", Category: "Policy Document", SortOrder: 0},
		{DocumentID: doc.ID, ProjectID: p.ID, Title: "Welcome", Content: "Hello and welcome", Summary: "greeting", Category: "Email Campaign", SortOrder: 1},
		{DocumentID: doc.ID, ProjectID: p.ID, Title: "Shipping", Content: "We ship worldwide", Summary: "shipping policy", Category: "Policy Document", SortOrder: 2},
	}
	if _, err := repo.Create(dbc, chunks); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if chunks[0].TokenCount != types.EstimateTokens(chunks[0].Content) {
		t.Fatalf("token count: want=%d got=%d", types.EstimateTokens(chunks[0].Content), chunks[0].TokenCount)
	}
	if chunks[0].Status != types.ChunkStatusPendingReview {
		t.Fatalf("default status: got=%q", chunks[0].Status)
	}

	all, err := repo.ListByProject(dbc, p.ID, types.ChunkFilter{})
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListByProject: want=3 got=%d", len(all))
	}
	// category, then sort order
	wantTitles := []string{"Welcome", "Refunds", "Shipping"}
	for i, c := range all {
		if c.Title != wantTitles[i] {
			t.Fatalf("order[%d]: want=%s got=%s", i, wantTitles[i], c.Title)
		}
	}

	byCat, err := repo.ListByProject(dbc, p.ID, types.ChunkFilter{Category: "Policy Document"})
	if err != nil || len(byCat) != 2 {
		t.Fatalf("category filter: err=%v len=%d", err, len(byCat))
	}

	bySearch, err := repo.ListByProject(dbc, p.ID, types.ChunkFilter{Search: "SHIPPING"})
	if err != nil || len(bySearch) != 1 || bySearch[0].Title != "Shipping" {
		t.Fatalf("search filter: err=%v got=%v", err, bySearch)
	}

	bySummary, err := repo.ListByProject(dbc, p.ID, types.ChunkFilter{Search: "greet"})
	if err != nil || len(bySummary) != 1 {
		t.Fatalf("summary search: err=%v len=%d", err, len(bySummary))
	}

	literal, err := repo.ListByProject(dbc, p.ID, types.ChunkFilter{Search: "100%"})
	if err != nil || len(literal) != 0 {
		t.Fatalf("wildcard escaped search: err=%v len=%d", err, len(literal))
	}

	testutil.SeedTag(t, ctx, db, p.ID, "faq", chunks[1].ID)
	byTag, err := repo.ListByProject(dbc, p.ID, types.ChunkFilter{Tag: "faq"})
	if err != nil || len(byTag) != 1 || byTag[0].ID != chunks[1].ID {
		t.Fatalf("tag filter: err=%v got=%v", err, byTag)
	}
	if len(byTag[0].Tags) != 1 || byTag[0].Tags[0].Name != "faq" {
		t.Fatalf("preloaded tags: got=%v", byTag[0].Tags)
	}

	other := testutil.SeedProject(t, ctx, db, "other")
	if rows, err := repo.ListByProject(dbc, other.ID, types.ChunkFilter{}); err != nil || len(rows) != 0 {
		t.Fatalf("other project: err=%v len=%d", err, len(rows))
	}
}

func TestChunkRepoUpdateRecomputesTokens(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, "p")
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusProcessed, "text")
	c := testutil.SeedChunk(t, ctx, db, doc, 0, "Blog Post / Article", "short")

	long := strings.Repeat("word ", 40)
	updated, err := repo.Update(dbc, c.ID, types.ChunkUpdate{Content: &long, Status: pointers.String(types.ChunkStatusApproved)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TokenCount != 50 {
		t.Fatalf("token count: want=50 got=%d", updated.TokenCount)
	}
	if updated.Status != types.ChunkStatusApproved || updated.Title != "chunk" {
		t.Fatalf("update fields: got=%+v", updated)
	}

	title := "renamed"
	updated, err = repo.Update(dbc, c.ID, types.ChunkUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update title: %v", err)
	}
	if updated.TokenCount != 50 || updated.Content != long {
		t.Fatalf("title-only update changed content: %+v", updated)
	}

	missing, err := repo.Update(dbc, uuid.New(), types.ChunkUpdate{Title: &title})
	if err != nil || missing != nil {
		t.Fatalf("Update missing: err=%v got=%v", err, missing)
	}
}

func TestChunkRepoBulkAndStats(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, "p")
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusProcessed, "text")
	a := testutil.SeedChunk(t, ctx, db, doc, 0, "Meeting Notes", "a")
	b := testutil.SeedChunk(t, ctx, db, doc, 1, "Meeting Notes", "b")
	c := testutil.SeedChunk(t, ctx, db, doc, 2, "Legal / Compliance", "c")
	d := testutil.SeedChunk(t, ctx, db, doc, 3, "Legal / Compliance", "d")
	testutil.SeedTag(t, ctx, db, p.ID, "q3", c.ID, d.ID)

	if n, err := repo.BulkUpdateStatus(dbc, []uuid.UUID{c.ID, d.ID}, types.ChunkStatusRejected); err != nil || n != 2 {
		t.Fatalf("BulkUpdateStatus: err=%v n=%d", err, n)
	}
	if n, err := repo.BulkUpdateByCategory(dbc, p.ID, "Meeting Notes", types.ChunkStatusApproved); err != nil || n != 2 {
		t.Fatalf("BulkUpdateByCategory: err=%v n=%d", err, n)
	}

	stats, err := repo.ReviewStats(dbc, p.ID)
	if err != nil {
		t.Fatalf("ReviewStats: %v", err)
	}
	if stats != (types.ReviewStats{Total: 4, Approved: 2, Rejected: 2, Pending: 0}) {
		t.Fatalf("ReviewStats: got=%+v", stats)
	}

	cats, err := repo.CategoriesWithCounts(dbc, p.ID)
	if err != nil || len(cats) != 2 {
		t.Fatalf("CategoriesWithCounts: err=%v got=%v", err, cats)
	}
	if cats[0].Category != "Legal / Compliance" || cats[0].Count != 2 {
		t.Fatalf("CategoriesWithCounts[0]: got=%+v", cats[0])
	}

	n, err := repo.DeleteByStatus(dbc, p.ID, types.ChunkStatusRejected)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByStatus: err=%v n=%d", err, n)
	}
	var links int64
	if err := db.Model(&types.ChunkTag{}).Count(&links).Error; err != nil || links != 0 {
		t.Fatalf("links after delete: err=%v n=%d", err, links)
	}
	if rows, _ := repo.ListByProject(dbc, p.ID, types.ChunkFilter{}); len(rows) != 2 || rows[0].ID != a.ID || rows[1].ID != b.ID {
		t.Fatalf("remaining chunks: got=%v", rows)
	}

	empty := testutil.SeedProject(t, ctx, db, "empty")
	if s, err := repo.ReviewStats(dbc, empty.ID); err != nil || s != (types.ReviewStats{}) {
		t.Fatalf("empty stats: err=%v got=%+v", err, s)
	}
}

func TestChunkRepoFindAdjacentAndDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, db, "p")
	doc := testutil.SeedDocument(t, ctx, db, p.ID, "a.txt", types.DocumentStatusProcessed, "text")
	otherDoc := testutil.SeedDocument(t, ctx, db, p.ID, "b.txt", types.DocumentStatusProcessed, "text")
	first := testutil.SeedChunk(t, ctx, db, doc, 0, "x", "first")
	second := testutil.SeedChunk(t, ctx, db, doc, 1, "x", "second")
	testutil.SeedChunk(t, ctx, db, otherDoc, 1, "x", "elsewhere")

	adj, err := repo.FindAdjacent(dbc, first.ID)
	if err != nil || adj == nil || adj.Next == nil || adj.Next.ID != second.ID {
		t.Fatalf("FindAdjacent first: err=%v got=%+v", err, adj)
	}
	adj, err = repo.FindAdjacent(dbc, second.ID)
	if err != nil || adj == nil || adj.Next != nil {
		t.Fatalf("FindAdjacent last: err=%v got=%+v", err, adj)
	}
	if adj, err := repo.FindAdjacent(dbc, uuid.New()); err != nil || adj != nil {
		t.Fatalf("FindAdjacent missing: err=%v got=%+v", err, adj)
	}

	testutil.SeedTag(t, ctx, db, p.ID, "t", first.ID)
	if ok, err := repo.Delete(dbc, first.ID); err != nil || !ok {
		t.Fatalf("Delete: err=%v ok=%v", err, ok)
	}
	if ok, err := repo.Delete(dbc, first.ID); err != nil || ok {
		t.Fatalf("Delete again: err=%v ok=%v", err, ok)
	}
	if got, err := repo.GetByID(dbc, first.ID); err != nil || got != nil {
		t.Fatalf("GetByID deleted: err=%v got=%v", err, got)
	}
}
