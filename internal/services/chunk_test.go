package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/refyne-backend/internal/data/repos/testutil"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
)

type chunkFixture struct {
	deps    *testDeps
	svc     ChunkService
	project *types.Project
	doc     *types.Document
}

func newChunkFixture(t *testing.T) *chunkFixture {
	t.Helper()
	d := newTestDeps(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, ctx, d.db, "kb")
	doc := testutil.SeedDocument(t, ctx, d.db, project.ID, "guide.md", types.DocumentStatusProcessed, "raw")
	return &chunkFixture{
		deps:    d,
		svc:     NewChunkService(d.db, testutil.Logger(t), d.chunks, d.tags),
		project: project,
		doc:     doc,
	}
}

func (f *chunkFixture) seed(t *testing.T, sortOrder int, category, content string) *types.Chunk {
	t.Helper()
	return testutil.SeedChunk(t, context.Background(), f.deps.db, f.doc, sortOrder, category, content)
}

func TestSplitReconstructsContent(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	content := "First sentence here. Second sentence there.  Ünïcode tail."
	runes := []rune(content)

	for _, p := range []int{1, 5, 20, 21, len(runes) - 1} {
		orig := f.seed(t, 0, "FAQ", content)
		first, second, err := f.svc.Split(ctx, orig.ID, p)
		require.NoError(t, err, "position %d", p)

		assert.Equal(t, strings.TrimSpace(string(runes[:p])), first.Content)
		assert.Equal(t, strings.TrimSpace(string(runes[p:])), second.Content)
		assert.Equal(t, first.Content, strings.TrimSpace(first.Content))
		assert.Equal(t, second.Content, strings.TrimSpace(second.Content))
		assert.True(t, strings.HasPrefix(strings.TrimSpace(content), first.Content))
		assert.True(t, strings.HasSuffix(strings.TrimSpace(content), second.Content))
		assert.Equal(t, types.EstimateTokens(first.Content), first.TokenCount)
		assert.Equal(t, types.EstimateTokens(second.Content), second.TokenCount)
	}
}

func TestSplitFields(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	orig := f.seed(t, 4, "Policy Document", "Alpha part. Beta part.")
	tag := testutil.SeedTag(t, ctx, f.deps.db, f.project.ID, "policy", orig.ID)

	first, second, err := f.svc.Split(ctx, orig.ID, 11)
	require.NoError(t, err)

	assert.Equal(t, orig.ID, first.ID)
	assert.Equal(t, "chunk (Part 1)", first.Title)
	assert.Equal(t, "Alpha part.", first.Content)
	assert.Equal(t, 4, first.SortOrder)

	assert.NotEqual(t, orig.ID, second.ID)
	assert.Equal(t, "chunk (Part 2)", second.Title)
	assert.Equal(t, "Beta part.", second.Content)
	assert.Equal(t, 5, second.SortOrder)
	assert.Equal(t, orig.DocumentID, second.DocumentID)
	assert.Equal(t, orig.ProjectID, second.ProjectID)
	assert.Equal(t, orig.Category, second.Category)
	assert.Equal(t, orig.Summary, second.Summary)
	require.Len(t, second.Tags, 1)
	assert.Equal(t, tag.ID, second.Tags[0].ID)
}

func TestSplitKeepsDuplicateSortOrder(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	a := f.seed(t, 0, "FAQ", "one two")
	f.seed(t, 1, "FAQ", "three")

	_, second, err := f.svc.Split(ctx, a.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SortOrder)

	all, err := f.deps.chunks.ListByDocument(dbctx.Context{Ctx: ctx}, f.doc.ID)
	require.NoError(t, err)
	ones := 0
	for _, c := range all {
		if c.SortOrder == 1 {
			ones++
		}
	}
	assert.Equal(t, 2, ones)
}

func TestSplitRejectsBadPositions(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	c := f.seed(t, 0, "FAQ", "abcdef")

	for _, p := range []int{0, -1, 6, 100} {
		_, _, err := f.svc.Split(ctx, c.ID, p)
		assert.True(t, errors.Is(err, perrors.ErrInvalidPosition), "position %d: got %v", p, err)
	}

	ws := f.seed(t, 1, "FAQ", "text     ")
	_, _, err := f.svc.Split(ctx, ws.ID, 5)
	assert.True(t, errors.Is(err, perrors.ErrEmptySplit), "got %v", err)

	lead := f.seed(t, 2, "FAQ", "   text")
	_, _, err = f.svc.Split(ctx, lead.ID, 2)
	assert.True(t, errors.Is(err, perrors.ErrEmptySplit), "got %v", err)

	got, err := f.svc.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "text     ", got.Content)

	_, _, err = f.svc.Split(ctx, uuid.New(), 1)
	assert.True(t, errors.Is(err, perrors.ErrNotFound))
}

func TestUpdateMaintainsTokenCount(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	c := f.seed(t, 0, "FAQ", "abc")
	assert.Equal(t, 1, c.TokenCount)

	for _, content := range []string{"abcde", strings.Repeat("x", 17), "é"} {
		updated, err := f.svc.Update(ctx, c.ID, types.ChunkUpdate{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, types.EstimateTokens(content), updated.TokenCount)
	}

	title := "New title"
	updated, err := f.svc.Update(ctx, c.ID, types.ChunkUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, 1, updated.TokenCount)

	bad := "archived"
	_, err = f.svc.Update(ctx, c.ID, types.ChunkUpdate{Status: &bad})
	assert.True(t, errors.Is(err, perrors.ErrInvalidArgument))

	blank := "  "
	_, err = f.svc.Update(ctx, c.ID, types.ChunkUpdate{Content: &blank})
	assert.True(t, errors.Is(err, perrors.ErrInvalidArgument))

	_, err = f.svc.Update(ctx, uuid.New(), types.ChunkUpdate{Title: &title})
	assert.True(t, errors.Is(err, perrors.ErrNotFound))
}

func TestMerge(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	a := f.seed(t, 0, "FAQ", "Part A text.")
	title := "Intro (Part 1)"
	_, err := f.svc.Update(ctx, a.ID, types.ChunkUpdate{Title: &title})
	require.NoError(t, err)
	b := f.seed(t, 1, "FAQ", "Part B text.")
	testutil.SeedTag(t, ctx, f.deps.db, f.project.ID, "only-b", b.ID)

	merged, err := f.svc.Merge(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Part A text.\n\nPart B text.", merged.Content)
	assert.Equal(t, "Intro", merged.Title)
	assert.Equal(t, "summary", merged.Summary)
	assert.Equal(t, types.EstimateTokens(merged.Content), merged.TokenCount)
	assert.Empty(t, merged.Tags)

	_, err = f.svc.Get(ctx, b.ID)
	assert.True(t, errors.Is(err, perrors.ErrNotFound))
}

func TestMergeRejections(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	a := f.seed(t, 0, "FAQ", "a")

	otherDoc := testutil.SeedDocument(t, ctx, f.deps.db, f.project.ID, "other.md", types.DocumentStatusProcessed, "raw")
	other := testutil.SeedChunk(t, ctx, f.deps.db, otherDoc, 0, "FAQ", "z")

	_, err := f.svc.Merge(ctx, a.ID, other.ID)
	assert.True(t, errors.Is(err, perrors.ErrCrossDocumentMerge), "got %v", err)

	_, err = f.svc.Merge(ctx, a.ID, uuid.New())
	assert.True(t, errors.Is(err, perrors.ErrNotFound), "got %v", err)

	_, err = f.svc.Merge(ctx, a.ID, a.ID)
	assert.True(t, errors.Is(err, perrors.ErrInvalidArgument), "got %v", err)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Content)
}

func TestApproveCategoryIsolation(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	statuses := []string{types.ChunkStatusPendingReview, types.ChunkStatusRejected, types.ChunkStatusApproved}

	var policy, other []*types.Chunk
	for i, st := range statuses {
		p := f.seed(t, i, "Policy Document", "p")
		o := f.seed(t, i, "Marketing Copy", "m")
		for _, c := range []*types.Chunk{p, o} {
			s := st
			_, err := f.svc.Update(ctx, c.ID, types.ChunkUpdate{Status: &s})
			require.NoError(t, err)
		}
		policy = append(policy, p)
		other = append(other, o)
	}

	n, err := f.svc.ApproveCategory(ctx, f.project.ID, "Policy Document")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	_, err = f.svc.ApproveCategory(ctx, f.project.ID, "Policy Document")
	require.NoError(t, err)

	for _, c := range policy {
		got, err := f.svc.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, types.ChunkStatusApproved, got.Status)
	}
	for i, c := range other {
		got, err := f.svc.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, statuses[i], got.Status)
	}
}

func TestDeleteRejectedCount(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	rejected := types.ChunkStatusRejected

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		c := f.seed(t, i, "FAQ", "x")
		ids = append(ids, c.ID)
	}
	n, err := f.svc.BulkUpdateStatus(ctx, ids[:3], rejected)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	deleted, err := f.svc.DeleteRejected(ctx, f.project.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	later := f.seed(t, 9, "FAQ", "later")
	_, err = f.svc.Update(ctx, later.ID, types.ChunkUpdate{Status: &rejected})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ReviewStats{Total: 2, Rejected: 1, Pending: 1}, stats)

	_, err = f.svc.Get(ctx, later.ID)
	require.NoError(t, err)
}

func TestChunkTagging(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	c := f.seed(t, 0, "FAQ", "x")

	updated, err := f.svc.AddTag(ctx, c.ID, "  Onboarding ")
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "onboarding", updated.Tags[0].Name)

	again, err := f.svc.AddTag(ctx, c.ID, "ONBOARDING")
	require.NoError(t, err)
	assert.Len(t, again.Tags, 1)

	_, err = f.svc.AddTag(ctx, c.ID, "   ")
	assert.True(t, errors.Is(err, perrors.ErrInvalidArgument))

	removed, err := f.svc.RemoveTag(ctx, c.ID, updated.Tags[0].ID)
	require.NoError(t, err)
	assert.Empty(t, removed.Tags)

	_, err = f.svc.RemoveTag(ctx, c.ID, updated.Tags[0].ID)
	require.NoError(t, err)
}

func TestAdjacentAndListFilters(t *testing.T) {
	f := newChunkFixture(t)
	ctx := context.Background()
	first := f.seed(t, 0, "FAQ", "How do refunds work?")
	second := f.seed(t, 1, "FAQ", "Shipping times")

	adj, err := f.svc.Adjacent(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, adj.Next)
	assert.Equal(t, second.ID, adj.Next.ID)

	last, err := f.svc.Adjacent(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, last.Next)

	found, err := f.svc.List(ctx, f.project.ID, types.ChunkFilter{Search: "REFUND"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	_, err = f.svc.List(ctx, f.project.ID, types.ChunkFilter{Status: "bogus"})
	assert.True(t, errors.Is(err, perrors.ErrInvalidArgument))

	require.NoError(t, f.svc.Delete(ctx, second.ID))
	assert.True(t, errors.Is(f.svc.Delete(ctx, uuid.New()), perrors.ErrNotFound))
}
