package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/refyne-backend/internal/domain"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Project {
	tb.Helper()
	p := &types.Project{Name: name, Status: types.ProjectStatusActive}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, filename string, status string, rawText string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ProjectID:        projectID,
		OriginalFilename: filename,
		FileType:         "txt",
		StorageKey:       uuid.NewString() + ".txt",
		Status:           status,
	}
	if rawText != "" {
		d.RawText = &rawText
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, doc *types.Document, sortOrder int, category string, content string) *types.Chunk {
	tb.Helper()
	c := &types.Chunk{
		DocumentID: doc.ID,
		ProjectID:  doc.ProjectID,
		Title:      "chunk",
		Content:    content,
		Summary:    "summary",
		Category:   category,
		SortOrder:  sortOrder,
	}
	if err := tx.WithContext(ctx).Omit("Tags").Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string, chunkIDs ...uuid.UUID) *types.Tag {
	tb.Helper()
	t := &types.Tag{ProjectID: projectID, Name: name}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	for _, id := range chunkIDs {
		if err := tx.WithContext(ctx).Create(&types.ChunkTag{ChunkID: id, TagID: t.ID}).Error; err != nil {
			tb.Fatalf("seed chunk tag: %v", err)
		}
	}
	return t
}
