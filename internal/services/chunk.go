package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

const (
	splitFirstSuffix  = " (Part 1)"
	splitSecondSuffix = " (Part 2)"
	mergeSeparator    = "\n\n"
)

type ChunkService interface {
	List(ctx context.Context, projectID uuid.UUID, filter types.ChunkFilter) ([]*types.Chunk, error)
	Categories(ctx context.Context, projectID uuid.UUID) ([]types.CategoryCount, error)
	Stats(ctx context.Context, projectID uuid.UUID) (types.ReviewStats, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Chunk, error)
	Update(ctx context.Context, id uuid.UUID, update types.ChunkUpdate) (*types.Chunk, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Adjacent(ctx context.Context, id uuid.UUID) (*types.AdjacentChunks, error)

	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status string) (int64, error)
	ApproveCategory(ctx context.Context, projectID uuid.UUID, category string) (int64, error)
	DeleteRejected(ctx context.Context, projectID uuid.UUID) (int64, error)

	// Split cuts a chunk's content at a rune position. The original keeps the
	// first half; a new chunk takes the second half at sort order + 1.
	Split(ctx context.Context, id uuid.UUID, position int) (*types.Chunk, *types.Chunk, error)
	// Merge appends b's content to a and deletes b. b's tags are dropped.
	Merge(ctx context.Context, aID, bID uuid.UUID) (*types.Chunk, error)

	AddTag(ctx context.Context, chunkID uuid.UUID, name string) (*types.Chunk, error)
	RemoveTag(ctx context.Context, chunkID, tagID uuid.UUID) (*types.Chunk, error)
}

type chunkService struct {
	db     *gorm.DB
	log    *logger.Logger
	chunks repos.ChunkRepo
	tags   repos.TagRepo
}

func NewChunkService(db *gorm.DB, baseLog *logger.Logger, chunks repos.ChunkRepo, tags repos.TagRepo) ChunkService {
	return &chunkService{
		db:     db,
		log:    baseLog.With("service", "ChunkService"),
		chunks: chunks,
		tags:   tags,
	}
}

func (s *chunkService) List(ctx context.Context, projectID uuid.UUID, filter types.ChunkFilter) ([]*types.Chunk, error) {
	if filter.Status != "" && !types.IsValidChunkStatus(filter.Status) {
		return nil, fmt.Errorf("status %q: %w", filter.Status, perrors.ErrInvalidArgument)
	}
	return s.chunks.ListByProject(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID, filter)
}

func (s *chunkService) Categories(ctx context.Context, projectID uuid.UUID) ([]types.CategoryCount, error) {
	return s.chunks.CategoriesWithCounts(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID)
}

func (s *chunkService) Stats(ctx context.Context, projectID uuid.UUID) (types.ReviewStats, error) {
	return s.chunks.ReviewStats(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID)
}

func (s *chunkService) Get(ctx context.Context, id uuid.UUID) (*types.Chunk, error) {
	return s.mustGet(dbctx.Context{Ctx: ctxutil.Default(ctx)}, id)
}

func (s *chunkService) mustGet(dbc dbctx.Context, id uuid.UUID) (*types.Chunk, error) {
	c, err := s.chunks.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("chunk %s: %w", id, perrors.ErrNotFound)
	}
	return c, nil
}

func (s *chunkService) Update(ctx context.Context, id uuid.UUID, update types.ChunkUpdate) (*types.Chunk, error) {
	if err := validateChunkUpdate(update); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	if update.IsEmpty() {
		return s.mustGet(dbc, id)
	}
	updated, err := s.chunks.Update(dbc, id, update)
	if err != nil {
		return nil, fmt.Errorf("update chunk: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("chunk %s: %w", id, perrors.ErrNotFound)
	}
	return updated, nil
}

func validateChunkUpdate(u types.ChunkUpdate) error {
	if u.Status != nil && !types.IsValidChunkStatus(*u.Status) {
		return fmt.Errorf("status %q: %w", *u.Status, perrors.ErrInvalidArgument)
	}
	for field, v := range map[string]*string{"title": u.Title, "content": u.Content, "category": u.Category} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%s must not be empty: %w", field, perrors.ErrInvalidArgument)
		}
	}
	return nil
}

func (s *chunkService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.chunks.Delete(dbctx.Context{Ctx: ctxutil.Default(ctx)}, id)
	if err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	if !ok {
		return fmt.Errorf("chunk %s: %w", id, perrors.ErrNotFound)
	}
	return nil
}

func (s *chunkService) Adjacent(ctx context.Context, id uuid.UUID) (*types.AdjacentChunks, error) {
	adj, err := s.chunks.FindAdjacent(dbctx.Context{Ctx: ctxutil.Default(ctx)}, id)
	if err != nil {
		return nil, err
	}
	if adj == nil || adj.Chunk == nil {
		return nil, fmt.Errorf("chunk %s: %w", id, perrors.ErrNotFound)
	}
	return adj, nil
}

func (s *chunkService) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status string) (int64, error) {
	if !types.IsValidChunkStatus(status) {
		return 0, fmt.Errorf("status %q: %w", status, perrors.ErrInvalidArgument)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("chunkIds required: %w", perrors.ErrInvalidArgument)
	}
	return s.chunks.BulkUpdateStatus(dbctx.Context{Ctx: ctxutil.Default(ctx)}, ids, status)
}

// ApproveCategory approves every chunk of one category regardless of its
// current status. Repeating it changes nothing.
func (s *chunkService) ApproveCategory(ctx context.Context, projectID uuid.UUID, category string) (int64, error) {
	if strings.TrimSpace(category) == "" {
		return 0, fmt.Errorf("category required: %w", perrors.ErrInvalidArgument)
	}
	n, err := s.chunks.BulkUpdateByCategory(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID, category, types.ChunkStatusApproved)
	if err != nil {
		return 0, fmt.Errorf("approve category: %w", err)
	}
	s.log.With(ctxutil.LogArgs(ctx)...).Info("Category approved", "project_id", projectID, "category", category, "chunks", n)
	return n, nil
}

func (s *chunkService) DeleteRejected(ctx context.Context, projectID uuid.UUID) (int64, error) {
	n, err := s.chunks.DeleteByStatus(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID, types.ChunkStatusRejected)
	if err != nil {
		return 0, fmt.Errorf("delete rejected: %w", err)
	}
	s.log.With(ctxutil.LogArgs(ctx)...).Info("Rejected chunks deleted", "project_id", projectID, "chunks", n)
	return n, nil
}

func (s *chunkService) Split(ctx context.Context, id uuid.UUID, position int) (*types.Chunk, *types.Chunk, error) {
	ctx = ctxutil.Default(ctx)
	var first, second *types.Chunk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		orig, err := s.mustGet(dbc, id)
		if err != nil {
			return err
		}
		head, tail, err := splitContent(orig.Content, position)
		if err != nil {
			return err
		}

		title := orig.Title + splitFirstSuffix
		first, err = s.chunks.Update(dbc, orig.ID, types.ChunkUpdate{Title: &title, Content: &head})
		if err != nil {
			return fmt.Errorf("update first half: %w", err)
		}
		if first == nil {
			return fmt.Errorf("chunk %s: %w", id, perrors.ErrNotFound)
		}

		created, err := s.chunks.Create(dbc, []*types.Chunk{{
			DocumentID: orig.DocumentID,
			ProjectID:  orig.ProjectID,
			Title:      orig.Title + splitSecondSuffix,
			Content:    tail,
			Summary:    orig.Summary,
			Category:   orig.Category,
			SortOrder:  orig.SortOrder + 1,
			Status:     types.ChunkStatusPendingReview,
		}})
		if err != nil {
			return fmt.Errorf("create second half: %w", err)
		}
		newID := created[0].ID

		if len(orig.Tags) > 0 {
			tagIDs := make([]uuid.UUID, 0, len(orig.Tags))
			for _, t := range orig.Tags {
				tagIDs = append(tagIDs, t.ID)
			}
			if err := s.tags.LinkToChunk(dbc, newID, tagIDs...); err != nil {
				return fmt.Errorf("copy tags: %w", err)
			}
		}
		second, err = s.mustGet(dbc, newID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Debug("Chunk split", "chunk_id", id, "new_chunk_id", second.ID, "position", position)
	return first, second, nil
}

// splitContent cuts content at a rune offset and trims both halves.
func splitContent(content string, position int) (string, string, error) {
	runes := []rune(content)
	if position <= 0 || position >= len(runes) {
		return "", "", fmt.Errorf("position %d outside (0, %d): %w", position, len(runes), perrors.ErrInvalidPosition)
	}
	head := strings.TrimSpace(string(runes[:position]))
	tail := strings.TrimSpace(string(runes[position:]))
	if head == "" || tail == "" {
		return "", "", perrors.ErrEmptySplit
	}
	return head, tail, nil
}

func (s *chunkService) Merge(ctx context.Context, aID, bID uuid.UUID) (*types.Chunk, error) {
	if aID == bID {
		return nil, fmt.Errorf("cannot merge a chunk with itself: %w", perrors.ErrInvalidArgument)
	}
	ctx = ctxutil.Default(ctx)
	var merged *types.Chunk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		a, err := s.mustGet(dbc, aID)
		if err != nil {
			return err
		}
		b, err := s.mustGet(dbc, bID)
		if err != nil {
			return err
		}
		if a.DocumentID != b.DocumentID {
			return perrors.ErrCrossDocumentMerge
		}

		content := a.Content + mergeSeparator + b.Content
		title := strings.TrimSuffix(a.Title, splitFirstSuffix)
		merged, err = s.chunks.Update(dbc, a.ID, types.ChunkUpdate{Title: &title, Content: &content})
		if err != nil {
			return fmt.Errorf("update merged chunk: %w", err)
		}
		if merged == nil {
			return fmt.Errorf("chunk %s: %w", aID, perrors.ErrNotFound)
		}
		if _, err := s.chunks.Delete(dbc, b.ID); err != nil {
			return fmt.Errorf("delete merged chunk: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Chunks merged", "chunk_id", aID, "removed_chunk_id", bID)
	return merged, nil
}

func (s *chunkService) AddTag(ctx context.Context, chunkID uuid.UUID, name string) (*types.Chunk, error) {
	if types.NormalizeTagName(name) == "" {
		return nil, fmt.Errorf("tag name is required: %w", perrors.ErrInvalidArgument)
	}
	ctx = ctxutil.Default(ctx)
	var out *types.Chunk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := s.mustGet(dbc, chunkID)
		if err != nil {
			return err
		}
		tag, _, err := s.tags.FindOrCreate(dbc, c.ProjectID, name)
		if err != nil {
			return fmt.Errorf("find or create tag: %w", err)
		}
		if err := s.tags.LinkToChunk(dbc, c.ID, tag.ID); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
		out, err = s.mustGet(dbc, chunkID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveTag unlinks tagID from the chunk. Removing a tag that is not linked
// is not an error.
func (s *chunkService) RemoveTag(ctx context.Context, chunkID, tagID uuid.UUID) (*types.Chunk, error) {
	ctx = ctxutil.Default(ctx)
	var out *types.Chunk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.mustGet(dbc, chunkID); err != nil {
			return err
		}
		if _, err := s.tags.UnlinkFromChunk(dbc, chunkID, tagID); err != nil {
			return fmt.Errorf("unlink tag: %w", err)
		}
		var err error
		out, err = s.mustGet(dbc, chunkID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
