package knowledge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type ChunkRepo interface {
	Create(dbc dbctx.Context, chunks []*types.Chunk) ([]*types.Chunk, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Chunk, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, filter types.ChunkFilter) ([]*types.Chunk, error)
	ListByDocument(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Chunk, error)
	Update(dbc dbctx.Context, id uuid.UUID, update types.ChunkUpdate) (*types.Chunk, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	BulkUpdateStatus(dbc dbctx.Context, ids []uuid.UUID, status string) (int64, error)
	BulkUpdateByCategory(dbc dbctx.Context, projectID uuid.UUID, category string, status string) (int64, error)
	DeleteByStatus(dbc dbctx.Context, projectID uuid.UUID, status string) (int64, error)
	CategoriesWithCounts(dbc dbctx.Context, projectID uuid.UUID) ([]types.CategoryCount, error)
	ReviewStats(dbc dbctx.Context, projectID uuid.UUID) (types.ReviewStats, error)
	FindAdjacent(dbc dbctx.Context, id uuid.UUID) (*types.AdjacentChunks, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}

// Create inserts chunks in the given order. Token estimates come from content.
func (r *chunkRepo) Create(dbc dbctx.Context, chunks []*types.Chunk) ([]*types.Chunk, error) {
	if len(chunks) == 0 {
		return []*types.Chunk{}, nil
	}
	const batchSize = 100
	if err := dbc.Conn(r.db).
		Omit("Tags").
		CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetByID returns the chunk with its tags, or nil, nil when it does not exist.
func (r *chunkRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Chunk, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Chunk
	if err := dbc.Conn(r.db).
		Preload("Tags", preloadTags).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ListByProject returns the project's chunks ordered by category, then sort order.
func (r *chunkRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, filter types.ChunkFilter) ([]*types.Chunk, error) {
	var out []*types.Chunk
	if projectID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).
		Preload("Tags", preloadTags).
		Where("chunk.project_id = ?", projectID)

	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where("chunk.category = ?", c)
	}
	if s := strings.TrimSpace(filter.Status); s != "" {
		q = q.Where("chunk.status = ?", s)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(
			`(LOWER(chunk.title) LIKE ? ESCAPE '\' OR LOWER(chunk.content) LIKE ? ESCAPE '\' OR LOWER(chunk.summary) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}
	if t := types.NormalizeTagName(filter.Tag); t != "" {
		q = q.Where(`EXISTS (
			SELECT 1 FROM chunk_tag ct
			JOIN tag t ON t.id = ct.tag_id
			WHERE ct.chunk_id = chunk.id AND t.name = ?
		)`, t)
	}

	if err := q.
		Order("chunk.category ASC").
		Order("chunk.sort_order ASC").
		Order("chunk.created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) ListByDocument(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Chunk, error) {
	var out []*types.Chunk
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Preload("Tags", preloadTags).
		Where("document_id = ?", documentID).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields and returns the updated chunk, or nil, nil when
// the chunk does not exist. A content change recomputes the token estimate.
func (r *chunkRepo) Update(dbc dbctx.Context, id uuid.UUID, update types.ChunkUpdate) (*types.Chunk, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out *types.Chunk
	err := dbc.InTx(r.db, func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		if update.Title != nil {
			updates["title"] = *update.Title
		}
		if update.Content != nil {
			updates["content"] = *update.Content
			updates["token_count"] = types.EstimateTokens(*update.Content)
		}
		if update.Summary != nil {
			updates["summary"] = *update.Summary
		}
		if update.Category != nil {
			updates["category"] = *update.Category
		}
		if update.Status != nil {
			updates["status"] = *update.Status
		}
		res := tx.Model(&types.Chunk{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		var rows []*types.Chunk
		if err := tx.Preload("Tags", preloadTags).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			out = rows[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	var deleted bool
	err := dbc.InTx(r.db, func(tx *gorm.DB) error {
		if err := tx.Where("chunk_id = ?", id).Delete(&types.ChunkTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&types.Chunk{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *chunkRepo) BulkUpdateStatus(dbc dbctx.Context, ids []uuid.UUID, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Model(&types.Chunk{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *chunkRepo) BulkUpdateByCategory(dbc dbctx.Context, projectID uuid.UUID, category string, status string) (int64, error) {
	if projectID == uuid.Nil {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Model(&types.Chunk{}).
		Where("project_id = ? AND category = ?", projectID, category).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// DeleteByStatus removes every chunk of the project in the given status and
// returns how many were removed.
func (r *chunkRepo) DeleteByStatus(dbc dbctx.Context, projectID uuid.UUID, status string) (int64, error) {
	if projectID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := dbc.InTx(r.db, func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM chunk_tag WHERE chunk_id IN (SELECT id FROM chunk WHERE project_id = ? AND status = ?)`,
			projectID, status,
		).Error; err != nil {
			return err
		}
		res := tx.Where("project_id = ? AND status = ?", projectID, status).Delete(&types.Chunk{})
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *chunkRepo) CategoriesWithCounts(dbc dbctx.Context, projectID uuid.UUID) ([]types.CategoryCount, error) {
	out := []types.CategoryCount{}
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Model(&types.Chunk{}).
		Select("category, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Group("category").
		Order("category ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) ReviewStats(dbc dbctx.Context, projectID uuid.UUID) (types.ReviewStats, error) {
	var stats types.ReviewStats
	if projectID == uuid.Nil {
		return stats, nil
	}
	err := dbc.Conn(r.db).
		Model(&types.Chunk{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS approved,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS rejected,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending`,
			types.ChunkStatusApproved, types.ChunkStatusRejected, types.ChunkStatusPendingReview).
		Where("project_id = ?", projectID).
		Scan(&stats).Error
	return stats, err
}

// FindAdjacent returns the chunk and the next chunk of the same document by sort
// order, or nil, nil when the chunk does not exist. Next is nil for the last chunk.
func (r *chunkRepo) FindAdjacent(dbc dbctx.Context, id uuid.UUID) (*types.AdjacentChunks, error) {
	chunk, err := r.GetByID(dbc, id)
	if err != nil || chunk == nil {
		return nil, err
	}
	var next []*types.Chunk
	if err := dbc.Conn(r.db).
		Preload("Tags", preloadTags).
		Where("document_id = ? AND sort_order > ?", chunk.DocumentID, chunk.SortOrder).
		Order("sort_order ASC").
		Order("created_at ASC").
		Limit(1).
		Find(&next).Error; err != nil {
		return nil, err
	}
	out := &types.AdjacentChunks{Chunk: chunk}
	if len(next) > 0 {
		out.Next = next[0]
	}
	return out, nil
}
