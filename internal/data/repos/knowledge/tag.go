package knowledge

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type TagRepo interface {
	FindOrCreate(dbc dbctx.Context, projectID uuid.UUID, name string) (*types.Tag, bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Tag, error)
	LinkToChunk(dbc dbctx.Context, chunkID uuid.UUID, tagIDs ...uuid.UUID) error
	UnlinkFromChunk(dbc dbctx.Context, chunkID uuid.UUID, tagID uuid.UUID) (bool, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

// FindOrCreate returns the project's tag with the normalized name, creating it when
// missing. The bool reports whether this call created it.
func (r *tagRepo) FindOrCreate(dbc dbctx.Context, projectID uuid.UUID, name string) (*types.Tag, bool, error) {
	name = types.NormalizeTagName(name)
	if projectID == uuid.Nil || name == "" {
		return nil, false, nil
	}
	db := dbc.Conn(r.db)

	tag := &types.Tag{ProjectID: projectID, Name: name}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(tag)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return tag, true, nil
	}

	var existing types.Tag
	if err := db.Where("project_id = ? AND name = ?", projectID, name).Limit(1).Find(&existing).Error; err != nil {
		return nil, false, err
	}
	if existing.ID == uuid.Nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return &existing, false, nil
}

func (r *tagRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var tag types.Tag
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&tag).Error; err != nil {
		return nil, err
	}
	if tag.ID == uuid.Nil {
		return nil, nil
	}
	return &tag, nil
}

// ListByProject returns the project's tags ordered by name with their chunk counts.
func (r *tagRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Tag, error) {
	var out []*types.Tag
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Model(&types.Tag{}).
		Select(`tag.*, (SELECT COUNT(*) FROM chunk_tag ct WHERE ct.tag_id = tag.id) AS chunk_count`).
		Where("tag.project_id = ?", projectID).
		Order("tag.name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LinkToChunk links tags to a chunk. Existing links are left as they are.
func (r *tagRepo) LinkToChunk(dbc dbctx.Context, chunkID uuid.UUID, tagIDs ...uuid.UUID) error {
	if chunkID == uuid.Nil || len(tagIDs) == 0 {
		return nil
	}
	seen := map[uuid.UUID]bool{}
	links := make([]types.ChunkTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, types.ChunkTag{ChunkID: chunkID, TagID: id})
	}
	if len(links) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

func (r *tagRepo) UnlinkFromChunk(dbc dbctx.Context, chunkID uuid.UUID, tagID uuid.UUID) (bool, error) {
	if chunkID == uuid.Nil || tagID == uuid.Nil {
		return false, nil
	}
	res := dbc.Conn(r.db).
		Where("chunk_id = ? AND tag_id = ?", chunkID, tagID).
		Delete(&types.ChunkTag{})
	return res.RowsAffected > 0, res.Error
}
