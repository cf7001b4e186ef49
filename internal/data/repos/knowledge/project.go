package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, project *types.Project) (*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	List(dbc dbctx.Context) ([]*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

const projectWithCounts = `project.*,
	(SELECT COUNT(*) FROM document d WHERE d.project_id = project.id) AS document_count,
	(SELECT COUNT(*) FROM chunk c WHERE c.project_id = project.id) AS chunk_count`

func (r *projectRepo) Create(dbc dbctx.Context, project *types.Project) (*types.Project, error) {
	if project == nil {
		return nil, nil
	}
	if project.Status == "" {
		project.Status = types.ProjectStatusActive
	}
	if err := dbc.Conn(r.db).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// GetByID returns nil, nil when the project does not exist.
func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Project
	if err := dbc.Conn(r.db).
		Model(&types.Project{}).
		Select(projectWithCounts).
		Where("project.id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *projectRepo) List(dbc dbctx.Context) ([]*types.Project, error) {
	var out []*types.Project
	if err := dbc.Conn(r.db).
		Model(&types.Project{}).
		Select(projectWithCounts).
		Order("project.created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.Conn(r.db).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the project with its documents, chunks, tags and links.
func (r *projectRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	var deleted bool
	err := dbc.InTx(r.db, func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM chunk_tag WHERE chunk_id IN (SELECT id FROM chunk WHERE project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM chunk_tag WHERE tag_id IN (SELECT id FROM tag WHERE project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&types.Chunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&types.Tag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&types.Document{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&types.Project{})
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
