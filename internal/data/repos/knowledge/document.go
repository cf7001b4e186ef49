package knowledge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error)
	ListByProjectAndStatus(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.Document, error)
	TransitionStatus(dbc dbctx.Context, id uuid.UUID, to string, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error) {
	if len(docs) == 0 {
		return []*types.Document{}, nil
	}
	if err := dbc.Conn(r.db).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// GetByID returns nil, nil when the document does not exist.
func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var doc types.Document
	if err := dbc.Conn(r.db).
		Where("id = ?", id).
		Limit(1).
		Find(&doc).Error; err != nil {
		return nil, err
	}
	if doc.ID == uuid.Nil {
		return nil, nil
	}
	return &doc, nil
}

// ListByProject returns documents newest first, without their raw text.
func (r *documentRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	var out []*types.Document
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Omit("raw_text").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListByProjectAndStatus(dbc dbctx.Context, projectID uuid.UUID, status string) ([]*types.Document, error) {
	var out []*types.Document
	if projectID == uuid.Nil || status == "" {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("project_id = ? AND status = ?", projectID, status).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionStatus moves a document to status to, applying updates in the same
// statement. The update only matches rows whose current status may legally move
// to the target, so a concurrent writer cannot skip a lifecycle step.
func (r *documentRepo) TransitionStatus(dbc dbctx.Context, id uuid.UUID, to string, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return perrors.ErrNotFound
	}
	from := types.DocumentSourcesFor(to)
	if len(from) == 0 {
		return fmt.Errorf("document status %q: %w", to, perrors.ErrInvalidTransition)
	}
	fields := map[string]interface{}{}
	for k, v := range updates {
		fields[k] = v
	}
	fields["status"] = to
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}

	db := dbc.Conn(r.db)
	res := db.Model(&types.Document{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current types.Document
	if err := db.Select("id", "status").Where("id = ?", id).Limit(1).Find(&current).Error; err != nil {
		return err
	}
	if current.ID == uuid.Nil {
		return fmt.Errorf("document %s: %w", id, perrors.ErrNotFound)
	}
	return fmt.Errorf("document %s %s -> %s: %w", id, current.Status, to, perrors.ErrInvalidTransition)
}

// Delete removes the document together with its chunks and their tag links.
func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	var deleted bool
	err := dbc.InTx(r.db, func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM chunk_tag WHERE chunk_id IN (SELECT id FROM chunk WHERE document_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&types.Chunk{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&types.Document{})
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
