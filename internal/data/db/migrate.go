package db

import (
	"fmt"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.SetupJoinTable(&types.Chunk{}, "Tags", &types.ChunkTag{}); err != nil {
		return fmt.Errorf("setup chunk_tag join table: %w", err)
	}

	if err := db.AutoMigrate(
		&types.Project{},
		&types.Document{},
		&types.Chunk{},
		&types.Tag{},
		&types.ChunkTag{},
	); err != nil {
		return err
	}

	// Listing reads chunks per project ordered by category, then sort order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chunk_project_category_sort
		ON chunk (project_id, category, sort_order);
	`).Error; err != nil {
		return fmt.Errorf("create idx_chunk_project_category_sort: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chunk_document_sort
		ON chunk (document_id, sort_order);
	`).Error; err != nil {
		return fmt.Errorf("create idx_chunk_document_sort: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_project_status
		ON document (project_id, status, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_document_project_status: %w", err)
	}

	return nil
}
