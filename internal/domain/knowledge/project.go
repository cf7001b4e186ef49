package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description *string   `gorm:"column:description;type:text" json:"description"`
	Status      string    `gorm:"column:status;not null;default:'active'" json:"status"`

	// Filled by list/get queries, not stored.
	DocumentCount int64 `gorm:"->;-:migration" json:"document_count"`
	ChunkCount    int64 `gorm:"->;-:migration" json:"chunk_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func IsValidProjectStatus(s string) bool {
	return s == ProjectStatusActive || s == ProjectStatusArchived
}
