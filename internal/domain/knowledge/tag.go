package knowledge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tag_project_name" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"-"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_tag_project_name" json:"name"`

	ChunkCount int64 `gorm:"->;-:migration" json:"chunk_count,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Tag) TableName() string { return "tag" }

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Name = NormalizeTagName(t.Name)
	return nil
}

// ChunkTag is the chunk/tag join row. The composite key makes links unique.
type ChunkTag struct {
	ChunkID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (ChunkTag) TableName() string { return "chunk_tag" }

func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
