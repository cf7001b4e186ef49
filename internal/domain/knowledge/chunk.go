package knowledge

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChunkStatusPendingReview = "pending_review"
	ChunkStatusApproved      = "approved"
	ChunkStatusRejected      = "rejected"
)

type Chunk struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project    *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"-"`

	Title      string `gorm:"column:title;size:500" json:"title"`
	Content    string `gorm:"column:content;type:text;not null" json:"content"`
	Summary    string `gorm:"column:summary;type:text" json:"summary"`
	Category   string `gorm:"column:category;index" json:"category"`
	TokenCount int    `gorm:"column:token_count" json:"token_count"`
	SortOrder  int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	Status     string `gorm:"column:status;not null;default:'pending_review';index" json:"status"`

	Tags []*Tag `gorm:"many2many:chunk_tag;joinForeignKey:ChunkID;joinReferences:TagID;constraint:OnDelete:CASCADE" json:"tags"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Chunk) TableName() string { return "chunk" }

func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ChunkStatusPendingReview
	}
	c.TokenCount = EstimateTokens(c.Content)
	return nil
}

// EstimateTokens approximates a token count as ceil(characters / 4).
func EstimateTokens(content string) int {
	n := utf8.RuneCountInString(content)
	return (n + 3) / 4
}

func IsValidChunkStatus(s string) bool {
	switch s {
	case ChunkStatusPendingReview, ChunkStatusApproved, ChunkStatusRejected:
		return true
	default:
		return false
	}
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type ReviewStats struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Pending  int64 `json:"pending"`
}

// ChunkFilter narrows a project chunk listing. Empty fields do not filter.
type ChunkFilter struct {
	Category string
	Status   string
	Search   string
	Tag      string
}

// ChunkUpdate carries the reviewer-editable fields. Nil fields are left untouched.
// The token estimate is not editable; it follows Content.
type ChunkUpdate struct {
	Title    *string
	Content  *string
	Summary  *string
	Category *string
	Status   *string
}

func (u ChunkUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.Summary == nil && u.Category == nil && u.Status == nil
}

type AdjacentChunks struct {
	Chunk *Chunk `json:"chunk"`
	Next  *Chunk `json:"next"`
}
