package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusExtracting = "extracting"
	DocumentStatusExtracted  = "extracted"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusError      = "error"
)

// Document is an uploaded file and its extracted text. Only extraction and the
// processing run move it through its status lifecycle.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"-"`

	OriginalFilename string  `gorm:"column:original_filename;not null" json:"original_filename"`
	FileType         string  `gorm:"column:file_type;not null" json:"file_type"`
	StorageKey       string  `gorm:"column:storage_key;not null" json:"storage_key"`
	SizeBytes        int64   `gorm:"column:size_bytes" json:"size_bytes"`
	RawText          *string `gorm:"column:raw_text;type:text" json:"raw_text,omitempty"`
	Status           string  `gorm:"column:status;not null;default:'uploaded';index" json:"status"`
	ErrorMessage     *string `gorm:"column:error_message;type:text" json:"error_message"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = DocumentStatusUploaded
	}
	if len(d.Metadata) == 0 {
		d.Metadata = datatypes.JSON([]byte("{}"))
	}
	return nil
}

var documentTransitions = map[string][]string{
	DocumentStatusUploaded:   {DocumentStatusExtracting},
	DocumentStatusExtracting: {DocumentStatusExtracted, DocumentStatusError},
	DocumentStatusExtracted:  {DocumentStatusProcessing},
	DocumentStatusProcessing: {DocumentStatusProcessed, DocumentStatusError},
}

// CanTransitionDocument reports whether a document may move from one status to another.
// error and processed are terminal.
func CanTransitionDocument(from, to string) bool {
	for _, next := range documentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DocumentSourcesFor lists every status that may legally transition into to.
func DocumentSourcesFor(to string) []string {
	var out []string
	for _, from := range []string{
		DocumentStatusUploaded,
		DocumentStatusExtracting,
		DocumentStatusExtracted,
		DocumentStatusProcessing,
	} {
		if CanTransitionDocument(from, to) {
			out = append(out, from)
		}
	}
	return out
}
