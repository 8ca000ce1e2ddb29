package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// FileType is the declared format of an uploaded document.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeText     FileType = "txt"
	FileTypeMarkdown FileType = "md"
	FileTypeDocx     FileType = "docx"
	FileTypeDoc      FileType = "doc"
)

// Document represents one ingested source file.
// Identity for re-ingestion purposes is the content fingerprint, not the
// filename: uploading byte-identical content again reuses the same row.
// KSUIDs are used for primary keys: time-ordered, index-friendly, and
// shorter than UUIDs (27 chars vs 36).
type Document struct {
	ID          string    `json:"id" gorm:"type:char(27);primaryKey"`
	Filename    string    `json:"filename" gorm:"type:varchar(255);not null"`
	FileType    FileType  `json:"file_type" gorm:"type:varchar(50);not null"`
	Category    string    `json:"category" gorm:"type:varchar(100)"`
	Fingerprint string    `json:"fingerprint" gorm:"type:char(64);uniqueIndex;not null"`
	UploadDate  time.Time `json:"upload_date" gorm:"column:upload_date;autoCreateTime"`
}

// BeforeCreate hook generates a KSUID before inserting.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}
