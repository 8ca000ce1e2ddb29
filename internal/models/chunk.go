package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// EmbeddingDim is the fixed dimension of every stored vector.
// Matched to the default text-embedding output size; every embedding
// produced or stored must have exactly this many components.
const EmbeddingDim = 768

// Chunk is one retrievable text segment of a document, with its embedding.
// Chunks are owned exclusively by a document and cascade away with it.
type Chunk struct {
	ID            string          `json:"id" gorm:"type:char(27);primaryKey"`
	DocumentID    string          `json:"document_id" gorm:"type:char(27);not null;index"`
	SequenceIndex int             `json:"sequence_index" gorm:"not null"`
	ChunkText     string          `json:"chunk_text" gorm:"type:text;not null"`
	Embedding     pgvector.Vector `json:"embedding" gorm:"type:vector(768);not null"`

	Document Document `json:"-" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook generates a KSUID before inserting.
func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// SearchResult is a retrieved chunk annotated with its similarity to the
// query vector and the owning document's metadata. Transient, never persisted.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	ChunkText  string  `json:"chunk_text"`
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

// DocumentInfo is one row of the document listing, with the owned chunk
// count computed at query time.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   FileType  `json:"file_type"`
	Category   string    `json:"category"`
	UploadDate time.Time `json:"upload_date"`
	ChunkCount int       `json:"chunk_count"`
}
