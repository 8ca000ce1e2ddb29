package repository

import (
	"context"
	"errors"
	"fmt"

	"docbase/internal/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// VectorStore persists documents and their chunk embeddings in Postgres and
// performs nearest-neighbor search via pgvector.
type VectorStore struct {
	db *gorm.DB
}

// NewVectorStore creates a vector store on the given database handle.
// Returns a concrete type: "accept interfaces, return structs".
func NewVectorStore(db *gorm.DB) *VectorStore {
	return &VectorStore{db: db}
}

// UpsertDocument resolves a fingerprint to a document id. If a document with
// the fingerprint exists, its id is reused and all of its chunks are deleted
// so the caller can store fresh ones; otherwise a new row is inserted. The
// lookup and write run in one transaction. A concurrent insert of the same
// never-before-seen fingerprint loses to the uniqueness constraint and
// surfaces as ErrDuplicateFingerprint.
func (s *VectorStore) UpsertDocument(ctx context.Context, filename string, fileType models.FileType, category, fingerprint string) (string, error) {
	var documentID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Document
		err := tx.Where("fingerprint = ?", fingerprint).First(&existing).Error
		switch {
		case err == nil:
			// Re-ingestion: reuse the identity, clear stale content.
			if err := tx.Where("document_id = ?", existing.ID).Delete(&models.Chunk{}).Error; err != nil {
				return fmt.Errorf("failed to delete stale chunks: %w", err)
			}
			documentID = existing.ID
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			doc := models.Document{
				Filename:    filename,
				FileType:    fileType,
				Category:    category,
				Fingerprint: fingerprint,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return fmt.Errorf("failed to insert document: %w", err)
			}
			documentID = doc.ID
			return nil

		default:
			return fmt.Errorf("failed to look up fingerprint: %w", err)
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("%w (fingerprint %s)", ErrDuplicateFingerprint, fingerprint)
		}
		return "", &StoreError{Op: "upsert document", Err: err}
	}
	return documentID, nil
}

// StoreChunks persists texts and their embeddings as chunks of documentID.
// Texts and vectors must be aligned by position. The batch is atomic: on any
// failure the transaction rolls back and no chunk from this call remains.
func (s *VectorStore) StoreChunks(ctx context.Context, documentID string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return &StoreError{
			Op:  "store chunks",
			Err: fmt.Errorf("got %d texts but %d vectors", len(texts), len(vectors)),
		}
	}
	if len(texts) == 0 {
		return nil
	}
	for i, vec := range vectors {
		if len(vec) != models.EmbeddingDim {
			return &DimensionMismatchError{Index: i, Got: len(vec)}
		}
	}

	chunks := make([]models.Chunk, len(texts))
	for i := range texts {
		chunks[i] = models.Chunk{
			DocumentID:    documentID,
			SequenceIndex: i,
			ChunkText:     texts[i],
			Embedding:     pgvector.NewVector(vectors[i]),
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&chunks).Error
	})
	if err != nil {
		return &StoreError{Op: "store chunks", Err: err}
	}
	return nil
}

// Search returns the topK stored chunks most similar to queryVector under
// cosine similarity, highest first, each annotated with its document's
// filename and category. An empty store yields an empty slice.
func (s *VectorStore) Search(ctx context.Context, queryVector []float32, topK int) ([]models.SearchResult, error) {
	if len(queryVector) != models.EmbeddingDim {
		return nil, &DimensionMismatchError{Got: len(queryVector)}
	}
	if topK <= 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(queryVector)

	var results []models.SearchResult
	// The <=> operator is pgvector's cosine distance; similarity = 1 - distance.
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			c.id AS chunk_id,
			c.chunk_text,
			d.filename,
			d.category,
			1 - (c.embedding <=> ?) AS similarity
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY c.embedding <=> ?
		LIMIT ?
	`, vec, vec, topK).Scan(&results).Error
	if err != nil {
		return nil, &StoreError{Op: "similarity search", Err: err}
	}
	return results, nil
}

// ListDocuments returns every document with its chunk count, most recently
// uploaded first.
func (s *VectorStore) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	var infos []models.DocumentInfo

	err := s.db.WithContext(ctx).Raw(`
		SELECT
			d.id,
			d.filename,
			d.file_type,
			d.category,
			d.upload_date,
			COUNT(c.id) AS chunk_count
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.upload_date DESC
	`).Scan(&infos).Error
	if err != nil {
		return nil, &StoreError{Op: "list documents", Err: err}
	}
	return infos, nil
}

// DeleteDocument destroys a document; its chunks cascade away in the same
// transaction via the foreign key. Deleting an unknown id is a no-op.
func (s *VectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	err := s.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", documentID).Error
	if err != nil {
		return &StoreError{Op: "delete document", Err: err}
	}
	return nil
}
