package services

import (
	"context"
	"fmt"

	"docbase/internal/middleware"
	"docbase/internal/models"
	"docbase/internal/processor"

	"go.opentelemetry.io/otel/attribute"
)

// IngestResult reports what one successful ingestion produced.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

// IngestService runs the ingestion pipeline: fingerprint, extract, chunk,
// embed, persist. One document per call; callers processing a batch catch
// per-document errors and continue with the rest.
type IngestService struct {
	chunker  *processor.Chunker
	embedder Embedder
	store    VectorStore
}

// NewIngestService creates the ingestion pipeline service.
func NewIngestService(chunker *processor.Chunker, embedder Embedder, store VectorStore) *IngestService {
	return &IngestService{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
	}
}

// Ingest processes one raw document. Extraction and embedding run before
// anything is written, so a failure in either leaves the store untouched.
// Byte-identical content reuses the existing document id and replaces its
// chunks instead of accumulating duplicates.
func (s *IngestService) Ingest(ctx context.Context, filename string, fileType models.FileType, category string, content []byte) (*IngestResult, error) {
	ctx, span := middleware.StartSpan(ctx, "Ingest.Document",
		attribute.String("filename", filename),
		attribute.String("file_type", string(fileType)),
	)
	defer span.End()

	fingerprint := processor.Fingerprint(content)

	text, err := processor.ExtractText(content, filename, fileType)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	chunks := s.chunker.Split(text)

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("embedding %s: %w", filename, err)
	}

	documentID, err := s.store.UpsertDocument(ctx, filename, fileType, category, fingerprint)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("storing document %s: %w", filename, err)
	}

	if err := s.store.StoreChunks(ctx, documentID, chunks, vectors); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("storing chunks of %s: %w", filename, err)
	}

	middleware.AddSpanEvent(ctx, "document_ingested",
		attribute.String("document_id", documentID),
		attribute.Int("chunk_count", len(chunks)),
	)

	return &IngestResult{
		DocumentID: documentID,
		Filename:   filename,
		ChunkCount: len(chunks),
	}, nil
}

// ListDocuments returns the stored documents with chunk counts, newest first.
func (s *IngestService) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	return s.store.ListDocuments(ctx)
}

// DeleteDocument removes a document and all of its chunks. Unknown ids are
// a no-op.
func (s *IngestService) DeleteDocument(ctx context.Context, documentID string) error {
	ctx, span := middleware.StartSpan(ctx, "Ingest.DeleteDocument",
		attribute.String("document_id", documentID),
	)
	defer span.End()

	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		middleware.AddSpanError(ctx, err)
		return err
	}
	return nil
}
