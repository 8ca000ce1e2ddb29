package services

import (
	"context"

	"docbase/internal/models"
)

// Interfaces are declared here, by the consumer. The repository and llm
// packages return concrete types; these describe exactly what the pipeline
// services need from them.

// Embedder maps text into the fixed-dimension vector space. Document and
// query modes are distinct operations because the embedding space may be
// asymmetric between indexed text and search text.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore persists documents and chunk vectors and searches them.
type VectorStore interface {
	UpsertDocument(ctx context.Context, filename string, fileType models.FileType, category, fingerprint string) (string, error)
	StoreChunks(ctx context.Context, documentID string, texts []string, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]models.SearchResult, error)
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)
	DeleteDocument(ctx context.Context, documentID string) error
}
