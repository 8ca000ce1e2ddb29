package api

import (
	"context"

	"docbase/internal/models"
	"docbase/internal/services"
)

// Consumer-driven interfaces: the handlers declare what they need from the
// service layer, the services return concrete types.

// Ingestor runs the ingestion side of the pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, filename string, fileType models.FileType, category string, content []byte) (*services.IngestResult, error)
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// Querier answers questions and retrieves raw search results.
type Querier interface {
	Query(ctx context.Context, question string, topK int) (*services.QueryResult, error)
	Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error)
}
