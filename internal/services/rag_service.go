package services

import (
	"context"
	"fmt"
	"strings"

	"docbase/internal/middleware"
	"docbase/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// NoContextAnswer is returned when the store has nothing relevant to ground
// an answer on. The generative model is not invoked in that case.
const NoContextAnswer = "I couldn't find any relevant information in your knowledge base to answer this question."

// QueryResult is a grounded answer with the chunks it was grounded on.
type QueryResult struct {
	Answer  string                `json:"answer"`
	Sources []models.SearchResult `json:"sources"`
}

// RAGService answers questions over the stored documents: embed the
// question, retrieve the nearest chunks, compose a grounded prompt and
// generate a cited answer.
type RAGService struct {
	embedder  Embedder
	generator Generator
	store     VectorStore
	topK      int
}

// NewRAGService creates the query service. topK is the default number of
// chunks retrieved per question.
func NewRAGService(embedder Embedder, generator Generator, store VectorStore, topK int) *RAGService {
	return &RAGService{
		embedder:  embedder,
		generator: generator,
		store:     store,
		topK:      topK,
	}
}

// Query runs the full retrieval-and-generation flow for one question.
// topK <= 0 uses the service default.
func (s *RAGService) Query(ctx context.Context, question string, topK int) (*QueryResult, error) {
	ctx, span := middleware.StartSpan(ctx, "RAG.Query",
		attribute.Int("top_k", topK),
	)
	defer span.End()

	if topK <= 0 {
		topK = s.topK
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.Search(ctx, queryVector, topK)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	answer, err := s.ComposeAnswer(ctx, question, results)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	middleware.AddSpanEvent(ctx, "query_answered",
		attribute.Int("context_chunks", len(results)),
	)

	return &QueryResult{Answer: answer, Sources: results}, nil
}

// Retrieve embeds a question and returns the raw search results without
// generating an answer.
func (s *RAGService) Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error) {
	ctx, span := middleware.StartSpan(ctx, "RAG.Retrieve",
		attribute.Int("top_k", topK),
	)
	defer span.End()

	if topK <= 0 {
		topK = s.topK
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.Search(ctx, queryVector, topK)
}

// Search returns the topK most similar stored chunks for a query vector.
func (s *RAGService) Search(ctx context.Context, queryVector []float32, topK int) ([]models.SearchResult, error) {
	results, err := s.store.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return results, nil
}

// ComposeAnswer builds a grounded prompt from the retrieved chunks and
// invokes the model once. With no context it short-circuits to the fixed
// fallback without calling the model at all. The model's output is returned
// verbatim.
func (s *RAGService) ComposeAnswer(ctx context.Context, question string, contextChunks []models.SearchResult) (string, error) {
	if len(contextChunks) == 0 {
		return NoContextAnswer, nil
	}

	answer, err := s.generator.Generate(ctx, buildPrompt(question, contextChunks))
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return answer, nil
}

// buildPrompt assembles source-attributed context, the question and the
// grounding instructions: answer only from context, admit when the context
// is insufficient, cite filenames.
func buildPrompt(question string, contextChunks []models.SearchResult) string {
	contextParts := make([]string, 0, len(contextChunks))
	for _, chunk := range contextChunks {
		contextParts = append(contextParts, fmt.Sprintf("[Source: %s]\n%s", chunk.Filename, chunk.ChunkText))
	}

	return fmt.Sprintf(`You are a helpful assistant that answers questions based on the provided context from the user's personal knowledge base.

Context from documents:
%s

User Question: %s

Instructions:
- Answer the question using ONLY the information provided in the context above.
- If the context doesn't contain enough information to answer the question, say so clearly.
- Cite which sources you used (mention the filename) when providing information.
- Be concise but complete in your answer.

Answer:`, strings.Join(contextParts, "\n\n"), question)
}
