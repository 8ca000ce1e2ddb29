package llm

import (
	"context"
	"fmt"

	"docbase/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingError wraps a downstream embedding-service failure. The pipeline
// does not retry; transient faults surface to the caller immediately.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service error: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// ClientConfig holds configuration for the model client.
type ClientConfig struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	GenerationModel string

	// Task prefixes for asymmetric embedding models. Models like
	// nomic-embed-text embed indexed text and search text differently and
	// expect a "search_document: " / "search_query: " prefix to select the
	// mode. OpenAI models ignore the distinction; leave both empty there.
	DocPrefix   string
	QueryPrefix string
}

// Client wraps an OpenAI-compatible API for embeddings and text generation.
type Client struct {
	api             *openai.Client
	embeddingModel  string
	generationModel string
	docPrefix       string
	queryPrefix     string
}

// NewClient creates a model client. BaseURL may point at any
// OpenAI-compatible endpoint; empty means the OpenAI default.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:             openai.NewClientWithConfig(apiCfg),
		embeddingModel:  cfg.EmbeddingModel,
		generationModel: cfg.GenerationModel,
		docPrefix:       cfg.DocPrefix,
		queryPrefix:     cfg.QueryPrefix,
	}, nil
}

// EmbedDocument embeds text for indexing.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{c.docPrefix + text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedQuery embeds a search query.
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{c.queryPrefix + query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds document chunks. The result is aligned with the input:
// the i-th vector embeds the i-th text.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = c.docPrefix + t
	}
	return c.embed(ctx, prefixed)
}

func (c *Client) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      inputs,
		Model:      openai.EmbeddingModel(c.embeddingModel),
		Dimensions: models.EmbeddingDim,
	})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(resp.Data) != len(inputs) {
		return nil, &EmbeddingError{Err: fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data))}
	}

	// The API reports each embedding's input position; order by it rather
	// than trusting response order.
	vectors := make([][]float32, len(inputs))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, &EmbeddingError{Err: fmt.Errorf("embedding index %d out of range", item.Index)}
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// Generate produces a completion for the prompt. One call per invocation,
// no streaming, no conversation state.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.generationModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}
