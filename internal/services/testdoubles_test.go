package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"docbase/internal/models"
	"docbase/internal/processor"
)

// fakeEmbedder maps text to a bag-of-words vector so that texts sharing
// words are measurably more similar. Deterministic and offline.
type fakeEmbedder struct {
	mu    sync.Mutex
	fail  error
	calls int
}

func (f *fakeEmbedder) vector(text string) []float32 {
	vec := make([]float32, models.EmbeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?\"'")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32())%models.EmbeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func (f *fakeEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return f.embedOne(text)
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return f.embedOne(query)
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = f.vector(t)
	}
	return vectors, nil
}

func (f *fakeEmbedder) embedOne(text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.vector(text), nil
}

// fakeGenerator records the prompt it was handed and returns a fixed answer.
type fakeGenerator struct {
	answer string
	prompt string
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.answer == "" {
		return "a grounded answer", nil
	}
	return f.answer, nil
}

// memStore is an in-memory VectorStore double with brute-force cosine
// search, mirroring the persistent store's semantics: fingerprint dedup,
// chunk replacement on re-ingestion, cascade delete, newest-first listing.
type memStore struct {
	mu      sync.Mutex
	nextID  int
	docs    []*memDoc
	byPrint map[string]*memDoc
}

type memDoc struct {
	id       string
	filename string
	fileType models.FileType
	category string
	texts    []string
	vectors  [][]float32
}

func newMemStore() *memStore {
	return &memStore{byPrint: make(map[string]*memDoc)}
}

func (m *memStore) UpsertDocument(ctx context.Context, filename string, fileType models.FileType, category, fingerprint string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.byPrint[fingerprint]; ok {
		doc.texts = nil
		doc.vectors = nil
		return doc.id, nil
	}

	m.nextID++
	doc := &memDoc{
		id:       fmt.Sprintf("doc-%03d", m.nextID),
		filename: filename,
		fileType: fileType,
		category: category,
	}
	m.docs = append(m.docs, doc)
	m.byPrint[fingerprint] = doc
	return doc.id, nil
}

func (m *memStore) StoreChunks(ctx context.Context, documentID string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return errors.New("texts and vectors length mismatch")
	}
	for _, vec := range vectors {
		if len(vec) != models.EmbeddingDim {
			return errors.New("vector dimension mismatch")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.id == documentID {
			doc.texts = append(doc.texts, texts...)
			doc.vectors = append(doc.vectors, vectors...)
			return nil
		}
	}
	return errors.New("unknown document id " + documentID)
}

func (m *memStore) Search(ctx context.Context, queryVector []float32, topK int) ([]models.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []models.SearchResult
	for _, doc := range m.docs {
		for i, vec := range doc.vectors {
			results = append(results, models.SearchResult{
				ChunkID:    fmt.Sprintf("%s:%d", doc.id, i),
				ChunkText:  doc.texts[i],
				Filename:   doc.filename,
				Category:   doc.category,
				Similarity: cosine(queryVector, vec),
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (m *memStore) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]models.DocumentInfo, 0, len(m.docs))
	// Newest first: docs are appended in upload order.
	for i := len(m.docs) - 1; i >= 0; i-- {
		doc := m.docs[i]
		infos = append(infos, models.DocumentInfo{
			ID:         doc.id,
			Filename:   doc.filename,
			FileType:   doc.fileType,
			Category:   doc.category,
			ChunkCount: len(doc.texts),
		})
	}
	return infos, nil
}

func (m *memStore) DeleteDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, doc := range m.docs {
		if doc.id == documentID {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			for fp, d := range m.byPrint {
				if d == doc {
					delete(m.byPrint, fp)
				}
			}
			return nil
		}
	}
	return nil // deleting a nonexistent id is a no-op
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func newTestIngestService(store VectorStore, embedder Embedder) *IngestService {
	chunker := processor.NewChunker()
	return NewIngestService(chunker, embedder, store)
}
