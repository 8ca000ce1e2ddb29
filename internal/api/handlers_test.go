package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docbase/internal/models"
	"docbase/internal/processor"
	"docbase/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIngestor validates the declared type like the real pipeline and
// records what it was asked to ingest.
type fakeIngestor struct {
	ingested []string
	docs     []models.DocumentInfo
	deleted  []string
}

func (f *fakeIngestor) Ingest(ctx context.Context, filename string, fileType models.FileType, category string, content []byte) (*services.IngestResult, error) {
	switch fileType {
	case models.FileTypePDF, models.FileTypeText, models.FileTypeMarkdown, models.FileTypeDocx, models.FileTypeDoc:
	default:
		return nil, &processor.UnsupportedFileTypeError{FileType: string(fileType)}
	}
	f.ingested = append(f.ingested, filename)
	return &services.IngestResult{DocumentID: "doc-001", Filename: filename, ChunkCount: 3}, nil
}

func (f *fakeIngestor) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	return f.docs, nil
}

func (f *fakeIngestor) DeleteDocument(ctx context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type fakeQuerier struct {
	result  *services.QueryResult
	results []models.SearchResult
}

func (f *fakeQuerier) Query(ctx context.Context, question string, topK int) (*services.QueryResult, error) {
	return f.result, nil
}

func (f *fakeQuerier) Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error) {
	return f.results, nil
}

func multipartBody(t *testing.T, field string, files map[string]string, category string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if category != "" {
		require.NoError(t, w.WriteField("category", category))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	ingestor := &fakeIngestor{}
	router := SetupRoutes(NewHandler(ingestor, &fakeQuerier{}))

	body, contentType := multipartBody(t, "file", map[string]string{"notes.txt": "The sky is blue."}, "Nature")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result services.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "notes.txt", result.Filename)
	assert.Equal(t, 3, result.ChunkCount)
	assert.Equal(t, []string{"notes.txt"}, ingestor.ingested)
}

func TestUploadDocumentUnsupportedType(t *testing.T) {
	ingestor := &fakeIngestor{}
	router := SetupRoutes(NewHandler(ingestor, &fakeQuerier{}))

	body, contentType := multipartBody(t, "file", map[string]string{"payload.exe": "MZ"}, "")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exe")
	assert.Empty(t, ingestor.ingested)
}

func TestUploadDocumentMissingFile(t *testing.T) {
	router := SetupRoutes(NewHandler(&fakeIngestor{}, &fakeQuerier{}))

	body, contentType := multipartBody(t, "file", nil, "Nature")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadBatchPartialSuccess(t *testing.T) {
	ingestor := &fakeIngestor{}
	router := SetupRoutes(NewHandler(ingestor, &fakeQuerier{}))

	body, contentType := multipartBody(t, "files", map[string]string{
		"good.txt": "some text",
		"bad.exe":  "MZ",
	}, "Mixed")
	req := httptest.NewRequest(http.MethodPost, "/api/documents/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "partial success is a normal outcome, not a failure")
	var resp BatchUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Items, 2)

	for _, item := range resp.Items {
		if item.Filename == "bad.exe" {
			assert.Contains(t, item.Error, "exe", "the per-file error must name the cause")
			assert.Nil(t, item.Result)
		} else {
			assert.Empty(t, item.Error)
			require.NotNil(t, item.Result)
		}
	}
}

func TestUploadBatchAllFailed(t *testing.T) {
	router := SetupRoutes(NewHandler(&fakeIngestor{}, &fakeQuerier{}))

	body, contentType := multipartBody(t, "files", map[string]string{"a.exe": "MZ"}, "")
	req := httptest.NewRequest(http.MethodPost, "/api/documents/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListDocuments(t *testing.T) {
	ingestor := &fakeIngestor{docs: []models.DocumentInfo{
		{ID: "doc-002", Filename: "new.txt", ChunkCount: 2},
		{ID: "doc-001", Filename: "old.txt", ChunkCount: 5},
	}}
	router := SetupRoutes(NewHandler(ingestor, &fakeQuerier{}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Documents []models.DocumentInfo `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "new.txt", resp.Documents[0].Filename)
}

func TestDeleteDocument(t *testing.T) {
	ingestor := &fakeIngestor{}
	router := SetupRoutes(NewHandler(ingestor, &fakeQuerier{}))

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"doc-001"}, ingestor.deleted)
}

func TestQuery(t *testing.T) {
	querier := &fakeQuerier{result: &services.QueryResult{
		Answer: "The sky is blue. [sky.txt]",
		Sources: []models.SearchResult{
			{ChunkText: "The sky is blue.", Filename: "sky.txt", Similarity: 0.91},
		},
	}}
	router := SetupRoutes(NewHandler(&fakeIngestor{}, querier))

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"question":"What color is the sky?","top_k":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result services.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "The sky is blue. [sky.txt]", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "sky.txt", result.Sources[0].Filename)
}

func TestQueryRequiresQuestion(t *testing.T) {
	router := SetupRoutes(NewHandler(&fakeIngestor{}, &fakeQuerier{}))

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question":"  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEmptyStore(t *testing.T) {
	router := SetupRoutes(NewHandler(&fakeIngestor{}, &fakeQuerier{}))

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"question":"anything"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []models.SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestHealth(t *testing.T) {
	router := SetupRoutes(NewHandler(&fakeIngestor{}, &fakeQuerier{}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
