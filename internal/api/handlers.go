package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"docbase/internal/llm"
	"docbase/internal/models"
	"docbase/internal/processor"
	"docbase/internal/repository"
	"docbase/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxUploadBytes caps multipart form memory per request.
const maxUploadBytes = 32 << 20

// Handler handles HTTP requests. It depends on interfaces declared in this
// package so the services stay swappable in tests.
type Handler struct {
	ingest Ingestor
	rag    Querier
}

// NewHandler creates the API handler.
func NewHandler(ingest Ingestor, rag Querier) *Handler {
	return &Handler{
		ingest: ingest,
		rag:    rag,
	}
}

// UploadDocument ingests one multipart file with an optional category field.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	category := r.FormValue("category")
	if category == "" {
		category = "Uncategorized"
	}

	result, err := h.ingest.Ingest(r.Context(), header.Filename, fileTypeOf(header.Filename), category, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// BatchItemResult reports the outcome for one file of a batch upload.
type BatchItemResult struct {
	Filename string                 `json:"filename"`
	Result   *services.IngestResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// BatchUploadResponse is the per-file report for a batch ingestion.
type BatchUploadResponse struct {
	BatchID   string            `json:"batch_id"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Items     []BatchItemResult `json:"items"`
}

// UploadBatch ingests several files in one request. Each file is its own
// unit of work: a failing document is reported and the rest continue, so
// partial success is a normal outcome.
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	category := r.FormValue("category")
	if category == "" {
		category = "Uncategorized"
	}

	resp := BatchUploadResponse{
		BatchID: uuid.NewString(),
		Items:   make([]BatchItemResult, 0, len(files)),
	}

	for _, header := range files {
		item := BatchItemResult{Filename: header.Filename}

		content, err := readMultipartFile(header)
		if err != nil {
			item.Error = err.Error()
			resp.Failed++
			resp.Items = append(resp.Items, item)
			continue
		}

		result, err := h.ingest.Ingest(r.Context(), header.Filename, fileTypeOf(header.Filename), category, content)
		if err != nil {
			item.Error = err.Error()
			resp.Failed++
		} else {
			item.Result = result
			resp.Succeeded++
		}
		resp.Items = append(resp.Items, item)
	}

	status := http.StatusOK
	if resp.Succeeded == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// ListDocuments returns every stored document with its chunk count.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := h.ingest.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if documents == nil {
		documents = []models.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": documents})
}

// DeleteDocument removes a document and its chunks. Idempotent.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.ingest.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Query answers a question grounded on the stored documents.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	result, err := h.rag.Query(r.Context(), req.Question, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search returns raw similarity-search results for a question, without
// invoking the generative model.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	results, err := h.rag.Retrieve(r.Context(), req.Question, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// fileTypeOf derives the declared type tag from the filename extension.
// Unknown extensions pass through as-is and are rejected by the extractor,
// which knows the allowed enumeration.
func fileTypeOf(filename string) models.FileType {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return models.FileType(ext)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps pipeline error kinds onto HTTP statuses. The error text
// always names the document or operation involved; handlers never swallow
// failures silently.
func writeError(w http.ResponseWriter, err error) {
	var unsupported *processor.UnsupportedFileTypeError
	var extraction *processor.ExtractionError
	var dimension *repository.DimensionMismatchError
	var embedding *llm.EmbeddingError

	switch {
	case errors.As(err, &unsupported):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &extraction):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &dimension):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrDuplicateFingerprint):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &embedding):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
