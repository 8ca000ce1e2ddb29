package api

import (
	"docbase/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes builds the HTTP router. Middleware order: tracing first so
// every request gets a span and request id, then panic recovery, then CORS.
func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/documents", h.UploadDocument).Methods("POST")
	api.HandleFunc("/documents/batch", h.UploadBatch).Methods("POST")
	api.HandleFunc("/documents", h.ListDocuments).Methods("GET")
	api.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")

	api.HandleFunc("/query", h.Query).Methods("POST")
	api.HandleFunc("/search", h.Search).Methods("POST")

	api.HandleFunc("/health", h.Health).Methods("GET")

	return r
}
