package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docbase/internal/api"
	"docbase/internal/config"
	"docbase/internal/db"
	"docbase/internal/llm"
	"docbase/internal/processor"
	"docbase/internal/repository"
	"docbase/internal/services"
	"docbase/internal/telemetry"
)

func main() {
	log.Println("starting docbase server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Tracing comes up first so everything below is traced.
	jaegerShutdown, err := telemetry.InitJaeger("docbase", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("failed to initialize tracing: %v (continuing without it)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("failed to shut down tracing: %v", err)
		}
	}()

	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	llmClient, err := llm.NewClient(llm.ClientConfig{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		EmbeddingModel:  cfg.EmbeddingModel,
		GenerationModel: cfg.GenerationModel,
		DocPrefix:       cfg.EmbeddingDocPrefix,
		QueryPrefix:     cfg.EmbeddingQueryPrefix,
	})
	if err != nil {
		log.Fatalf("failed to create model client: %v", err)
	}

	store := repository.NewVectorStore(database.DB)
	chunker := processor.NewChunker(
		processor.WithChunkSize(cfg.ChunkSize),
		processor.WithOverlap(cfg.ChunkOverlap),
	)

	ingestService := services.NewIngestService(chunker, llmClient, store)
	ragService := services.NewRAGService(llmClient, llmClient, store, cfg.TopK)

	handler := api.NewHandler(ingestService, ragService)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server forced to shut down: %v", err)
	}

	log.Println("server shutdown complete")
}
