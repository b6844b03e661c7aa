package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"semnotes/internal/auth"
	"semnotes/internal/config"
	"semnotes/internal/embedding"
	"semnotes/internal/http"
	"semnotes/internal/kvstore"
	"semnotes/internal/mirror"
	"semnotes/internal/notes"
	"semnotes/internal/search"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Open the key-value store (system of record)
	kv, err := kvstore.New(cfg.KVDBPath)
	if err != nil {
		log.Fatalf("Failed to open key-value store: %v", err)
	}
	defer func() {
		_ = kv.Close()
	}()
	if err := kv.Migrate(); err != nil {
		log.Fatalf("Failed to migrate key-value store: %v", err)
	}
	slog.Info("Key-value store initialized", "path", cfg.KVDBPath)

	// Open the relational mirror (retrieval projection)
	mirrorDB, err := mirror.New(cfg.MirrorDBPath)
	if err != nil {
		log.Fatalf("Failed to open mirror: %v", err)
	}
	defer func() {
		_ = mirrorDB.Close()
	}()
	if err := mirrorDB.Migrate(); err != nil {
		log.Fatalf("Failed to migrate mirror: %v", err)
	}
	slog.Info("Mirror initialized", "path", cfg.MirrorDBPath)

	// Create embedding provider
	embedder := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDims)
	slog.Info("Embedding provider configured", "model", cfg.EmbeddingModel, "dims", cfg.EmbeddingDims)

	// Create domain services
	notesService := notes.NewService(kv, mirrorDB, embedder)
	searchEngine := search.NewEngine(embedder, mirrorDB, notesService)
	verifier := auth.NewStaticVerifier(cfg.AuthTokens)

	// Create router with dependencies
	deps := &http.Deps{
		NotesService:   notesService,
		SearchEngine:   searchEngine,
		Verifier:       verifier,
		KVStore:        kv,
		Mirror:         mirrorDB,
		RequestTimeout: cfg.RequestTimeout,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
