package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quizmentor/rag/internal/config"
	"github.com/quizmentor/rag/internal/embedder"
	"github.com/quizmentor/rag/internal/evaluator"
	"github.com/quizmentor/rag/internal/generator"
	"github.com/quizmentor/rag/internal/llm"
	"github.com/quizmentor/rag/internal/pipeline"
	"github.com/quizmentor/rag/internal/repository"
	"github.com/quizmentor/rag/internal/repository/postgres"
	"github.com/quizmentor/rag/internal/reranker"
	"github.com/quizmentor/rag/internal/retriever"
	"github.com/quizmentor/rag/internal/server"
	"github.com/quizmentor/rag/internal/service"
	"github.com/quizmentor/rag/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting RAG query service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
	)

	// Initialize PostgreSQL (optional; skipped when no DATABASE_URL)
	var evalRepo repository.EvaluationRepository
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		evalRepo = postgres.NewEvaluationRepo(db)
		slog.Info("connected to PostgreSQL, evaluation history enabled")
	} else {
		slog.Info("no DATABASE_URL configured, evaluation history disabled")
	}

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer vectorStore.Close()
	slog.Info("connected to Qdrant", "collection", cfg.QdrantCollection)

	// Initialize Ollama embedder
	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})
	embedder.SetDefault(embed)
	slog.Info("initialized Ollama embedder", "model", cfg.OllamaEmbeddingModel)

	if err := vectorStore.EnsureCollection(ctx, embed.Dimension()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	// Initialize Ollama LLM
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	slog.Info("initialized Ollama LLM", "model", cfg.OllamaLLMModel)

	// Wire the pipeline stages
	ret := retriever.NewVectorRetriever(embed, vectorStore)
	rerank := reranker.NewLLMReranker(llmClient, reranker.WithModel(cfg.OllamaLLMModel))
	gen := generator.NewResponseGenerator(llmClient, generator.WithModel(cfg.OllamaLLMModel))
	pipe := pipeline.New(ret, ret, rerank, gen)

	evalSvc := evaluator.NewService()

	querySvcOpts := []service.QueryServiceOption{
		service.WithDefaultTopK(cfg.DefaultTopK),
		service.WithDefaultStrategy(cfg.DefaultRerankStrategy),
	}
	if evalRepo != nil {
		querySvcOpts = append(querySvcOpts, service.WithEvaluationRepository(evalRepo))
	}
	querySvc := service.NewQueryService(pipe, evalSvc, querySvcOpts...)

	// Create HTTP server
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
	}, querySvc)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// Ensure interfaces are satisfied at compile time
var (
	_ repository.EvaluationRepository = (*postgres.EvaluationRepo)(nil)
	_ vectorstore.VectorStore         = (*vectorstore.QdrantStore)(nil)
	_ embedder.Embedder               = (*embedder.OllamaEmbedder)(nil)
	_ llm.LLM                         = (*llm.OllamaClient)(nil)
	_ reranker.Reranker               = (*reranker.LLMReranker)(nil)
	_ pipeline.Embedder               = (*retriever.VectorRetriever)(nil)
	_ pipeline.VectorSearcher         = (*retriever.VectorRetriever)(nil)
	_ pipeline.Generator              = (*generator.ResponseGenerator)(nil)
)
