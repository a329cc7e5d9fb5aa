// Package bootstrap assembles the application graph shared by the API
// and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/mpetrenko/rag-chatbot/internal/config"
	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
	"github.com/mpetrenko/rag-chatbot/internal/core/usecase"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/chunking"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/extractor"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/llm/ollama"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/queue/nats"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/repository/postgres"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/resilience"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/storage/localfs"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.QueryService
	AdminUC   ports.CollectionAdmin

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		MaxAttempts:         cfg.RetryMaxAttempts,
		BreakerEnabled:      !cfg.ResilienceBreakerOff,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: float64(cfg.BreakerFailureRatioPct) / 100.0,
		BreakerOpenFor:      time.Duration(cfg.BreakerOpenSeconds) * time.Second,
	})

	ollamaClient := ollama.New(
		cfg.OllamaURL,
		cfg.OllamaGenModel,
		cfg.OllamaEmbedModel,
		cfg.EmbeddingDimension,
		ollama.Options{
			EmbedRatePerSecond: cfg.EmbedRatePerSecond,
			ResilienceExecutor: executor,
		},
	)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDimension)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	texts := extractor.NewDispatcher(storage)

	// Only accept uploads the extractor can actually process.
	extractable := make(map[string]struct{})
	for _, t := range texts.SupportedTypes() {
		extractable[t] = struct{}{}
	}
	allowedTypes := make([]string, 0, len(cfg.AllowedFileTypes))
	for _, t := range cfg.AllowedFileTypes {
		if _, ok := extractable[t]; ok {
			allowedTypes = append(allowedTypes, t)
		}
	}

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, allowedTypes)
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, texts, chunker, embedder, vectorDB, cfg.EmbedConcurrency)
	queryUC := usecase.NewQueryUseCase(embedder, vectorDB, generator, cfg.RAGTopK)
	adminUC := usecase.NewCollectionAdminUseCase(vectorDB)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,
		AdminUC:   adminUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
