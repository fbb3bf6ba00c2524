package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmfedotov/legal-doc-assistant/internal/config"
	"github.com/dmfedotov/legal-doc-assistant/internal/core/ports"
	"github.com/dmfedotov/legal-doc-assistant/internal/core/usecase"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/chunking"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/embedding/ollama"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/extractor"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/extractor/pdfx"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/llm/groq"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/queue/nats"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/repository/postgres"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/resilience"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/storage/localfs"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/vector/memory"
	"github.com/dmfedotov/legal-doc-assistant/internal/infrastructure/vector/pinecone"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	History   ports.ChatHistoryRepository
	Storage   ports.ObjectStorage
	AI        ports.AIService
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	history := postgres.NewChatHistoryRepository(db)
	if err := history.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure chat history schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder := ollama.New(cfg.EmbedURL, cfg.EmbedModel, cfg.EmbeddingDim)
	if err := embedder.Check(ctx); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("embedding service check: %w", err)
	}

	// Missing credentials leave the handles nil; the AI service answers in
	// degraded mode instead of failing startup.
	var model ports.ChatModel
	if cfg.GroqAPIKey != "" {
		model = groq.New(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
	} else {
		slog.Warn("GROQ_API_KEY is not set, generative model disabled")
	}

	index := buildVectorIndex(ctx, cfg)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	ai := usecase.NewAIService(chunker, embedder, index, model, usecase.AIServiceOptions{
		TopK:             cfg.RAGTopK,
		MinScore:         cfg.RAGMinScore,
		MaxSources:       cfg.RAGMaxSources,
		MinContextChars:  cfg.RAGMinContext,
		AnalysisMaxChars: cfg.AnalysisMaxLen,
		ModelName:        cfg.GroqModel,
	})

	extract := extractor.NewDispatcher(
		pdfx.NewExtractor(storage),
		plaintext.NewExtractor(storage),
	)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extract, ai)

	return &App{
		Config: cfg,

		Queue:     queue,
		Repo:      repo,
		History:   history,
		Storage:   storage,
		AI:        ai,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func buildVectorIndex(ctx context.Context, cfg config.Config) ports.VectorIndex {
	switch cfg.VectorBackend {
	case "memory":
		slog.Info("using in-memory vector index")
		return memory.New()
	case "pinecone":
		if cfg.PineconeAPIKey == "" {
			slog.Warn("PINECONE_API_KEY is not set, vector index disabled")
			return nil
		}
		client := pinecone.New(pinecone.Config{
			APIKey:    cfg.PineconeAPIKey,
			Host:      cfg.PineconeHost,
			IndexName: cfg.PineconeIndexName,
			Cloud:     cfg.PineconeCloud,
			Region:    cfg.PineconeRegion,
			Dimension: cfg.EmbeddingDim,
		})
		if err := client.EnsureIndex(ctx); err != nil {
			slog.Error("pinecone index unavailable, vector index disabled", "error", err)
			return nil
		}
		return client
	default:
		slog.Warn("unknown vector backend, vector index disabled", "backend", cfg.VectorBackend)
		return nil
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
