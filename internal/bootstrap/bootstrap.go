// Package bootstrap wires configuration, infrastructure, and use cases into
// runnable api and worker applications.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chattydoc/chattydoc/internal/config"
	"github.com/chattydoc/chattydoc/internal/core/ports"
	"github.com/chattydoc/chattydoc/internal/core/usecase"
	"github.com/chattydoc/chattydoc/internal/infrastructure/cache/fscache"
	"github.com/chattydoc/chattydoc/internal/infrastructure/chunking"
	"github.com/chattydoc/chattydoc/internal/infrastructure/convert"
	"github.com/chattydoc/chattydoc/internal/infrastructure/lexical"
	"github.com/chattydoc/chattydoc/internal/infrastructure/llm/ollama"
	"github.com/chattydoc/chattydoc/internal/infrastructure/queue/nats"
	"github.com/chattydoc/chattydoc/internal/infrastructure/repository/postgres"
	"github.com/chattydoc/chattydoc/internal/infrastructure/resilience"
	"github.com/chattydoc/chattydoc/internal/infrastructure/vector/qdrant"
	"github.com/chattydoc/chattydoc/internal/observability/logging"
	"github.com/chattydoc/chattydoc/internal/observability/metrics"
)

// APIApp holds everything the api binary serves with.
type APIApp struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	AskUC     ports.QuestionAnswerer
	HistoryUC ports.HistoryReader

	closeFn func()
}

func NewAPI(ctx context.Context, cfg config.Config) (*APIApp, error) {
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	historyRepo := postgres.NewHistoryRepository(db)
	if err := historyRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSBatchSubject, cfg.NATSAnswerSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	cache, err := fscache.New(cfg.CacheDir, time.Duration(cfg.CacheExpireHours)*time.Hour, logger)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init chunk cache: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	vectorIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	serverMetrics := metrics.NewHTTPServerMetrics("api")

	extractor := usecase.NewChunkExtractor(convert.New(), chunking.NewHeaderSplitter(), cfg.SupportedExtensions)
	ingestUC := usecase.NewIngestBatchUseCase(cache, extractor, cfg.MaxTotalBytes(), logger)
	instrumentedIngest := metrics.NewInstrumentedIngestor(ingestUC, serverMetrics, "api")

	builder := usecase.NewRetrieverBuilder(lexical.NewBuilder(), embedder, vectorIndex, usecase.RetrieverConfig{
		LexicalWeight: cfg.LexicalWeight,
		VectorWeight:  cfg.VectorWeight,
		RRFK:          cfg.FusionRRFK,
		TopK:          cfg.RetrieveTopK,
	}, logger)
	slot := usecase.NewRetrieverCache()

	askUC := usecase.NewAskUseCase(instrumentedIngest, builder, slot, generator, queue, logger)
	historyUC := usecase.NewHistoryUseCase(historyRepo)

	return &APIApp{
		Config:    cfg,
		Logger:    logger,
		Metrics:   serverMetrics,
		AskUC:     askUC,
		HistoryUC: historyUC,
		closeFn: func() {
			_ = slot.Close()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *APIApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// WorkerApp consumes pipeline events and persists history.
type WorkerApp struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.WorkerMetrics

	Queue   *nats.Queue
	History ports.HistoryRepository

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	historyRepo := postgres.NewHistoryRepository(db)
	if err := historyRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSBatchSubject, cfg.NATSAnswerSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	return &WorkerApp{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewWorkerMetrics("worker"),
		Queue:   queue,
		History: historyRepo,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *WorkerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
