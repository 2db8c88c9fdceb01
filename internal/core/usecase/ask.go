package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

// AskUseCase runs the full question flow: ingest or reuse the batch,
// retrieve context, draft an answer, verify it, and emit trace events.
type AskUseCase struct {
	ingestor  ports.BatchIngestor
	builder   *RetrieverBuilder
	slot      *RetrieverCache
	generator ports.AnswerGenerator
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func NewAskUseCase(
	ingestor ports.BatchIngestor,
	builder *RetrieverBuilder,
	slot *RetrieverCache,
	generator ports.AnswerGenerator,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *AskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUseCase{
		ingestor:  ingestor,
		builder:   builder,
		slot:      slot,
		generator: generator,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, files []domain.FileBlob) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("empty question"))
	}

	result, err := uc.ingestor.Process(ctx, files)
	if err != nil {
		return nil, err
	}
	if len(result.Chunks) == 0 {
		return nil, domain.WrapError(domain.ErrNoContent, "ask", errors.New("batch produced zero chunks"))
	}

	retriever, reused, err := uc.slot.GetOrBuild(ctx, result.Fingerprint, func(ctx context.Context) (*HybridRetriever, error) {
		return uc.builder.Build(ctx, result.Chunks)
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("retriever_slot", "fingerprint", result.Fingerprint, "reused", reused)

	sources, err := retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	draft, err := uc.generator.Draft(ctx, question, sources)
	if err != nil {
		return nil, err
	}

	verification, err := uc.generator.Verify(ctx, question, draft, sources)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		ID:           uuid.NewString(),
		Question:     question,
		Draft:        draft,
		Verification: verification,
		Sources:      sources,
		CreatedAt:    time.Now().UTC(),
	}

	uc.publishTraceEvents(ctx, result, answer, reused, len(files))

	return answer, nil
}

// publishTraceEvents is best-effort: history and metrics must never fail an
// already answered question.
func (uc *AskUseCase) publishTraceEvents(ctx context.Context, result *domain.IngestResult, answer *domain.Answer, reused bool, fileCount int) {
	if uc.publisher == nil {
		return
	}

	if !reused {
		batch := domain.BatchRecord{
			ID:          uuid.NewString(),
			Fingerprint: result.Fingerprint,
			FileCount:   fileCount,
			ChunkCount:  len(result.Chunks),
			CacheHits:   result.Report.CacheHits,
			CacheMisses: result.Report.CacheMisses,
			CreatedAt:   time.Now().UTC(),
		}
		if err := uc.publisher.PublishBatchIngested(ctx, batch); err != nil {
			uc.logger.Warn("publish_batch_event_failed", "fingerprint", result.Fingerprint, "error", err)
		}
	}

	record := domain.AnswerRecord{
		ID:           answer.ID,
		Question:     answer.Question,
		Draft:        answer.Draft,
		Verification: answer.Verification,
		SourceCount:  len(answer.Sources),
		CreatedAt:    answer.CreatedAt,
	}
	if err := uc.publisher.PublishQuestionAnswered(ctx, record); err != nil {
		uc.logger.Warn("publish_answer_event_failed", "answer_id", answer.ID, "error", err)
	}
}

var _ ports.QuestionAnswerer = (*AskUseCase)(nil)
