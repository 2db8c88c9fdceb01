package ports

import (
	"context"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

// BatchIngestor is the inbound contract for turning a file batch into a
// deduplicated chunk sequence.
type BatchIngestor interface {
	Process(ctx context.Context, files []domain.FileBlob) (*domain.IngestResult, error)
}

// QuestionAnswerer is the inbound contract for the full ask flow:
// ingest-or-reuse, retrieve, draft, verify.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string, files []domain.FileBlob) (*domain.Answer, error)
}

// HistoryReader is the inbound read model for answer history.
type HistoryReader interface {
	ListRecentAnswers(ctx context.Context, limit int) ([]domain.AnswerRecord, error)
}
