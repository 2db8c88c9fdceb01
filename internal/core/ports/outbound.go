package ports

import (
	"context"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

// ChunkCache persists extracted chunks per file digest across process
// restarts. A missing, expired, or unreadable entry reads as a miss.
type ChunkCache interface {
	Get(ctx context.Context, digest domain.FileDigest) ([]domain.Chunk, bool)
	Put(ctx context.Context, digest domain.FileDigest, chunks []domain.Chunk) error
}

// MarkdownConverter turns raw file bytes into normalized markdown text.
// This is the slow structural-conversion step that the chunk cache guards.
type MarkdownConverter interface {
	Convert(ctx context.Context, filename string, data []byte) (string, error)
}

// SectionSplitter splits normalized markdown into header-scoped sections.
type SectionSplitter interface {
	Split(markdown string) []domain.Section
}

// Embedder builds vectors for chunk text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the embedding-similarity side of hybrid retrieval.
// Rebuild replaces the indexed snapshot wholesale; there is no incremental
// update.
type VectorIndex interface {
	Rebuild(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievedChunk, error)
}

// LexicalIndex is the term-frequency side of hybrid retrieval, built fully
// in process over one chunk snapshot.
type LexicalIndex interface {
	Search(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error)
	Close() error
}

// LexicalIndexBuilder constructs an immutable LexicalIndex per snapshot.
type LexicalIndexBuilder interface {
	Build(ctx context.Context, chunks []domain.Chunk) (LexicalIndex, error)
}

// AnswerGenerator drafts an answer from retrieved context and verifies it.
type AnswerGenerator interface {
	Draft(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
	Verify(ctx context.Context, question, draft string, chunks []domain.RetrievedChunk) (string, error)
}

// EventPublisher emits after-the-fact ingestion and answer events.
type EventPublisher interface {
	PublishBatchIngested(ctx context.Context, record domain.BatchRecord) error
	PublishQuestionAnswered(ctx context.Context, record domain.AnswerRecord) error
}

// EventConsumer delivers published events to the worker.
type EventConsumer interface {
	SubscribeBatchIngested(ctx context.Context, handler func(context.Context, domain.BatchRecord) error) error
	SubscribeQuestionAnswered(ctx context.Context, handler func(context.Context, domain.AnswerRecord) error) error
}

// HistoryRepository persists and reads batch and answer history.
type HistoryRepository interface {
	SaveBatch(ctx context.Context, record *domain.BatchRecord) error
	SaveAnswer(ctx context.Context, record *domain.AnswerRecord) error
	ListRecentAnswers(ctx context.Context, limit int) ([]domain.AnswerRecord, error)
}
