package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

// RetrieverConfig tunes hybrid retrieval. Weights apply to the reciprocal
// rank contributions of each sub-retriever, not to their raw scores.
type RetrieverConfig struct {
	LexicalWeight float64
	VectorWeight  float64
	RRFK          int
	TopK          int
}

func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.LexicalWeight <= 0 && c.VectorWeight <= 0 {
		c.LexicalWeight = 0.4
		c.VectorWeight = 0.6
	}
	if c.RRFK <= 0 {
		c.RRFK = 60
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	return c
}

// RetrieverBuilder assembles both retrieval sides over one chunk snapshot.
// A build either succeeds fully or fails fully; a retriever with only one
// working side is never returned.
type RetrieverBuilder struct {
	lexicalBuilder ports.LexicalIndexBuilder
	embedder       ports.Embedder
	vectorIndex    ports.VectorIndex
	config         RetrieverConfig
	logger         *slog.Logger
}

func NewRetrieverBuilder(
	lexicalBuilder ports.LexicalIndexBuilder,
	embedder ports.Embedder,
	vectorIndex ports.VectorIndex,
	config RetrieverConfig,
	logger *slog.Logger,
) *RetrieverBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieverBuilder{
		lexicalBuilder: lexicalBuilder,
		embedder:       embedder,
		vectorIndex:    vectorIndex,
		config:         config.withDefaults(),
		logger:         logger,
	}
}

func (b *RetrieverBuilder) Build(ctx context.Context, chunks []domain.Chunk) (*HybridRetriever, error) {
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrNoContent, "build retriever", fmt.Errorf("no chunks to index"))
	}
	start := time.Now()

	lexical, err := b.lexicalBuilder.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build lexical index: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		_ = lexical.Close()
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := b.vectorIndex.Rebuild(ctx, chunks, vectors); err != nil {
		_ = lexical.Close()
		return nil, fmt.Errorf("rebuild vector index: %w", err)
	}

	b.logger.Info("retriever_built", "chunks", len(chunks), "duration_ms", time.Since(start).Milliseconds())

	return &HybridRetriever{
		lexical:  lexical,
		vector:   b.vectorIndex,
		embedder: b.embedder,
		config:   b.config,
	}, nil
}

// HybridRetriever answers queries from both retrieval sides and fuses the
// ranked lists. It is immutable after Build; concurrent Retrieve calls are
// safe as long as the underlying indexes are.
type HybridRetriever struct {
	lexical  ports.LexicalIndex
	vector   ports.VectorIndex
	embedder ports.Embedder
	config   RetrieverConfig
}

func (r *HybridRetriever) Retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	// Fetch deeper than topK from each side so fusion has ranks to work
	// with beyond the final cut.
	fetchDepth := r.config.TopK * 2

	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	lexicalHits, err := r.lexical.Search(ctx, question, fetchDepth)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	vectorHits, err := r.vector.Search(ctx, queryVector, fetchDepth)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	fused := fuseWeightedRRF(lexicalHits, vectorHits, r.config.LexicalWeight, r.config.VectorWeight, r.config.RRFK)
	return trimCandidates(fused, r.config.TopK), nil
}

func (r *HybridRetriever) Close() error {
	return r.lexical.Close()
}
