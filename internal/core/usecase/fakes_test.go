package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

// fakeConverter returns file bytes as markdown and counts invocations.
type fakeConverter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *fakeConverter) Convert(_ context.Context, _ string, data []byte) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return string(data), nil
}

func (c *fakeConverter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// lineSplitter treats every non-empty line as its own section.
type lineSplitter struct{}

func (lineSplitter) Split(markdown string) []domain.Section {
	var out []domain.Section
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, domain.Section{Text: line})
	}
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[domain.FileDigest][]domain.Chunk
	putErr  error
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[domain.FileDigest][]domain.Chunk)}
}

func (c *fakeCache) Get(_ context.Context, digest domain.FileDigest) ([]domain.Chunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chunks, ok := c.entries[digest]
	return chunks, ok
}

func (c *fakeCache) Put(_ context.Context, digest domain.FileDigest, chunks []domain.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[digest] = chunks
	return nil
}

type fakeLexicalIndex struct {
	hits   []domain.RetrievedChunk
	err    error
	closed bool
}

func (i *fakeLexicalIndex) Search(_ context.Context, _ string, limit int) ([]domain.RetrievedChunk, error) {
	if i.err != nil {
		return nil, i.err
	}
	if limit < len(i.hits) {
		return i.hits[:limit], nil
	}
	return i.hits, nil
}

func (i *fakeLexicalIndex) Close() error {
	i.closed = true
	return nil
}

type fakeLexicalBuilder struct {
	index *fakeLexicalIndex
	err   error
}

func (b *fakeLexicalBuilder) Build(_ context.Context, _ []domain.Chunk) (ports.LexicalIndex, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.index, nil
}

type fakeEmbedder struct {
	embedErr error
	queryErr error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return []float32{0.5, 0.5}, nil
}

type fakeVectorIndex struct {
	rebuildErr error
	searchErr  error
	rebuilds   int
	hits       []domain.RetrievedChunk
}

func (v *fakeVectorIndex) Rebuild(_ context.Context, _ []domain.Chunk, _ [][]float32) error {
	v.rebuilds++
	return v.rebuildErr
}

func (v *fakeVectorIndex) Search(_ context.Context, _ []float32, limit int) ([]domain.RetrievedChunk, error) {
	if v.searchErr != nil {
		return nil, v.searchErr
	}
	if limit < len(v.hits) {
		return v.hits[:limit], nil
	}
	return v.hits, nil
}

type fakeGenerator struct {
	draftErr  error
	verifyErr error
}

func (g *fakeGenerator) Draft(_ context.Context, question string, _ []domain.RetrievedChunk) (string, error) {
	if g.draftErr != nil {
		return "", g.draftErr
	}
	return "draft: " + question, nil
}

func (g *fakeGenerator) Verify(_ context.Context, _ string, draft string, _ []domain.RetrievedChunk) (string, error) {
	if g.verifyErr != nil {
		return "", g.verifyErr
	}
	return "verified: " + draft, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	batches []domain.BatchRecord
	answers []domain.AnswerRecord
	err     error
}

func (p *fakePublisher) PublishBatchIngested(_ context.Context, record domain.BatchRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, record)
	return nil
}

func (p *fakePublisher) PublishQuestionAnswered(_ context.Context, record domain.AnswerRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.answers = append(p.answers, record)
	return nil
}

func retrieved(sourceFile, text string) domain.RetrievedChunk {
	return domain.RetrievedChunk{Chunk: domain.NewChunk(sourceFile, "", text)}
}
