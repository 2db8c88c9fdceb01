// Package lexical provides the in-process keyword side of hybrid retrieval:
// a Bleve memory index built once per chunk snapshot and discarded with it.
package lexical

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

type indexDoc struct {
	Text       string `json:"text"`
	HeaderPath string `json:"header_path"`
	SourceFile string `json:"source_file"`
}

// Build indexes the full snapshot in one batch. The returned index is never
// mutated; a new snapshot means a new Build call.
func (b *Builder) Build(_ context.Context, chunks []domain.Chunk) (ports.LexicalIndex, error) {
	mapping := bleve.NewIndexMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so exact
	// terminology and identifiers match as typed.
	mapping.DefaultAnalyzer = standard.Name

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}

	byDigest := make(map[string]domain.Chunk, len(chunks))
	batch := idx.NewBatch()
	for _, chunk := range chunks {
		byDigest[string(chunk.Digest)] = chunk
		if err := batch.Index(string(chunk.Digest), indexDoc{
			Text:       chunk.Text,
			HeaderPath: chunk.HeaderPath,
			SourceFile: chunk.SourceFile,
		}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("stage chunk %s: %w", chunk.Digest, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("index chunk batch: %w", err)
	}

	return &Index{idx: idx, byDigest: byDigest}, nil
}

type Index struct {
	idx      bleve.Index
	byDigest map[string]domain.Chunk
}

func (i *Index) Search(_ context.Context, query string, limit int) ([]domain.RetrievedChunk, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(res.Hits))
	for _, hit := range res.Hits {
		chunk, ok := i.byDigest[hit.ID]
		if !ok {
			continue
		}
		out = append(out, domain.RetrievedChunk{Chunk: chunk, Score: hit.Score})
	}
	return out, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}
