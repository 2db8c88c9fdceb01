package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

// ChunkExtractor converts one file to markdown and splits it into chunks.
// It runs only on cache misses; extraction is the expensive path the chunk
// cache exists to avoid.
type ChunkExtractor struct {
	converter ports.MarkdownConverter
	splitter  ports.SectionSplitter
	supported map[string]struct{}
}

func NewChunkExtractor(
	converter ports.MarkdownConverter,
	splitter ports.SectionSplitter,
	supportedExtensions []string,
) *ChunkExtractor {
	supported := make(map[string]struct{}, len(supportedExtensions))
	for _, ext := range supportedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		supported[ext] = struct{}{}
	}
	return &ChunkExtractor{
		converter: converter,
		splitter:  splitter,
		supported: supported,
	}
}

func (e *ChunkExtractor) Supported(filename string) bool {
	_, ok := e.supported[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extract returns the chunk sequence for one file in document order.
// A file that converts cleanly but contains no text yields zero chunks
// without error.
func (e *ChunkExtractor) Extract(ctx context.Context, file domain.FileBlob) ([]domain.Chunk, error) {
	markdown, err := e.converter.Convert(ctx, file.Name, file.Data)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", file.Name, err)
	}

	sections := e.splitter.Split(markdown)
	chunks := make([]domain.Chunk, 0, len(sections))
	for _, section := range sections {
		chunks = append(chunks, domain.NewChunk(file.Name, section.HeaderPath, section.Text))
	}
	return chunks, nil
}
