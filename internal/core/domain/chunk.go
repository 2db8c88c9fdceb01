package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// FileBlob is one uploaded file: raw bytes plus the declared name and size.
// It lives only for the duration of a single ingestion call; only derived
// chunks are ever persisted.
type FileBlob struct {
	Name string
	Size int64
	Data []byte
}

// Chunk is one retrievable unit of extracted document text. Immutable after
// creation.
type Chunk struct {
	Digest     ChunkDigest `json:"digest"`
	SourceFile string      `json:"source_file"`
	HeaderPath string      `json:"header_path"`
	Text       string      `json:"text"`
}

// NewChunk computes the dedup digest over the chunk text only, so identical
// content under different files or headings still deduplicates.
func NewChunk(sourceFile, headerPath, text string) Chunk {
	return Chunk{
		Digest:     NewChunkDigest([]byte(text)),
		SourceFile: sourceFile,
		HeaderPath: headerPath,
		Text:       text,
	}
}

// Section is one header-scoped span of normalized markdown, the unit a
// chunk is built from.
type Section struct {
	// HeaderPath is "H1 > H2", "H1", or "" for text before any heading.
	HeaderPath string
	Text       string
}

// ChunkSet is the deduplicated union of chunks across a file batch.
// First-seen wins on duplicate digest; insertion order is preserved.
type ChunkSet struct {
	chunks []Chunk
	seen   map[ChunkDigest]struct{}
}

func NewChunkSet() *ChunkSet {
	return &ChunkSet{seen: make(map[ChunkDigest]struct{})}
}

// Add appends the chunk unless its digest was already seen.
// Returns true when the chunk was kept.
func (s *ChunkSet) Add(chunk Chunk) bool {
	if _, dup := s.seen[chunk.Digest]; dup {
		return false
	}
	s.seen[chunk.Digest] = struct{}{}
	s.chunks = append(s.chunks, chunk)
	return true
}

func (s *ChunkSet) Chunks() []Chunk {
	return s.chunks
}

func (s *ChunkSet) Len() int {
	return len(s.chunks)
}

// BatchFingerprint derives a stable identity for a set of file digests.
// Order of the input does not matter; the same files always produce the same
// fingerprint. It is the sole invalidation key for the retriever slot.
func BatchFingerprint(digests []FileDigest) string {
	sorted := make([]string, len(digests))
	for i, d := range digests {
		sorted[i] = string(d)
	}
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}
