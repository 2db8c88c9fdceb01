package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

func newIngestFixture(cache *fakeCache, converter *fakeConverter, maxBytes int64) *IngestBatchUseCase {
	extractor := NewChunkExtractor(converter, lineSplitter{}, []string{".txt", ".md"})
	return NewIngestBatchUseCase(cache, extractor, maxBytes, nil)
}

func TestProcessRejectsOversizedBatchBeforeAnyWork(t *testing.T) {
	converter := &fakeConverter{}
	uc := newIngestFixture(newFakeCache(), converter, 10)

	files := []domain.FileBlob{
		{Name: "a.txt", Data: []byte("123456")},
		{Name: "b.txt", Data: []byte("789012")},
	}
	_, err := uc.Process(context.Background(), files)
	if !domain.IsKind(err, domain.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	if converter.callCount() != 0 {
		t.Fatalf("expected no extraction on oversized batch, got %d calls", converter.callCount())
	}
}

func TestProcessCacheHitSkipsExtraction(t *testing.T) {
	cache := newFakeCache()
	converter := &fakeConverter{}
	uc := newIngestFixture(cache, converter, 0)

	data := []byte("alpha\nbeta")
	cached := []domain.Chunk{domain.NewChunk("a.txt", "", "alpha"), domain.NewChunk("a.txt", "", "beta")}
	cache.entries[domain.NewFileDigest(data)] = cached

	result, err := uc.Process(context.Background(), []domain.FileBlob{{Name: "a.txt", Data: data}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if converter.callCount() != 0 {
		t.Fatalf("expected no extraction on cache hit, got %d calls", converter.callCount())
	}
	if result.Report.CacheHits != 1 || result.Report.CacheMisses != 0 {
		t.Fatalf("unexpected report %+v", result.Report)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}
}

func TestProcessCacheMissExtractsAndStores(t *testing.T) {
	cache := newFakeCache()
	converter := &fakeConverter{}
	uc := newIngestFixture(cache, converter, 0)

	data := []byte("alpha\nbeta")
	result, err := uc.Process(context.Background(), []domain.FileBlob{{Name: "a.txt", Data: data}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if converter.callCount() != 1 {
		t.Fatalf("expected 1 extraction, got %d", converter.callCount())
	}
	if result.Report.CacheMisses != 1 {
		t.Fatalf("unexpected report %+v", result.Report)
	}
	if _, ok := cache.entries[domain.NewFileDigest(data)]; !ok {
		t.Fatalf("expected extracted chunks to be cached")
	}
}

func TestProcessDeduplicatesAcrossFiles(t *testing.T) {
	uc := newIngestFixture(newFakeCache(), &fakeConverter{}, 0)

	files := []domain.FileBlob{
		{Name: "a.txt", Data: []byte("shared\nunique-a")},
		{Name: "b.txt", Data: []byte("shared\nunique-b")},
	}
	result, err := uc.Process(context.Background(), files)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("expected 3 deduplicated chunks, got %d", len(result.Chunks))
	}
	// First-seen wins: the shared chunk keeps a.txt as its source.
	if result.Chunks[0].Text != "shared" || result.Chunks[0].SourceFile != "a.txt" {
		t.Fatalf("unexpected first chunk %+v", result.Chunks[0])
	}
}

func TestProcessToleratesPerFileFailure(t *testing.T) {
	cache := newFakeCache()
	uc := newIngestFixture(cache, &fakeConverter{}, 0)

	goodData := []byte("good content")
	failing := &fakeConverter{err: errors.New("parse failure")}
	failingUC := newIngestFixture(cache, failing, 0)

	result, err := failingUC.Process(context.Background(), []domain.FileBlob{{Name: "bad.txt", Data: []byte("bad content")}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Report.Failures) != 1 || result.Report.Failures[0].Filename != "bad.txt" {
		t.Fatalf("expected failure for bad.txt, got %+v", result.Report.Failures)
	}
	if len(result.Chunks) != 0 {
		t.Fatalf("expected no chunks from failed file, got %d", len(result.Chunks))
	}

	result, err = uc.Process(context.Background(), []domain.FileBlob{{Name: "good.txt", Data: goodData}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Chunks) == 0 {
		t.Fatalf("expected chunks from good file")
	}
}

func TestProcessSkipsUnsupportedFiles(t *testing.T) {
	converter := &fakeConverter{}
	uc := newIngestFixture(newFakeCache(), converter, 0)

	result, err := uc.Process(context.Background(), []domain.FileBlob{{Name: "image.png", Data: []byte{1, 2, 3}}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Report.Skipped) != 1 || result.Report.Skipped[0] != "image.png" {
		t.Fatalf("expected image.png skipped, got %+v", result.Report.Skipped)
	}
	if converter.callCount() != 0 {
		t.Fatalf("expected no extraction for unsupported file")
	}
}

func TestProcessCachePutFailureIsNonFatal(t *testing.T) {
	cache := newFakeCache()
	cache.putErr = errors.New("disk full")
	uc := newIngestFixture(cache, &fakeConverter{}, 0)

	result, err := uc.Process(context.Background(), []domain.FileBlob{{Name: "a.txt", Data: []byte("alpha")}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("expected extracted chunks despite put failure, got %d", len(result.Chunks))
	}
}

func TestProcessEmptyBatchIsValid(t *testing.T) {
	uc := newIngestFixture(newFakeCache(), &fakeConverter{}, 0)

	result, err := uc.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Chunks) != 0 {
		t.Fatalf("expected empty chunk sequence, got %d", len(result.Chunks))
	}
	if result.Fingerprint == "" {
		t.Fatalf("expected stable fingerprint even for empty batch")
	}
}

func TestProcessFingerprintIgnoresFileOrder(t *testing.T) {
	uc := newIngestFixture(newFakeCache(), &fakeConverter{}, 0)

	a := domain.FileBlob{Name: "a.txt", Data: []byte("alpha")}
	b := domain.FileBlob{Name: "b.txt", Data: []byte("beta")}

	first, err := uc.Process(context.Background(), []domain.FileBlob{a, b})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	second, err := uc.Process(context.Background(), []domain.FileBlob{b, a})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("fingerprint must not depend on file order: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}
