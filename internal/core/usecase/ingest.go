package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

// IngestBatchUseCase turns a file batch into a deduplicated chunk sequence.
// Per-file failures are tolerated and reported; only batch-level problems
// (oversized upload) abort the whole call.
type IngestBatchUseCase struct {
	cache         ports.ChunkCache
	extractor     *ChunkExtractor
	maxTotalBytes int64
	logger        *slog.Logger
}

func NewIngestBatchUseCase(
	cache ports.ChunkCache,
	extractor *ChunkExtractor,
	maxTotalBytes int64,
	logger *slog.Logger,
) *IngestBatchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestBatchUseCase{
		cache:         cache,
		extractor:     extractor,
		maxTotalBytes: maxTotalBytes,
		logger:        logger,
	}
}

func (uc *IngestBatchUseCase) Process(ctx context.Context, files []domain.FileBlob) (*domain.IngestResult, error) {
	if err := uc.validateBatchSize(files); err != nil {
		return nil, err
	}

	var (
		set     = domain.NewChunkSet()
		digests []domain.FileDigest
		report  domain.IngestReport
	)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !uc.extractor.Supported(file.Name) {
			uc.logger.Warn("file_skipped_unsupported", "filename", file.Name)
			report.Skipped = append(report.Skipped, file.Name)
			continue
		}

		digest := domain.NewFileDigest(file.Data)

		chunks, hit := uc.cache.Get(ctx, digest)
		if hit {
			report.CacheHits++
		} else {
			report.CacheMisses++

			var err error
			chunks, err = uc.extractor.Extract(ctx, file)
			if err != nil {
				uc.logger.Warn("file_extract_failed", "filename", file.Name, "error", err)
				report.Failures = append(report.Failures, domain.FileFailure{
					Filename: file.Name,
					Reason:   err.Error(),
				})
				continue
			}

			// A failed cache write costs the next request a re-extraction,
			// nothing more. The chunks in hand stay usable.
			if err := uc.cache.Put(ctx, digest, chunks); err != nil {
				uc.logger.Warn("chunk_cache_put_failed", "filename", file.Name, "digest", digest, "error", err)
			}
		}

		digests = append(digests, digest)
		for _, chunk := range chunks {
			set.Add(chunk)
		}
	}

	result := &domain.IngestResult{
		Chunks:      set.Chunks(),
		Fingerprint: domain.BatchFingerprint(digests),
		Report:      report,
	}

	uc.logger.Info("batch_ingested",
		"files", len(files),
		"chunks", set.Len(),
		"cache_hits", report.CacheHits,
		"cache_misses", report.CacheMisses,
		"skipped", len(report.Skipped),
		"failures", len(report.Failures),
	)
	return result, nil
}

func (uc *IngestBatchUseCase) validateBatchSize(files []domain.FileBlob) error {
	if uc.maxTotalBytes <= 0 {
		return nil
	}

	var total int64
	for _, file := range files {
		size := file.Size
		if size <= 0 {
			size = int64(len(file.Data))
		}
		total += size
	}
	if total > uc.maxTotalBytes {
		return domain.WrapError(
			domain.ErrBatchTooLarge,
			"validate batch",
			fmt.Errorf("total upload %d bytes exceeds limit %d", total, uc.maxTotalBytes),
		)
	}
	return nil
}

var _ ports.BatchIngestor = (*IngestBatchUseCase)(nil)
