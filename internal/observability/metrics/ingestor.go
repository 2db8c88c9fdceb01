package metrics

import (
	"context"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

// InstrumentedIngestor decorates a BatchIngestor with cache and per-file
// counters taken from the ingest report.
type InstrumentedIngestor struct {
	next    ports.BatchIngestor
	metrics *HTTPServerMetrics
	service string
}

func NewInstrumentedIngestor(next ports.BatchIngestor, metrics *HTTPServerMetrics, service string) *InstrumentedIngestor {
	return &InstrumentedIngestor{next: next, metrics: metrics, service: service}
}

func (i *InstrumentedIngestor) Process(ctx context.Context, files []domain.FileBlob) (*domain.IngestResult, error) {
	result, err := i.next.Process(ctx, files)
	if err != nil || i.metrics == nil {
		return result, err
	}

	report := result.Report
	processed := len(files) - len(report.Skipped) - len(report.Failures)
	i.metrics.RecordCacheLookups(i.service, report.CacheHits, report.CacheMisses)
	i.metrics.RecordBatchFiles(i.service, processed, len(report.Skipped), len(report.Failures))
	return result, nil
}

var _ ports.BatchIngestor = (*InstrumentedIngestor)(nil)
