package domain

import "time"

// RetrievedChunk is a chunk plus the score assigned by a retriever.
// For sub-retriever output the score is retriever-specific (BM25, cosine);
// after fusion it is the weighted reciprocal-rank score.
type RetrievedChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Answer is the final product of one question: a drafted answer, the
// verification report over that draft, and the chunks it was grounded on.
type Answer struct {
	ID           string           `json:"id"`
	Question     string           `json:"question"`
	Draft        string           `json:"draft"`
	Verification string           `json:"verification"`
	Sources      []RetrievedChunk `json:"sources"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IngestResult is the outcome of processing one file batch: the deduplicated
// chunk sequence, the batch fingerprint, and the per-file report.
// An empty chunk sequence is a valid outcome, not an error.
type IngestResult struct {
	Chunks      []Chunk
	Fingerprint string
	Report      IngestReport
}

// IngestReport aggregates per-file outcomes so a partially failed batch stays
// diagnosable without aborting the whole ingestion.
type IngestReport struct {
	CacheHits   int
	CacheMisses int
	Skipped     []string
	Failures    []FileFailure
}

// FileFailure records a file that was skipped because its processing failed.
type FileFailure struct {
	Filename string
	Reason   string
}
