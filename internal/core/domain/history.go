package domain

import "time"

// BatchRecord is the persisted trace of one ingested file batch.
type BatchRecord struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	FileCount   int       `json:"file_count"`
	ChunkCount  int       `json:"chunk_count"`
	CacheHits   int       `json:"cache_hits"`
	CacheMisses int       `json:"cache_misses"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnswerRecord is the persisted trace of one answered question.
type AnswerRecord struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Draft        string    `json:"draft"`
	Verification string    `json:"verification"`
	SourceCount  int       `json:"source_count"`
	CreatedAt    time.Time `json:"created_at"`
}
