// Package postgres persists the ingestion and answer history written by the
// worker from pipeline events.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ingest_batches (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	file_count INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	cache_hits INTEGER NOT NULL,
	cache_misses INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingest_batches_fingerprint ON ingest_batches(fingerprint);
CREATE INDEX IF NOT EXISTS idx_ingest_batches_created_at ON ingest_batches(created_at DESC);

CREATE TABLE IF NOT EXISTS qa_answers (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	draft TEXT NOT NULL,
	verification TEXT NOT NULL,
	source_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_qa_answers_created_at ON qa_answers(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveBatch upserts by id so a redelivered event does not duplicate history.
func (r *HistoryRepository) SaveBatch(ctx context.Context, record *domain.BatchRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ingest_batches (id, fingerprint, file_count, chunk_count, cache_hits, cache_misses, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.Fingerprint, record.FileCount, record.ChunkCount,
		record.CacheHits, record.CacheMisses, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ingest batch: %w", err)
	}
	return nil
}

func (r *HistoryRepository) SaveAnswer(ctx context.Context, record *domain.AnswerRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO qa_answers (id, question, draft, verification, source_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.Question, record.Draft, record.Verification,
		record.SourceCount, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert qa answer: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListRecentAnswers(ctx context.Context, limit int) ([]domain.AnswerRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, draft, verification, source_count, created_at
FROM qa_answers
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent answers: %w", err)
	}
	defer rows.Close()

	var records []domain.AnswerRecord
	for rows.Next() {
		var record domain.AnswerRecord
		if err := rows.Scan(
			&record.ID, &record.Question, &record.Draft, &record.Verification,
			&record.SourceCount, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan qa answer: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qa answers: %w", err)
	}
	return records, nil
}
