// Package fscache stores extracted chunk sets on disk, one JSON record per
// file digest, so repeated uploads of the same file skip the expensive
// structural conversion.
package fscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

// record is the self-describing on-disk format. Expiry is measured from
// CreatedAt inside the record, never from file mtime or last access.
type record struct {
	CreatedAt time.Time      `json:"created_at"`
	Chunks    []domain.Chunk `json:"chunks"`
}

type Store struct {
	dir    string
	expiry time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func New(dir string, expiry time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{
		dir:    dir,
		expiry: expiry,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Get returns the cached chunks for the digest while the record is younger
// than the expiry window. Missing, expired, or unreadable records all read
// as a miss; storage problems never fail ingestion.
func (s *Store) Get(_ context.Context, digest domain.FileDigest) ([]domain.Chunk, bool) {
	data, err := os.ReadFile(s.recordPath(digest))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache read failed, treating as miss", "digest", string(digest), "error", err)
		}
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("corrupt cache record, treating as miss", "digest", string(digest), "error", err)
		return nil, false
	}

	if s.now().Sub(rec.CreatedAt) >= s.expiry {
		return nil, false
	}
	return rec.Chunks, true
}

// Put overwrites any prior record for the digest with a fresh timestamp.
// Concurrent writers to the same digest may race; last write wins, which is
// harmless because content is identical for a given digest.
func (s *Store) Put(_ context.Context, digest domain.FileDigest, chunks []domain.Chunk) error {
	rec := record{
		CreatedAt: s.now(),
		Chunks:    chunks,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal cache record: %w", err)
	}
	if err := os.WriteFile(s.recordPath(digest), data, 0o644); err != nil {
		return fmt.Errorf("write cache record: %w", err)
	}
	return nil
}

func (s *Store) recordPath(digest domain.FileDigest) string {
	return filepath.Join(s.dir, string(digest)+".json")
}
