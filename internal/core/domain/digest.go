package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// FileDigest identifies the full byte content of an uploaded file.
// It is the cache key namespace and is never comparable to ChunkDigest.
type FileDigest string

// ChunkDigest identifies the text content of a single chunk.
// It is the dedup key namespace.
type ChunkDigest string

func NewFileDigest(content []byte) FileDigest {
	return FileDigest(hexDigest(content))
}

func NewChunkDigest(content []byte) ChunkDigest {
	return ChunkDigest(hexDigest(content))
}

func hexDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
