package usecase

import (
	"context"
	"sync"
)

// RetrieverCache holds at most one built retriever, keyed by batch
// fingerprint. A request with the same fingerprint reuses the slot; a
// different fingerprint rebuilds and replaces it. The mutex spans the build
// so concurrent requests for the same batch trigger exactly one build.
type RetrieverCache struct {
	mu          sync.Mutex
	fingerprint string
	retriever   *HybridRetriever
}

func NewRetrieverCache() *RetrieverCache {
	return &RetrieverCache{}
}

// GetOrBuild returns the cached retriever when the fingerprint matches,
// otherwise builds a replacement. The boolean reports reuse. A failed build
// leaves the previous slot content untouched.
func (c *RetrieverCache) GetOrBuild(
	ctx context.Context,
	fingerprint string,
	build func(context.Context) (*HybridRetriever, error),
) (*HybridRetriever, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retriever != nil && c.fingerprint == fingerprint {
		return c.retriever, true, nil
	}

	retriever, err := build(ctx)
	if err != nil {
		return nil, false, err
	}

	if c.retriever != nil {
		_ = c.retriever.Close()
	}
	c.fingerprint = fingerprint
	c.retriever = retriever
	return retriever, false, nil
}

// Close releases the cached retriever, if any.
func (c *RetrieverCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retriever == nil {
		return nil
	}
	err := c.retriever.Close()
	c.retriever = nil
	c.fingerprint = ""
	return err
}
