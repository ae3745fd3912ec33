package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure JudgmentCache implements the interface.
var _ driven.JudgmentCache = (*JudgmentCache)(nil)

// JudgmentCache is an unbounded in-memory driven.JudgmentCache for a single process.
type JudgmentCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewJudgmentCache creates an empty cache.
func NewJudgmentCache() *JudgmentCache {
	return &JudgmentCache{entries: make(map[string]string)}
}

// Get returns the cached payload.
func (c *JudgmentCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.entries[key]
	return payload, ok, nil
}

// Set stores a payload.
func (c *JudgmentCache) Set(_ context.Context, key, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

// Len returns the number of cached payloads.
func (c *JudgmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
