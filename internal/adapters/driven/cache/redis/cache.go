// Package redis provides a Redis-backed driven.JudgmentCache shared across
// processes, so batch workers and the HTTP server reuse each other's judgments.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure JudgmentCache implements the interface.
var _ driven.JudgmentCache = (*JudgmentCache)(nil)

// KeyPrefix namespaces every cached judgment.
const KeyPrefix = "galassia:"

// JudgmentCache stores validated payloads in Redis with a TTL.
type JudgmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. A zero TTL uses domain.DefaultCacheTTL.
func New(ctx context.Context, settings domain.CacheSettings) (*JudgmentCache, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
	}

	client := redis.NewClient(&redis.Options{Addr: settings.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, settings.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *JudgmentCache {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	return &JudgmentCache{client: client, ttl: ttl}
}

// Get returns the cached payload.
func (c *JudgmentCache) Get(ctx context.Context, key string) (string, bool, error) {
	payload, err := c.client.Get(ctx, KeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get judgment: %w", err)
	}
	return payload, true, nil
}

// Set stores a payload, refreshing its TTL.
func (c *JudgmentCache) Set(ctx context.Context, key, payload string) error {
	if err := c.client.Set(ctx, KeyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set judgment: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *JudgmentCache) Close() error {
	return c.client.Close()
}
