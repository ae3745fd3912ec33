// Package ratelimit wraps an LLM service with a token bucket and a backoff
// window after provider rate-limit responses.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultBackoff is the pause applied after a rate-limit response.
const DefaultBackoff = 10 * time.Second

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size (default: 1).
	BurstSize int

	// Backoff is the pause after a rate-limit response (default: DefaultBackoff).
	Backoff time.Duration
}

// LLMService limits the call rate of an inner LLM service.
type LLMService struct {
	inner   driven.LLMService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap returns inner unchanged when RequestsPerSecond is not positive.
func Wrap(inner driven.LLMService, cfg Config) driven.LLMService {
	if cfg.RequestsPerSecond <= 0 {
		return inner
	}
	return New(inner, cfg)
}

// New creates a rate-limited LLM service.
func New(inner driven.LLMService, cfg Config) *LLMService {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &LLMService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// Generate waits for a token and delegates.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	out, err := s.inner.Generate(ctx, prompt, opts)
	s.record(err)
	return out, err
}

// Chat waits for a token and delegates.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	out, err := s.inner.Chat(ctx, messages, opts)
	s.record(err)
	return out, err
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not rate limited.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}

// wait honours the backoff window, then the token bucket.
func (s *LLMService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.limiter.Wait(ctx)
}

// record opens a backoff window after a rate-limit error.
func (s *LLMService) record(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAt = time.Now().Add(s.backoff)
	logger.Warn("LLM rate limited, backing off for %s", s.backoff)
}
