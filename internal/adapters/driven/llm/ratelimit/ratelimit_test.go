package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

type stubLLM struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return s.Chat(ctx, nil, driven.ChatOptions{})
}

func (s *stubLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, time.Now())
	return "ok", s.err
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

func TestWrap_DisabledReturnsInner(t *testing.T) {
	inner := &stubLLM{}

	assert.Same(t, inner, Wrap(inner, Config{}))
	assert.IsType(t, &LLMService{}, Wrap(inner, Config{RequestsPerSecond: 1}))
}

func TestLLMService_SpacesCalls(t *testing.T) {
	inner := &stubLLM{}
	svc := New(inner, Config{RequestsPerSecond: 20, BurstSize: 1})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Len(t, inner.calls, 3)
	assert.Equal(t, "stub", svc.ModelName())
}

func TestLLMService_BacksOffAfterRateLimit(t *testing.T) {
	inner := &stubLLM{err: fmt.Errorf("openai: status 429: %w", domain.ErrRateLimited)}
	svc := New(inner, Config{RequestsPerSecond: 1000, BurstSize: 10, Backoff: 50 * time.Millisecond})

	_, err := svc.Generate(context.Background(), "x", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrRateLimited)

	inner.err = nil
	_, err = svc.Generate(context.Background(), "x", driven.GenerateOptions{})
	require.NoError(t, err)

	require.Len(t, inner.calls, 2)
	assert.GreaterOrEqual(t, inner.calls[1].Sub(inner.calls[0]), 40*time.Millisecond)
}

func TestLLMService_WaitHonoursContext(t *testing.T) {
	inner := &stubLLM{err: domain.ErrRateLimited}
	svc := New(inner, Config{RequestsPerSecond: 1000, Backoff: time.Minute})
	_, _ = svc.Chat(context.Background(), nil, driven.ChatOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.Chat(ctx, nil, driven.ChatOptions{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, inner.calls, 1)
}
