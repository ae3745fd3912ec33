// Package ai turns provider settings into LLM and embedding adapters and
// checks that they answer before a command relies on them.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/galassia/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/galassia/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/galassia/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/galassia/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/galassia/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/galassia/internal/adapters/driven/llm/ratelimit"
	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

const (
	pingTimeout = 5 * time.Second
	fixHint     = "Run 'galassia settings llm' to fix"
)

type (
	llmBuilder       func(*domain.LLMSettings) (driven.LLMService, error)
	embeddingBuilder func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
)

var llmBuilders = map[domain.AIProvider]llmBuilder{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

var embeddingBuilders = map[domain.AIProvider]embeddingBuilder{
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return createOllamaEmbedding(s), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: domain.EmbeddingDimensions()[s.Model],
		})
	},
	domain.AIProviderAnthropic: func(*domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	},
}

// InitResult is what Init built. A nil EmbeddingService means similarity
// search runs lexically; Warnings say why.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init requires a reachable LLM. An embedding provider that is missing or
// down only produces a warning.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: no provider configured. %s", domain.ErrLLMUnavailable, fixHint)
	}
	result := &InitResult{LLMService: llm}

	embed, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("embeddings disabled, using lexical similarity: %v", err))
	case embed == nil:
		result.Warnings = append(result.Warnings, "no embedding provider configured, using lexical similarity")
	default:
		result.EmbeddingService = embed
	}
	return result, nil
}

// CreateLLMService returns nil for unconfigured settings. The service is
// rate limited when RequestsPerSecond is set.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llmBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	svc, err := build(settings)
	if err != nil {
		return nil, err
	}
	return ratelimit.Wrap(svc, ratelimit.Config{RequestsPerSecond: settings.RequestsPerSecond}), nil
}

// CreateEmbeddingService returns nil for unconfigured settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embeddingBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	return build(settings)
}

// CreateAndValidateLLMService builds the service and pings it. Every
// failure wraps domain.ErrLLMUnavailable and carries the settings hint.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		if !errors.Is(err, domain.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return nil, fmt.Errorf("service unreachable (%w). %s", err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService builds the service and pings it.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("service unreachable: %w", err)
	}
	return svc, nil
}

// ValidateLLMConfig pings the configured provider once and releases it.
// The settings commands call it before saving credentials.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// createOllamaEmbedding sizes vectors from the known model table, else the
// nomic-embed-text default.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}
