package services

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys, grouped by TOML table.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMRate     = "llm.requests_per_second"

	keyMaxRegenerations   = "workflow.max_regenerations"
	keyMaxEscalations     = "workflow.max_escalations"
	keyMaxSteps           = "workflow.max_steps"
	keyCallTimeout        = "workflow.call_timeout_seconds"
	keyGradingConcurrency = "workflow.grading_concurrency"
	keyBatchConcurrency   = "workflow.batch_concurrency"
	keySimilarityK        = "workflow.similarity_k"

	keyMongoURI        = "mongo.uri"
	keyMongoDatabase   = "mongo.database"
	keyMongoCollection = "mongo.collection"

	keyGraphPath = "graph.path"

	keyRedisAddr = "redis.addr"
	keyRedisTTL  = "redis.ttl_seconds"

	keyWebAPIKey     = "websearch.api_key"
	keyWebMaxResults = "websearch.max_results"

	keyDataDir         = "data.dir"
	keyDataDistanceCSV = "data.distance_csv"
	keyDataDishMapping = "data.dish_mapping"
	keyDataRecords     = "data.records_file"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get loads the stored settings over the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for _, f := range settingFields {
		f.load(s.configStore, &settings)
	}
	return &settings, nil
}

// Save writes every setting. Empty secrets are skipped so that a form
// left blank keeps the stored key.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingFields {
		value := f.value(settings)
		if f.secret && value == "" {
			continue
		}
		if err := s.configStore.Set(f.key, value); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetWebSearch stores the web search key and result limit.
func (s *SettingsService) SetWebSearch(apiKey string, maxResults int) error {
	if apiKey == "" {
		return fmt.Errorf("%w: web search API key is empty", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.WebSearch.APIKey = apiKey
	if maxResults > 0 {
		settings.WebSearch.MaxResults = maxResults
	}
	return s.Save(settings)
}

// Validate checks that the settings can run a workflow.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider is not configured: %w", domain.ErrLLMUnavailable)
	}
	if settings.Workflow.MaxSteps < 1 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyMaxSteps)
	}
	if settings.Workflow.MaxRegenerations < 0 || settings.Workflow.MaxEscalations < 0 {
		return fmt.Errorf("%w: loop bounds cannot be negative", domain.ErrInvalidInput)
	}
	if !settings.RecordStore.IsConfigured() && settings.Data.RecordsFile == "" {
		return fmt.Errorf("%w: set %s or %s", domain.ErrInvalidInput, keyMongoURI, keyDataRecords)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a local provider's endpoint and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}
