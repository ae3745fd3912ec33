package driving

import "github.com/custodia-labs/galassia/internal/core/domain"

// SettingsService reads and updates the persisted galassia configuration.
// The settings command drives it interactively; bootstrap reads it once per
// command to decide which collaborators to build.
type SettingsService interface {
	// Get loads the settings, filling unset keys with defaults.
	Get() (*domain.AppSettings, error)

	// Save writes every key of settings back to the config store.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider selects the embedding backend of the document
	// store. An empty model picks the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider selects the language model behind every workflow stage.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetWebSearch stores the Tavily key used by the websearch route.
	// A non-positive maxResults keeps the current limit.
	SetWebSearch(apiKey string, maxResults int) error

	// Validate reports whether a workflow can run with the stored settings.
	Validate() error

	// GetDefaults returns the settings used when nothing is configured.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured language model.
	ValidateLLMConfig() error
}
