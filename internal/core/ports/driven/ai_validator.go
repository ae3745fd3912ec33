package driven

import "github.com/custodia-labs/galassia/internal/core/domain"

// AIConfigValidator checks provider settings before the settings command
// stores them, so a wrong model name or key fails at configuration time
// rather than halfway through a batch.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider. Unconfigured settings
	// pass, since the document store then ranks lexically.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the language model. Unconfigured settings pass.
	ValidateLLM(config *domain.LLMSettings) error
}
