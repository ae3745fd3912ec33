package ai

import (
	"fmt"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator lets the settings service reject credentials before they
// are saved. An unconfigured provider passes; there is nothing to reach.
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (ConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	var p domain.AIProvider
	if cfg != nil {
		p = cfg.Provider
	}
	return labelled("embedding", p, ValidateEmbeddingConfig(cfg))
}

func (ConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	var p domain.AIProvider
	if cfg != nil {
		p = cfg.Provider
	}
	return labelled("LLM", p, ValidateLLMConfig(cfg))
}

func labelled(kind string, p domain.AIProvider, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s provider %s: %w", kind, p, err)
}
