package services

import (
	"time"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// settingField binds one config key to one AppSettings field. load leaves
// the field untouched when the stored value is absent or unusable, so
// loading over DefaultAppSettings yields the effective settings.
type settingField struct {
	key    string
	secret bool
	load   func(driven.ConfigStore, *domain.AppSettings)
	value  func(*domain.AppSettings) any
}

// stringField treats an empty stored string as unset.
func stringField(key string, ptr func(*domain.AppSettings) *string) settingField {
	return settingField{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if v := c.GetString(key); v != "" {
				*ptr(s) = v
			}
		},
		value: func(s *domain.AppSettings) any { return *ptr(s) },
	}
}

// secretField is a stringField that Save never blanks.
func secretField(key string, ptr func(*domain.AppSettings) *string) settingField {
	f := stringField(key, ptr)
	f.secret = true
	return f
}

// intField honours a stored zero.
func intField(key string, ptr func(*domain.AppSettings) *int) settingField {
	return settingField{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if _, ok := c.Get(key); ok {
				*ptr(s) = c.GetInt(key)
			}
		},
		value: func(s *domain.AppSettings) any { return *ptr(s) },
	}
}

func floatField(key string, ptr func(*domain.AppSettings) *float64) settingField {
	return settingField{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if _, ok := c.Get(key); ok {
				*ptr(s) = c.GetFloat(key)
			}
		},
		value: func(s *domain.AppSettings) any { return *ptr(s) },
	}
}

// secondsField stores whole seconds. Non-positive values are ignored.
func secondsField(key string, ptr func(*domain.AppSettings) *time.Duration) settingField {
	return settingField{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if v := c.GetInt(key); v > 0 {
				*ptr(s) = time.Duration(v) * time.Second
			}
		},
		value: func(s *domain.AppSettings) any { return int(*ptr(s) / time.Second) },
	}
}

// providerField ignores unknown provider names.
func providerField(key string, ptr func(*domain.AppSettings) *domain.AIProvider) settingField {
	return settingField{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if p := domain.AIProvider(c.GetString(key)); p.IsValid() {
				*ptr(s) = p
			}
		},
		value: func(s *domain.AppSettings) any { return ptr(s).String() },
	}
}

var settingFields = []settingField{
	providerField(keyEmbedProvider, func(s *domain.AppSettings) *domain.AIProvider { return &s.Embedding.Provider }),
	stringField(keyEmbedModel, func(s *domain.AppSettings) *string { return &s.Embedding.Model }),
	stringField(keyEmbedBaseURL, func(s *domain.AppSettings) *string { return &s.Embedding.BaseURL }),
	secretField(keyEmbedAPIKey, func(s *domain.AppSettings) *string { return &s.Embedding.APIKey }),

	providerField(keyLLMProvider, func(s *domain.AppSettings) *domain.AIProvider { return &s.LLM.Provider }),
	stringField(keyLLMModel, func(s *domain.AppSettings) *string { return &s.LLM.Model }),
	stringField(keyLLMBaseURL, func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
	secretField(keyLLMAPIKey, func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
	floatField(keyLLMRate, func(s *domain.AppSettings) *float64 { return &s.LLM.RequestsPerSecond }),

	intField(keyMaxRegenerations, func(s *domain.AppSettings) *int { return &s.Workflow.MaxRegenerations }),
	intField(keyMaxEscalations, func(s *domain.AppSettings) *int { return &s.Workflow.MaxEscalations }),
	intField(keyMaxSteps, func(s *domain.AppSettings) *int { return &s.Workflow.MaxSteps }),
	secondsField(keyCallTimeout, func(s *domain.AppSettings) *time.Duration { return &s.Workflow.CallTimeout }),
	intField(keyGradingConcurrency, func(s *domain.AppSettings) *int { return &s.Workflow.GradingConcurrency }),
	intField(keyBatchConcurrency, func(s *domain.AppSettings) *int { return &s.Workflow.BatchConcurrency }),
	intField(keySimilarityK, func(s *domain.AppSettings) *int { return &s.Workflow.SimilarityK }),

	stringField(keyMongoURI, func(s *domain.AppSettings) *string { return &s.RecordStore.URI }),
	stringField(keyMongoDatabase, func(s *domain.AppSettings) *string { return &s.RecordStore.Database }),
	stringField(keyMongoCollection, func(s *domain.AppSettings) *string { return &s.RecordStore.Collection }),

	stringField(keyGraphPath, func(s *domain.AppSettings) *string { return &s.GraphStore.Path }),

	stringField(keyRedisAddr, func(s *domain.AppSettings) *string { return &s.Cache.Addr }),
	secondsField(keyRedisTTL, func(s *domain.AppSettings) *time.Duration { return &s.Cache.TTL }),

	secretField(keyWebAPIKey, func(s *domain.AppSettings) *string { return &s.WebSearch.APIKey }),
	intField(keyWebMaxResults, func(s *domain.AppSettings) *int { return &s.WebSearch.MaxResults }),

	stringField(keyDataDir, func(s *domain.AppSettings) *string { return &s.Data.Dir }),
	stringField(keyDataDistanceCSV, func(s *domain.AppSettings) *string { return &s.Data.DistanceCSV }),
	stringField(keyDataDishMapping, func(s *domain.AppSettings) *string { return &s.Data.DishMapping }),
	stringField(keyDataRecords, func(s *domain.AppSettings) *string { return &s.Data.RecordsFile }),
}
