package memory

import (
	"sync"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings keys in a map. Settings and bootstrap tests use
// it in place of the TOML file; Save and Load do nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// typed returns the value under key when it has type T.
func typed[T any](s *ConfigStore, key string) T {
	var zero T
	val, ok := s.Get(key)
	if !ok {
		return zero
	}
	if v, ok := val.(T); ok {
		return v
	}
	return zero
}

func (s *ConfigStore) GetString(key string) string { return typed[string](s, key) }

func (s *ConfigStore) GetBool(key string) bool { return typed[bool](s, key) }

// GetInt truncates float values.
func (s *ConfigStore) GetInt(key string) int {
	n, _ := s.number(key)
	return int(n)
}

func (s *ConfigStore) GetFloat(key string) float64 {
	n, _ := s.number(key)
	return n
}

func (s *ConfigStore) number(key string) (float64, bool) {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// GetStringSlice drops non-string items of a mixed list.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *ConfigStore) Save() error { return nil }

func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }
