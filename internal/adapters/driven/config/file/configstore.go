package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// EnvPrefix names overrides: GALASSIA_LLM_API_KEY overrides llm.api_key.
	EnvPrefix = "GALASSIA"

	// HomeEnv relocates the configuration directory.
	HomeEnv = "GALASSIA_HOME"

	configFile = "config.toml"
)

// ConfigStore keeps settings under dotted keys in config.toml, one TOML
// table per prefix. Environment overrides are read on every lookup and
// never written back.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	data map[string]any
}

// DefaultDir is $GALASSIA_HOME, else ~/.galassia.
func DefaultDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".galassia"), nil
}

// NewConfigStore opens config.toml in dir, creating dir when needed. An
// empty dir means DefaultDir.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(dir, configFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (s *ConfigStore) Get(key string) (any, bool) {
	if v, ok := os.LookupEnv(envName(key)); ok {
		return v, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	return asString(v)
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	return asInt(v)
}

func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	return asFloat(v)
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	return asBool(v)
}

// GetStringSlice splits an environment override on commas.
func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	return asStrings(v)
}

// Set stores value and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.write()
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write replaces the file through a rename so a crash never leaves half a
// config behind. The file holds API keys, hence 0600.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), configFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load rereads the file. A missing file is an empty configuration.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.data = flattenMap(tables, "")
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

// flattenMap turns {"a": {"b": 1}} into {"a.b": 1}.
func flattenMap(tables map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for key, value := range tables {
		if prefix != "" {
			key = prefix + "." + key
		}
		nested, ok := value.(map[string]any)
		if !ok {
			flat[key] = value
			continue
		}
		for k, v := range flattenMap(nested, key) {
			flat[k] = v
		}
	}
	return flat
}

// nestMap inverts flattenMap. When a key is both a leaf and a table prefix
// the table wins.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, isTable := node[leaf].(map[string]any); !isTable {
			node[leaf] = value
		}
	}
	return root
}
