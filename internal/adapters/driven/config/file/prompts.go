package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

var log = logger.Scoped("prompts")

// PromptStore serves prompt templates from a directory the user may edit.
// The directory is seeded with the defaults on first Load, never
// overwriting a file. A missing, unreadable or incomplete file falls back
// to its default.
type PromptStore struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string

	seedOnce sync.Once
	seedErr  error
}

// NewPromptStore does no I/O. An empty dir means DefaultDir/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name. Unknown names are an error unless
// the directory holds a file for them.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	def, known := defaultPrompts[name]
	if s.seedErr != nil {
		if known {
			return def, nil
		}
		return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name)
	switch {
	case err != nil && !known:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		prompt = def
	case known:
		if missing := missingPlaceholders(name, prompt); len(missing) > 0 {
			log.Warn("%s%s lacks %s, using the default", name, promptExt, strings.Join(missing, ", "))
			prompt = def
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload forgets every cached template.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch evicts templates as their files change until ctx is done.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return s.seedErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if name := s.handleFsEvent(event); name != "" {
				log.Info("%s changed, reloading", name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher: %v", err)
		}
	}
}

const evictingOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// handleFsEvent evicts the template event touched and returns its name,
// or "" for events that leave templates alone.
func (s *PromptStore) handleFsEvent(event fsnotify.Event) string {
	if filepath.Ext(event.Name) != promptExt || event.Op&evictingOps == 0 {
		return ""
	}
	name := strings.TrimSuffix(filepath.Base(event.Name), promptExt)
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
	return name
}

// seed writes the default templates and README that do not exist yet.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	files := map[string][]byte{"README.md": defaultReadme()}
	for name, content := range defaultPrompts {
		files[name+promptExt] = []byte(content + "\n")
	}
	for file, content := range files {
		if err := writeIfAbsent(filepath.Join(s.dir, file), content); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", file, err)
			return
		}
	}
}

func writeIfAbsent(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
