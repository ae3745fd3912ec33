// Package filesystem reads dataset source files from local paths.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/logger"
)

// MaxFileSize bounds the size of a single source file.
const MaxFileSize = 32 << 20

// Collector reads the files under a path that a MIME filter accepts.
type Collector struct {
	detect   func(path string) string
	supports func(mimeType string) bool
}

// NewCollector creates a collector. detect maps a path to its MIME type and
// supports reports whether that type can be imported.
func NewCollector(detect func(string) string, supports func(string) bool) *Collector {
	return &Collector{detect: detect, supports: supports}
}

// Collect returns the files at root. A file root is read whatever its type
// so that an explicit request fails loudly in normalisation. A directory is
// walked recursively, skipping hidden entries and unsupported types, and
// files are returned in path order.
func (c *Collector) Collect(ctx context.Context, root string) ([]domain.SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", root, err)
	}
	if !info.IsDir() {
		file, err := c.read(root, info)
		if err != nil {
			return nil, err
		}
		return []domain.SourceFile{file}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !c.supports(c.detect(path)) {
			logger.Debug("Skipping %s: unsupported type", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	files := make([]domain.SourceFile, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		file, err := c.read(path, info)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (c *Collector) read(path string, info fs.FileInfo) (domain.SourceFile, error) {
	if info.Size() > MaxFileSize {
		return domain.SourceFile{}, fmt.Errorf("%s: file larger than %d bytes: %w", path, MaxFileSize, domain.ErrInvalidInput)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.SourceFile{Path: path, MIMEType: c.detect(path), Content: content}, nil
}
