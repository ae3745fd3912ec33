package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
	"github.com/custodia-labs/galassia/internal/normalisers/docx"
	"github.com/custodia-labs/galassia/internal/normalisers/html"
	"github.com/custodia-labs/galassia/internal/normalisers/markdown"
	"github.com/custodia-labs/galassia/internal/normalisers/pdf"
	"github.com/custodia-labs/galassia/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionTypes covers extensions the platform MIME table may lack.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":      "application/pdf",
}

// DetectMIME returns the MIME type for a path from its extension, without
// parameters. Unknown extensions yield an empty string.
func DetectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// Registry dispatches files to the highest priority normaliser for their
// MIME type.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]driven.Normaliser)}
}

// NewDefaultRegistry creates a registry with the Markdown, HTML, DOCX and
// plain text normalisers, plus PDF when pdftotext is installed.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(plaintext.New())
	if err := pdf.CheckAvailable(); err == nil {
		r.Register(pdf.New())
	} else {
		logger.Debug("PDF files skipped: %v", err)
	}
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range n.SupportedMIMETypes() {
		list := append(r.byType[t], n)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() > list[j].Priority() })
		r.byType[t] = list
	}
}

// Supports reports whether a normaliser is registered for mimeType.
func (r *Registry) Supports(mimeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType[mimeType]) > 0
}

// SupportedMIMETypes returns the registered MIME types in sorted order.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Normalise runs the best normaliser for the file. A file without a MIME
// type is detected from its path.
func (r *Registry) Normalise(ctx context.Context, file *domain.SourceFile) ([]domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	mimeType := file.MIMEType
	if mimeType == "" {
		mimeType = DetectMIME(file.Path)
	}

	r.mu.RLock()
	candidates := r.byType[mimeType]
	r.mu.RUnlock()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: unsupported file type %q: %w", file.Path, mimeType, domain.ErrInvalidInput)
	}
	return candidates[0].Normalise(ctx, file)
}
