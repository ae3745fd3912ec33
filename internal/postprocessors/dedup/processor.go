// Package dedup drops repeated chunks, such as a restaurant footer that
// every menu page carries.
package dedup

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.PostProcessor = (*Processor)(nil)

// Scope decides which documents are compared against each other.
type Scope string

const (
	// ScopeSource compares documents sharing the "source" metadata key.
	ScopeSource Scope = "source"
	// ScopeBatch compares every document of one Process call.
	ScopeBatch Scope = "batch"
)

// Processor keeps the first of each set of documents whose content is equal
// after case folding and whitespace collapsing.
type Processor struct {
	scope Scope
}

// New returns a processor. An unknown scope is rejected.
func New(scope Scope) (*Processor, error) {
	switch scope {
	case "":
		scope = ScopeSource
	case ScopeSource, ScopeBatch:
	default:
		return nil, fmt.Errorf("dedup scope %q: %w", scope, domain.ErrInvalidInput)
	}
	return &Processor{scope: scope}, nil
}

func (p *Processor) Name() string {
	return "dedup"
}

// Process drops duplicates and blank documents, preserving order.
func (p *Processor) Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	seen := make(map[string]struct{}, len(docs))
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := fold(doc.Content)
		if text == "" {
			continue
		}
		key := p.key(doc, text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, doc)
	}
	return out, nil
}

func (p *Processor) key(doc domain.Document, text string) string {
	sum := sha256.Sum256([]byte(text))
	if p.scope == ScopeBatch {
		return string(sum[:])
	}
	source, _ := doc.Metadata[domain.MetadataSource].(string)
	return source + "\x00" + string(sum[:])
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
