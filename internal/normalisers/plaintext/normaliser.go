package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/html",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the file content as one document. Blank files yield none.
func (n *Normaliser) Normalise(_ context.Context, file *domain.SourceFile) ([]domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimSpace(strings.TrimPrefix(string(file.Content), "\ufeff"))
	if content == "" {
		return nil, nil
	}

	return []domain.Document{{Content: content, Metadata: file.Metadata("", "")}}, nil
}
