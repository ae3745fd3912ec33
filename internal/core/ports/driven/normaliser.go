package driven

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// Normaliser turns a source file into documents.
// Each normaliser handles specific MIME types (e.g., Markdown, HTML).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts the text of a file. A file may yield several
	// documents, such as one per menu section.
	Normalise(ctx context.Context, file *domain.SourceFile) ([]domain.Document, error)
}

// NormaliserRegistry selects the appropriate normaliser for a file.
type NormaliserRegistry interface {
	// Normalise transforms a file using the best matching normaliser.
	Normalise(ctx context.Context, file *domain.SourceFile) ([]domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
