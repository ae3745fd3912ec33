package driven

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// PostProcessor is one import stage between normalising and storing. It
// may split documents (chunker) or drop them (dedup).
type PostProcessor interface {
	// Name is the registry key, also used in error messages.
	Name() string
	Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
}

// PostProcessorPipeline runs the configured stages in order.
type PostProcessorPipeline interface {
	Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
}
