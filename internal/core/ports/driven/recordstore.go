package driven

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// RecordStore is the structured record store queried by generated filters.
// Backed by MongoDB, or memory for tests and offline runs.
type RecordStore interface {
	// Find returns every record matching filter. An empty filter matches all.
	// A malformed filter fails with domain.ErrStoreQuery; a transport
	// failure wraps domain.ErrStoreUnavailable. No match is not an error.
	Find(ctx context.Context, filter map[string]any) ([]domain.Record, error)

	// DescribeSchema returns each metadata key with its distinct values.
	DescribeSchema(ctx context.Context) (domain.FieldDescriptions, error)

	// Insert stores records, used when importing a dataset.
	Insert(ctx context.Context, records []domain.Record) error

	// Close releases resources.
	Close() error
}
