package driven

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// SearchFilter narrows a similarity search.
type SearchFilter struct {
	// Partition selects menus, regulatory code or technique manual.
	Partition domain.Partition

	// Predicate filters candidates by metadata. Nil accepts all.
	Predicate domain.Predicate
}

// DocumentStore holds embedded documents in partitions and answers similarity queries.
// Backed by SQLite, or memory for tests.
type DocumentStore interface {
	// SimilaritySearch returns up to k documents most similar to query,
	// best first, among those accepted by the filter.
	SimilaritySearch(ctx context.Context, query string, k int, filter SearchFilter) ([]domain.Document, error)

	// Add embeds and stores documents in a partition.
	Add(ctx context.Context, partition domain.Partition, docs []domain.Document) error

	// Count returns the number of documents in a partition.
	Count(ctx context.Context, partition domain.Partition) (int, error)

	// Close releases resources.
	Close() error
}
