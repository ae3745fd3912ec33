package driving

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// ImportService loads dataset content into the stores the workflow reads.
type ImportService interface {
	// ImportDocuments embeds and stores documents in a partition.
	ImportDocuments(ctx context.Context, partition domain.Partition, docs []domain.Document) (int, error)

	// ImportFiles normalises and chunks source files, then stores the
	// resulting documents in a partition. It returns the documents stored.
	ImportFiles(ctx context.Context, partition domain.Partition, files []domain.SourceFile) (int, error)

	// ImportRecords stores structured records.
	ImportRecords(ctx context.Context, records []domain.Record) (int, error)

	// ImportDishes stores dishes in the graph.
	ImportDishes(ctx context.Context, dishes []domain.Dish) (int, error)
}
