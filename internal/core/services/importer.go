package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Verify interface compliance.
var _ driving.ImportService = (*Importer)(nil)

// importBatchSize bounds how many items are written per store call.
const importBatchSize = 64

// Importer writes parsed dataset content to the stores. Any store may be
// nil, in which case importing into it fails.
type Importer struct {
	docs    driven.DocumentStore
	records driven.RecordStore
	dishes  driven.DishWriter

	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	annotator   *MenuAnnotator
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithFileProcessing enables ImportFiles. The pipeline may be nil.
func WithFileProcessing(normalisers driven.NormaliserRegistry, pipeline driven.PostProcessorPipeline) ImporterOption {
	return func(i *Importer) {
		i.normalisers = normalisers
		i.pipeline = pipeline
	}
}

// WithMenuAnnotation replaces the heading-only annotator applied to menu files.
func WithMenuAnnotation(annotator *MenuAnnotator) ImporterOption {
	return func(i *Importer) {
		if annotator != nil {
			i.annotator = annotator
		}
	}
}

// NewImporter creates an importer.
func NewImporter(
	docs driven.DocumentStore, records driven.RecordStore, dishes driven.DishWriter, opts ...ImporterOption,
) *Importer {
	i := &Importer{docs: docs, records: records, dishes: dishes, annotator: NewMenuAnnotator(nil)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportDocuments stores documents in batches and returns how many were written.
func (i *Importer) ImportDocuments(ctx context.Context, partition domain.Partition, docs []domain.Document) (int, error) {
	if i.docs == nil {
		return 0, errors.New("document store not configured")
	}
	if !partition.IsValid() {
		return 0, fmt.Errorf("partition %q: %w", partition, domain.ErrInvalidInput)
	}
	return importInBatches(ctx, docs, func(ctx context.Context, batch []domain.Document) error {
		return i.docs.Add(ctx, partition, batch)
	})
}

// ImportFiles normalises every file before writing anything, so a file that
// cannot be read leaves the store untouched. Menu documents are annotated
// with entity metadata before chunking so every chunk inherits it.
func (i *Importer) ImportFiles(ctx context.Context, partition domain.Partition, files []domain.SourceFile) (int, error) {
	if i.normalisers == nil {
		return 0, errors.New("file import not configured")
	}
	if !partition.IsValid() {
		return 0, fmt.Errorf("partition %q: %w", partition, domain.ErrInvalidInput)
	}

	var docs []domain.Document
	for n := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		normalised, err := i.normalisers.Normalise(ctx, &files[n])
		if err != nil {
			return 0, fmt.Errorf("normalise %s: %w", files[n].Path, err)
		}
		logger.Debug("%s: %d documents", files[n].Path, len(normalised))
		docs = append(docs, normalised...)
	}

	if partition == domain.PartitionMenu && len(docs) > 0 {
		annotated, err := i.annotator.Annotate(ctx, docs)
		if err != nil {
			return 0, fmt.Errorf("annotate menus: %w", err)
		}
		docs = annotated
	}

	if i.pipeline != nil {
		processed, err := i.pipeline.Process(ctx, docs)
		if err != nil {
			return 0, err
		}
		docs = processed
	}
	if len(docs) == 0 {
		return 0, nil
	}
	return i.ImportDocuments(ctx, partition, docs)
}

// ImportRecords stores records in batches and returns how many were written.
func (i *Importer) ImportRecords(ctx context.Context, records []domain.Record) (int, error) {
	if i.records == nil {
		return 0, errors.New("record store not configured")
	}
	return importInBatches(ctx, records, i.records.Insert)
}

// ImportDishes stores dishes in batches and returns how many were written.
func (i *Importer) ImportDishes(ctx context.Context, dishes []domain.Dish) (int, error) {
	if i.dishes == nil {
		return 0, errors.New("dish graph not configured")
	}
	for n, d := range dishes {
		if d.Name == "" {
			return 0, fmt.Errorf("dish %d has no name: %w", n+1, domain.ErrInvalidInput)
		}
	}
	return importInBatches(ctx, dishes, i.dishes.AddDishes)
}

func importInBatches[T any](ctx context.Context, items []T, write func(context.Context, []T) error) (int, error) {
	written := 0
	for start := 0; start < len(items); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := min(start+importBatchSize, len(items))
		if err := write(ctx, items[start:end]); err != nil {
			return written, fmt.Errorf("import items %d-%d: %w", start+1, end, err)
		}
		written = end
		logger.Debug("Imported %d/%d", written, len(items))
	}
	return written, nil
}
