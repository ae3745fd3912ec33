package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Query builder limits.
const (
	// MaxQueryAttempts bounds query generation per question.
	MaxQueryAttempts = 3

	// BroadResultThreshold is the result count above which a query is treated
	// as too broad and re-filtered by metadata values.
	BroadResultThreshold = 15

	// MaxRetrievedDocuments caps the documents handed downstream.
	MaxRetrievedDocuments = 25
)

// Retry context phrases appended after a failed attempt.
const (
	queryErrorContext = "\nThe previous query '%s' caused an error: %v. Please provide a valid query."
	queryEmptyContext = "\nThe previous query '%s' returned 0 results. Please provide a new query."
)

// entityFields are query fields holding proper names that generation spells inconsistently.
var entityFields = []string{domain.KeyRestaurantName}

// entitySeparators are stripped from entity names.
var entitySeparators = strings.NewReplacer("_", " ", "-", " ", "'", " ", "’", " ", ".", " ")

// queryFormat accepts any JSON object; the record store validates operators.
var queryFormat = &driven.ResponseFormat{
	Name:   "record_query",
	Schema: map[string]any{"type": "object"},
}

// QueryBuilder generates record store queries with retry-on-failure and
// post-filters the result against over- and under-constrained queries.
type QueryBuilder struct {
	judge   *StructuredJudge
	records driven.RecordStore
}

// NewQueryBuilder creates a query builder.
func NewQueryBuilder(judge *StructuredJudge, records driven.RecordStore) *QueryBuilder {
	return &QueryBuilder{
		judge:   judge,
		records: records,
	}
}

// Build runs one generation attempt. priorContext is the accumulated retry context.
func (b *QueryBuilder) Build(
	ctx context.Context,
	question string,
	fields domain.FieldDescriptions,
	priorContext string,
	attempt int,
) (domain.GeneratedQuery, error) {
	query := domain.GeneratedQuery{Attempt: attempt, Context: priorContext}
	if i := strings.LastIndex(priorContext, "\n"); i >= 0 {
		query.PriorError = strings.TrimSpace(priorContext[i:])
	}

	var filter map[string]any
	err := b.judge.Extract(ctx, driven.PromptQueryGeneration, map[string]string{
		"question":           question,
		"field_descriptions": fields.String(),
		"previous_attempts":  priorContext,
	}, queryFormat, &filter)
	if err != nil {
		return query, fmt.Errorf("generate query: %w", err)
	}
	if filter == nil {
		filter = map[string]any{}
	}

	for _, key := range entityFields {
		if name, ok := filter[key].(string); ok {
			filter[key] = NormalizeEntity(name)
		}
	}
	query.Filter = filter
	return query, nil
}

// Retrieve generates queries until one parses and returns records, then applies
// the broad and empty result policies. Exhausting attempts is not an error;
// only connectivity failures are returned.
func (b *QueryBuilder) Retrieve(
	ctx context.Context,
	question string,
	fields domain.FieldDescriptions,
	menu *domain.MenuMetadata,
	dish *domain.DishMetadata,
) ([]domain.Document, error) {
	var (
		records      []domain.Record
		retryContext string
		last         domain.GeneratedQuery
	)

	for attempt := 1; attempt <= MaxQueryAttempts; attempt++ {
		query, err := b.Build(ctx, question, fields, retryContext, attempt)
		if err != nil {
			if domain.IsFatal(err) {
				return nil, err
			}
			logger.FromContext(ctx).Warn("Query generation failed (attempt %d/%d): %v", attempt, MaxQueryAttempts, err)
			retryContext += fmt.Sprintf(queryErrorContext, last, err)
			continue
		}
		last = query
		logger.FromContext(ctx).Debug("Generated query (attempt %d): %s", attempt, query)

		found, err := b.records.Find(ctx, query.Filter)
		if err != nil {
			if domain.IsFatal(err) {
				return nil, fmt.Errorf("find records: %w", err)
			}
			logger.FromContext(ctx).Warn("Query rejected (attempt %d/%d): %v", attempt, MaxQueryAttempts, err)
			retryContext += fmt.Sprintf(queryErrorContext, query, err)
			continue
		}
		if len(found) == 0 {
			logger.FromContext(ctx).Debug("Query returned no records, retrying")
			retryContext += fmt.Sprintf(queryEmptyContext, query)
			continue
		}

		logger.FromContext(ctx).Info("Retrieved %d records on attempt %d", len(found), attempt)
		records = found
		break
	}

	if len(records) == 0 {
		logger.FromContext(ctx).Warn("No records after %d attempts", MaxQueryAttempts)
	}

	return b.postFilter(ctx, domain.RecordsToDocuments(records), domain.MetadataValues(menu, dish))
}

// postFilter re-filters broad results by metadata values and falls back to a
// full scan when nothing was found, then truncates to MaxRetrievedDocuments.
func (b *QueryBuilder) postFilter(ctx context.Context, docs []domain.Document, values []string) ([]domain.Document, error) {
	if len(docs) > BroadResultThreshold {
		logger.FromContext(ctx).Debug("Broad result (%d documents), filtering by %v", len(docs), values)
		docs = containingAny(docs, values)
	}

	if len(docs) == 0 {
		if len(values) == 0 {
			logger.FromContext(ctx).Debug("No metadata values to fall back on")
			return []domain.Document{}, nil
		}

		logger.FromContext(ctx).Debug("Empty result, scanning all records for %v", values)
		all, err := b.records.Find(ctx, map[string]any{})
		if err != nil {
			if domain.IsFatal(err) {
				return nil, fmt.Errorf("scan records: %w", err)
			}
			logger.FromContext(ctx).Warn("Full scan failed: %v", err)
			return []domain.Document{}, nil
		}
		docs = containingAny(domain.RecordsToDocuments(all), values)
	}

	if len(docs) > MaxRetrievedDocuments {
		docs = docs[:MaxRetrievedDocuments]
	}
	return docs, nil
}

// containingAny keeps documents whose content contains at least one value.
// No values keeps nothing.
func containingAny(docs []domain.Document, values []string) []domain.Document {
	kept := []domain.Document{}
	if len(values) == 0 {
		return kept
	}
	for _, doc := range docs {
		for _, v := range values {
			if strings.Contains(doc.Content, v) {
				kept = append(kept, doc)
				break
			}
		}
	}
	return kept
}

// NormalizeEntity case-folds a proper name, turns separators into spaces and
// collapses whitespace.
func NormalizeEntity(name string) string {
	return strings.Join(strings.Fields(entitySeparators.Replace(strings.ToLower(name))), " ")
}
