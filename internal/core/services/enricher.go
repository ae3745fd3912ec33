package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// EnrichmentK is the number of documents fetched per auxiliary partition.
const EnrichmentK = 5

var distanceQueryFormat = &driven.ResponseFormat{
	Name: "distance_query",
	Schema: objectSchema(map[string]any{
		"planet":   map[string]any{"type": "string"},
		"distance": map[string]any{"type": "number"},
	}, "planet", "distance"),
}

// Enrichment is the output of one enrichment pass.
type Enrichment struct {
	// Documents are in regulatory, manual, distance order.
	Documents []domain.AuxDocument

	// NearEntities are the planets found by the distance lookup.
	NearEntities []string
}

// KnowledgeEnricher decides per question which auxiliary sources are needed
// and fetches them concurrently.
type KnowledgeEnricher struct {
	judge     *StructuredJudge
	docs      driven.DocumentStore
	distances driven.DistanceTable
}

// NewKnowledgeEnricher creates an enricher. distances may be nil.
func NewKnowledgeEnricher(judge *StructuredJudge, docs driven.DocumentStore, distances driven.DistanceTable) *KnowledgeEnricher {
	return &KnowledgeEnricher{
		judge:     judge,
		docs:      docs,
		distances: distances,
	}
}

// Enrich runs the three independent decisions and fetches. A failed decision
// counts as "not needed"; only connectivity failures are returned.
func (e *KnowledgeEnricher) Enrich(ctx context.Context, question string) (Enrichment, error) {
	var (
		codeDocs   []domain.Document
		manualDocs []domain.Document
		near       []string
		distance   domain.DistanceQuery
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		docs, err := e.partition(groupCtx, question, driven.PromptNeedsCode, domain.PartitionCode)
		codeDocs = docs
		return err
	})
	group.Go(func() error {
		docs, err := e.partition(groupCtx, question, driven.PromptNeedsManual, domain.PartitionManual)
		manualDocs = docs
		return err
	})
	group.Go(func() error {
		q, planets, err := e.nearPlanets(groupCtx, question)
		distance, near = q, planets
		return err
	})

	if err := group.Wait(); err != nil {
		return Enrichment{}, err
	}

	var out Enrichment
	for _, d := range codeDocs {
		out.Documents = append(out.Documents, domain.AuxDocument{Kind: domain.AuxRegulatory, Document: d})
	}
	for _, d := range manualDocs {
		out.Documents = append(out.Documents, domain.AuxDocument{Kind: domain.AuxManual, Document: d})
	}
	if len(near) > 0 {
		out.NearEntities = near
		out.Documents = append(out.Documents, domain.AuxDocument{
			Kind:     domain.AuxDistance,
			Document: distanceDocument(distance, near),
		})
	}

	logger.FromContext(ctx).Info("Enrichment: %d regulatory, %d manual, %d near planets",
		len(codeDocs), len(manualDocs), len(near))
	return out, nil
}

// need asks one boolean enrichment question.
func (e *KnowledgeEnricher) need(ctx context.Context, question, prompt string) (bool, error) {
	ok, err := e.judge.Score(ctx, prompt, map[string]string{"question": question})
	if err != nil {
		if domain.IsFatal(err) {
			return false, err
		}
		logger.FromContext(ctx).Warn("Enrichment decision %s failed, skipping: %v", prompt, err)
		return false, nil
	}
	return ok, nil
}

// partition fetches the top documents from an auxiliary partition when needed.
func (e *KnowledgeEnricher) partition(
	ctx context.Context, question, prompt string, partition domain.Partition,
) ([]domain.Document, error) {
	needed, err := e.need(ctx, question, prompt)
	if err != nil || !needed {
		return nil, err
	}
	if e.docs == nil {
		return nil, nil
	}

	docs, err := e.docs.SimilaritySearch(ctx, question, EnrichmentK, driven.SearchFilter{Partition: partition})
	if err != nil {
		if domain.IsFatal(err) {
			return nil, fmt.Errorf("search %s: %w", partition, err)
		}
		logger.FromContext(ctx).Warn("Search in %s failed: %v", partition, err)
		return nil, nil
	}
	return docs, nil
}

// nearPlanets extracts a distance query and looks it up when needed.
func (e *KnowledgeEnricher) nearPlanets(ctx context.Context, question string) (domain.DistanceQuery, []string, error) {
	var query domain.DistanceQuery
	if e.distances == nil {
		return query, nil, nil
	}
	needed, err := e.need(ctx, question, driven.PromptNeedsDistance)
	if err != nil || !needed {
		return query, nil, err
	}

	err = e.judge.Extract(ctx, driven.PromptDistanceQuery, map[string]string{"question": question},
		distanceQueryFormat, &query)
	if err != nil {
		if domain.IsFatal(err) {
			return query, nil, err
		}
		logger.FromContext(ctx).Warn("Distance query extraction failed: %v", err)
		return query, nil, nil
	}
	query.Planet = strings.TrimSpace(query.Planet)
	if query.Planet == "" || query.Distance <= 0 {
		logger.FromContext(ctx).Warn("Ignoring invalid distance query %+v", query)
		return query, nil, nil
	}

	planets, err := e.distances.NearestEntities(ctx, query.Planet, query.Distance)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		logger.FromContext(ctx).Warn("Unknown planet %q in distance table", query.Planet)
		return query, nil, nil
	case domain.IsFatal(err):
		return query, nil, fmt.Errorf("nearest planets: %w", err)
	default:
		logger.FromContext(ctx).Warn("Distance lookup for %q failed, skipping: %v", query.Planet, err)
		return query, nil, nil
	}
	return query, planets, nil
}

// distanceDocument renders a distance lookup as context for generation.
func distanceDocument(q domain.DistanceQuery, planets []string) domain.Document {
	return domain.Document{
		Content: fmt.Sprintf("Pianeti entro %g anni luce da %s: %s",
			q.Distance, q.Planet, strings.Join(planets, ", ")),
		Metadata: map[string]any{
			domain.KeyPlanetName: planets,
		},
	}
}
