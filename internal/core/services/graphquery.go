package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

var graphQueryFormat = &driven.ResponseFormat{
	Name: "graph_query",
	Schema: objectSchema(map[string]any{
		"query": map[string]any{"type": "string"},
	}, "query"),
}

// graphQuery is the payload of a generated graph expression.
type graphQuery struct {
	Query string `json:"query"`
}

// GraphRetriever turns extracted metadata into dish graph lookups. Ingredients
// and planets use the typed queries; techniques, chefs and restaurants go
// through a generated read-only expression when the store supports one.
type GraphRetriever struct {
	judge *StructuredJudge
	graph driven.GraphStore
}

// NewGraphRetriever creates a graph retriever. graph may be nil.
func NewGraphRetriever(judge *StructuredJudge, graph driven.GraphStore) *GraphRetriever {
	return &GraphRetriever{judge: judge, graph: graph}
}

// Retrieve returns the matching dishes as documents. Ingredient and planet
// results are intersected when both are set. Only connectivity failures are
// returned.
func (r *GraphRetriever) Retrieve(
	ctx context.Context, question string, menu *domain.MenuMetadata, dish *domain.DishMetadata,
) ([]domain.Document, error) {
	if r.graph == nil {
		return nil, nil
	}
	log := logger.FromContext(ctx)

	var (
		dishes []domain.Dish
		typed  bool
	)
	if dish != nil && len(dish.Ingredients) > 0 {
		found, err := r.graph.QueryByIngredients(ctx, dish.Ingredients)
		switch {
		case err == nil:
			dishes, typed = found, true
		case domain.IsFatal(err):
			return nil, fmt.Errorf("graph query: %w", err)
		default:
			log.Warn("Ingredient graph query failed: %v", err)
		}
	}
	if planet := planetName(menu); planet != "" {
		found, err := r.graph.QueryByLocation(ctx, planet)
		switch {
		case err == nil && typed:
			dishes = intersectDishes(dishes, found)
		case err == nil:
			dishes, typed = found, true
		case domain.IsFatal(err):
			return nil, fmt.Errorf("graph query: %w", err)
		default:
			log.Warn("Location graph query failed: %v", err)
		}
	}

	docs := make([]domain.Document, 0, len(dishes))
	for _, d := range dishes {
		docs = append(docs, d.ToDocument())
	}

	if needsExpression(menu, dish) {
		rows, err := r.expression(ctx, question)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			docs = append(docs, rowDocument(row))
		}
	}

	log.Debug("Graph store returned %d documents", len(docs))
	return docs, nil
}

// expression generates and runs a raw graph query, feeding errors and empty
// results back into the next attempt. Stores without expression support are
// skipped.
func (r *GraphRetriever) expression(ctx context.Context, question string) ([]map[string]any, error) {
	describer, ok := r.graph.(driven.GraphSchemaDescriber)
	if !ok || r.judge == nil {
		return nil, nil
	}
	log := logger.FromContext(ctx)

	var retryContext, last string
	for attempt := 1; attempt <= MaxQueryAttempts; attempt++ {
		var query graphQuery
		err := r.judge.Extract(ctx, driven.PromptGraphQuery, map[string]string{
			"question":          question,
			"graph_schema":      describer.ExpressionSchema(),
			"previous_attempts": retryContext,
		}, graphQueryFormat, &query)
		if err != nil {
			if domain.IsFatal(err) {
				return nil, err
			}
			log.Warn("Graph query generation failed (attempt %d/%d): %v", attempt, MaxQueryAttempts, err)
			retryContext += fmt.Sprintf(queryErrorContext, last, err)
			continue
		}
		last = strings.TrimSpace(query.Query)
		log.Debug("Generated graph query (attempt %d): %s", attempt, last)

		rows, err := r.graph.QueryByRawExpression(ctx, last, nil)
		switch {
		case errors.Is(err, domain.ErrNotImplemented):
			return nil, nil
		case err != nil && domain.IsFatal(err):
			return nil, fmt.Errorf("graph expression: %w", err)
		case err != nil:
			log.Warn("Graph query rejected (attempt %d/%d): %v", attempt, MaxQueryAttempts, err)
			retryContext += fmt.Sprintf(queryErrorContext, last, err)
		case len(rows) == 0:
			retryContext += fmt.Sprintf(queryEmptyContext, last)
		default:
			return rows, nil
		}
	}
	log.Warn("No graph rows after %d attempts", MaxQueryAttempts)
	return nil, nil
}

// needsExpression reports whether metadata names something the typed graph
// queries cannot select on.
func needsExpression(menu *domain.MenuMetadata, dish *domain.DishMetadata) bool {
	if dish != nil && len(dish.Techniques) > 0 {
		return true
	}
	return menu != nil && (nonEmpty(menu.ChefName) || nonEmpty(menu.RestaurantName))
}

func planetName(menu *domain.MenuMetadata) string {
	if menu == nil || menu.PlanetName == nil {
		return ""
	}
	return strings.TrimSpace(*menu.PlanetName)
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// intersectDishes keeps the dishes of a that also appear in b, by name and
// restaurant.
func intersectDishes(a, b []domain.Dish) []domain.Dish {
	type key struct{ name, restaurant string }
	in := make(map[key]struct{}, len(b))
	for _, d := range b {
		in[key{strings.ToLower(d.Name), strings.ToLower(d.Restaurant)}] = struct{}{}
	}
	kept := []domain.Dish{}
	for _, d := range a {
		if _, ok := in[key{strings.ToLower(d.Name), strings.ToLower(d.Restaurant)}]; ok {
			kept = append(kept, d)
		}
	}
	return kept
}

// rowDocument renders a graph row as one "column: value" line per column in
// sorted order.
func rowDocument(row map[string]any) domain.Document {
	columns := make([]string, 0, len(row))
	for c := range row {
		columns = append(columns, c)
	}
	slices.Sort(columns)

	lines := make([]string, len(columns))
	for i, c := range columns {
		lines[i] = fmt.Sprintf("%s: %v", c, row[c])
	}
	metadata := map[string]any{}
	if name, ok := row["name"].(string); ok {
		metadata[domain.KeyDishName] = name
	}
	return domain.Document{Content: strings.Join(lines, "\n"), Metadata: metadata}
}
