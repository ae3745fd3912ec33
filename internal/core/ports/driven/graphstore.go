package driven

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// GraphStore answers dish queries over the restaurant graph.
// This is an optional service - when nil, retrieval uses the document
// and record stores only.
type GraphStore interface {
	// QueryByIngredients returns dishes containing ALL of the ingredients.
	// This is deliberately strict, unlike the permissive relevance filter.
	QueryByIngredients(ctx context.Context, ingredients []string) ([]domain.Dish, error)

	// QueryByLocation returns dishes served on a planet.
	QueryByLocation(ctx context.Context, planet string) ([]domain.Dish, error)

	// QueryByRawExpression runs a store-native read query.
	QueryByRawExpression(ctx context.Context, expr string, params map[string]any) ([]map[string]any, error)

	// Close releases resources.
	Close() error
}

// GraphSchemaDescriber is implemented by graph stores whose raw expressions
// can be generated. The description lists what an expression may reference.
type GraphSchemaDescriber interface {
	ExpressionSchema() string
}

// DishWriter loads dishes into the graph.
type DishWriter interface {
	// AddDishes stores dishes with their ingredient and technique edges.
	AddDishes(ctx context.Context, dishes []domain.Dish) error
}
