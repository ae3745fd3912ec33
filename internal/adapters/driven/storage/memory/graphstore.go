package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure GraphStore implements the interface.
var _ driven.GraphStore = (*GraphStore)(nil)

// GraphStore is an in-memory implementation of driven.GraphStore over a flat
// dish list. Names are compared case-insensitively.
type GraphStore struct {
	mu     sync.RWMutex
	dishes []domain.Dish
}

// NewGraphStore creates a graph store holding dishes.
func NewGraphStore(dishes ...domain.Dish) *GraphStore {
	return &GraphStore{dishes: dishes}
}

// AddDish adds a dish node with its relationships.
func (s *GraphStore) AddDish(d domain.Dish) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dishes = append(s.dishes, d)
}

// QueryByIngredients returns dishes containing every ingredient.
func (s *GraphStore) QueryByIngredients(_ context.Context, ingredients []string) ([]domain.Dish, error) {
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: no ingredients", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []domain.Dish
	for _, d := range s.dishes {
		if containsAllFold(d.Ingredients, ingredients) {
			found = append(found, d)
		}
	}
	return found, nil
}

// QueryByLocation returns dishes served on a planet.
func (s *GraphStore) QueryByLocation(_ context.Context, planet string) ([]domain.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []domain.Dish
	for _, d := range s.dishes {
		if strings.EqualFold(d.Planet, planet) {
			found = append(found, d)
		}
	}
	return found, nil
}

// QueryByRawExpression is not supported without a query engine.
func (s *GraphStore) QueryByRawExpression(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, fmt.Errorf("raw graph expressions: %w", domain.ErrNotImplemented)
}

// Close releases resources (no-op for memory store).
func (s *GraphStore) Close() error {
	return nil
}

func containsAllFold(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
