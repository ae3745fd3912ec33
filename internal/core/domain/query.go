package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GeneratedQuery is a record store filter produced by one generation attempt.
// It is created per attempt and discarded once retrieval succeeds or attempts run out.
type GeneratedQuery struct {
	// Filter is the store-specific query document.
	Filter map[string]any

	// Attempt is the 1-based generation attempt that produced this query.
	Attempt int

	// PriorError is the failure of the previous attempt, if any.
	PriorError string

	// Context is the accumulated retry context the attempt was generated with.
	Context string
}

// String renders the filter as compact JSON for retry context and logs.
func (q GeneratedQuery) String() string {
	if q.Filter == nil {
		return "{}"
	}
	data, err := json.Marshal(q.Filter)
	if err != nil {
		return fmt.Sprint(q.Filter)
	}
	return string(data)
}

// DistanceQuery asks for every planet closer than Distance to Planet.
type DistanceQuery struct {
	Planet   string  `json:"planet"`
	Distance float64 `json:"distance"`
}

// Dish is a dish node from the graph store.
type Dish struct {
	Name        string   `json:"name"`
	Restaurant  string   `json:"restaurant,omitempty"`
	Chef        string   `json:"chef,omitempty"`
	Planet      string   `json:"planet,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Techniques  []string `json:"techniques,omitempty"`
}

// ToDocument renders the dish as a retrieved document.
func (d Dish) ToDocument() Document {
	var b strings.Builder
	fmt.Fprintf(&b, "Piatto: %s", d.Name)
	if d.Restaurant != "" {
		fmt.Fprintf(&b, "\nRistorante: %s", d.Restaurant)
	}
	if len(d.Ingredients) > 0 {
		fmt.Fprintf(&b, "\nIngredienti: %s", strings.Join(d.Ingredients, ", "))
	}
	if len(d.Techniques) > 0 {
		fmt.Fprintf(&b, "\nTecniche: %s", strings.Join(d.Techniques, ", "))
	}

	meta := map[string]any{KeyDishName: d.Name}
	if d.Restaurant != "" {
		meta[KeyRestaurantName] = d.Restaurant
	}
	if d.Chef != "" {
		meta[KeyChefName] = d.Chef
	}
	if d.Planet != "" {
		meta[KeyPlanetName] = d.Planet
	}
	if len(d.Ingredients) > 0 {
		meta[KeyDishIngredients] = d.Ingredients
	}
	if len(d.Techniques) > 0 {
		meta[KeyDishTechniques] = d.Techniques
	}
	return Document{Content: b.String(), Metadata: meta}
}
