package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure DishCatalog implements the interface.
var _ driven.DishCatalog = (*DishCatalog)(nil)

// DishCatalog maps dish names to their dataset ids.
type DishCatalog struct {
	ids map[string]int
}

// LoadDishCatalog reads a JSON object mapping dish names to ids.
// Ids may be numbers or numeric strings.
func LoadDishCatalog(path string) (*DishCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dish mapping: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dish mapping: %w", err)
	}

	ids := make(map[string]int, len(raw))
	for name, value := range raw {
		id, err := parseID(value)
		if err != nil {
			return nil, fmt.Errorf("dish %q: %w", name, err)
		}
		ids[normaliseName(name)] = id
	}
	return &DishCatalog{ids: ids}, nil
}

// NewDishCatalog builds a catalog from a name to id map.
func NewDishCatalog(ids map[string]int) *DishCatalog {
	normalised := make(map[string]int, len(ids))
	for name, id := range ids {
		normalised[normaliseName(name)] = id
	}
	return &DishCatalog{ids: normalised}
}

// Lookup returns the id for a dish name, ignoring case and surrounding space.
func (c *DishCatalog) Lookup(name string) (int, bool) {
	id, ok := c.ids[normaliseName(name)]
	return id, ok
}

// Len returns the number of dishes.
func (c *DishCatalog) Len() int {
	return len(c.ids)
}

func normaliseName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func parseID(value json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, fmt.Errorf("id must be a number or numeric string: %s", value)
	}
	return strconv.Atoi(strings.TrimSpace(s))
}
