package services

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// NoResult is recorded for a question with no identifiable dish.
const NoResult = "1"

// ResultFormatter maps result entity names to dataset identifiers.
type ResultFormatter struct {
	catalog driven.DishCatalog
}

// NewResultFormatter creates a formatter. A nil catalog formats every result as NoResult.
func NewResultFormatter(catalog driven.DishCatalog) *ResultFormatter {
	return &ResultFormatter{catalog: catalog}
}

// Format joins the ids of known dishes with commas, in result order without
// duplicates. Unknown names are skipped; no ids yields NoResult.
func (f *ResultFormatter) Format(results []string) string {
	if f == nil || f.catalog == nil {
		return NoResult
	}

	seen := make(map[int]struct{}, len(results))
	ids := make([]string, 0, len(results))
	for _, name := range results {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := f.catalog.Lookup(name)
		if !ok {
			logger.Debug("Dish %q not in catalog", name)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, strconv.Itoa(id))
	}

	if len(ids) == 0 {
		return NoResult
	}
	return strings.Join(ids, ",")
}
