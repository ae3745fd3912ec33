package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// MinTokenOverlap is the token overlap ratio at which two values match.
const MinTokenOverlap = 0.8

// fieldNormaliser lower-cases and turns underscores and apostrophes into spaces.
var fieldNormaliser = strings.NewReplacer("_", " ", "'", " ", "’", " ")

// condition is one sub-condition over document metadata.
type condition func(metadata map[string]any) bool

// CompileFilter builds the relevance predicate for extracted metadata.
// Every set field contributes one sub-condition and the predicate is the OR
// of all of them, across both scopes. It returns nil when nothing is set.
func CompileFilter(menu *domain.MenuMetadata, dish *domain.DishMetadata) domain.Predicate {
	menuPred := compileScope(menu.Fields())
	dishPred := compileScope(dish.Fields())

	switch {
	case menuPred == nil && dishPred == nil:
		return nil
	case menuPred == nil:
		return dishPred
	case dishPred == nil:
		return menuPred
	default:
		return func(metadata map[string]any) bool {
			return menuPred(metadata) || dishPred(metadata)
		}
	}
}

// compileScope ORs the sub-conditions of one metadata scope.
func compileScope(fields []domain.MetadataField) domain.Predicate {
	if len(fields) == 0 {
		return nil
	}
	conds := make([]condition, len(fields))
	for i, f := range fields {
		conds[i] = fieldCondition(f)
	}
	return func(metadata map[string]any) bool {
		for _, c := range conds {
			if c(metadata) {
				return true
			}
		}
		return false
	}
}

// fieldCondition matches a document when its value for the field fuzzily equals
// any wanted value. An absent key never matches; a null value always does.
func fieldCondition(f domain.MetadataField) condition {
	wanted := make([][]string, 0, len(f.Values))
	for _, v := range f.Values {
		wanted = append(wanted, tokenize(v))
	}

	return func(metadata map[string]any) bool {
		raw, ok := metadata[f.Key]
		if !ok {
			return false
		}
		if raw == nil {
			return true
		}
		for _, have := range metadataStrings(raw) {
			haveTokens := tokenize(have)
			for _, w := range wanted {
				if overlapRatio(w, haveTokens) >= MinTokenOverlap {
					return true
				}
			}
		}
		return false
	}
}

// metadataStrings flattens a document metadata value into strings.
func metadataStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}

// tokenize normalises a value and splits it into words.
func tokenize(s string) []string {
	return strings.Fields(fieldNormaliser.Replace(strings.ToLower(s)))
}

// overlapRatio returns the larger of the shared word count divided by the size
// of either word set. Empty sets yield 0.
func overlapRatio(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	return max(float64(shared)/float64(len(setA)), float64(shared)/float64(len(setB)))
}

// TokenOverlap returns the overlap ratio of two values after normalisation.
func TokenOverlap(a, b string) float64 {
	return overlapRatio(tokenize(a), tokenize(b))
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
