// Package scoring ranks documents for similarity search in the local stores.
package scoring

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Cosine returns the cosine similarity of two vectors.
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Terms splits text into lower-cased letter and digit runs.
func Terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Lexical scores a document by the share of distinct query terms it contains.
func Lexical(query, content string) float64 {
	queryTerms := distinct(Terms(query))
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := distinct(Terms(content))
	hits := 0
	for t := range queryTerms {
		if _, ok := docTerms[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}

// Candidate is a scored item awaiting ranking.
type Candidate struct {
	Index int
	Score float64
}

// TopK returns up to k candidates by descending score. Ties keep insertion order.
func TopK(candidates []Candidate, k int) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if k >= 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

func distinct(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}
