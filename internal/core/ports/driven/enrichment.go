package driven

import "context"

// WebResult is one web search hit.
type WebResult struct {
	Title   string
	URL     string
	Content string
}

// WebSearcher fetches web results for out-of-domain questions.
// This is an optional service - when nil, the web search stage only enriches.
type WebSearcher interface {
	// Search returns up to maxResults results for query.
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// DistanceTable answers planet distance lookups.
type DistanceTable interface {
	// NearestEntities returns every entity whose tabulated distance to ref is
	// strictly less than maxDistance, in table column order. The reference is
	// included when its self-distance is tabulated below the threshold.
	// Fails with domain.ErrNotFound for an unknown reference.
	NearestEntities(ctx context.Context, ref string, maxDistance float64) ([]string, error)
}
