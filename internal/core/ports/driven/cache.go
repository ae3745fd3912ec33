package driven

import "context"

// JudgmentCache memoises validated structured payloads keyed by prompt,
// inputs, shape and model. This is an optional service.
type JudgmentCache interface {
	// Get returns the cached payload and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a payload.
	Set(ctx context.Context, key, payload string) error
}
