package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider or store type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnavailable indicates a collaborator cannot be reached.
	// It is the only error class that aborts a workflow run.
	ErrUnavailable = errors.New("unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = fmt.Errorf("LLM service %w", ErrUnavailable)

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	// Similarity search is disabled without embeddings.
	ErrEmbeddingUnavailable = fmt.Errorf("embedding service %w", ErrUnavailable)

	// ErrStoreUnavailable indicates a document, record or graph store is unreachable.
	ErrStoreUnavailable = fmt.Errorf("store %w", ErrUnavailable)

	// ErrStoreQuery indicates the record store rejected a generated query.
	// The query builder turns it into retry context.
	ErrStoreQuery = errors.New("store rejected query")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// GenerationErrorKind classifies a failed structured generation.
type GenerationErrorKind string

// Generation failure kinds.
const (
	// GenerationUnreachable means the language model could not be called.
	GenerationUnreachable GenerationErrorKind = "unreachable"

	// GenerationTimeout means the call exceeded its per-call deadline.
	GenerationTimeout GenerationErrorKind = "timeout"

	// GenerationNonConforming means the payload did not match the requested shape.
	GenerationNonConforming GenerationErrorKind = "nonconforming"
)

// GenerationError is returned when a structured generation fails.
// It is never retried where it is produced.
type GenerationError struct {
	Kind   GenerationErrorKind
	Prompt string
	Err    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation %s (%s)", e.Kind, e.Prompt)
	}
	return fmt.Sprintf("generation %s (%s): %v", e.Kind, e.Prompt, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is reports whether an unreachable generation matches ErrUnavailable.
func (e *GenerationError) Is(target error) bool {
	return e.Kind == GenerationUnreachable && target == ErrUnavailable
}

// IsFatal returns true if err must abort a workflow run.
// Only connectivity failures and cancellation qualify; data-shape failures degrade locally.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled)
}
