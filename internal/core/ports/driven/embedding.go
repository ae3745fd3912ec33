package driven

import "context"

// EmbeddingService turns menu chunks, manual sections and questions into
// vectors for the vectorstore route. Without one, the document store falls
// back to lexical overlap.
type EmbeddingService interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order, one vector per input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length of the configured model.
	Dimensions() int

	// ModelName identifies the model stored alongside each vector.
	ModelName() string

	// Ping sends a minimal request to confirm the provider answers.
	Ping(ctx context.Context) error

	Close() error
}
