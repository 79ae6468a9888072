package driven

import "context"

// EmbeddingService turns text into vectors. Vectors for the same model
// are comparable by cosine similarity; the VectorIndex stores them.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns exactly one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 while the model's size is
	// not yet known.
	Dimensions() int

	ModelName() string

	// Ping checks reachability and credentials without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
