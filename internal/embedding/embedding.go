// Package embedding maps text to fixed-size vectors through a configurable
// backend model.
package embedding

import "context"

// Embedder turns text into a fixed-size vector. Implementations wrap a
// remote embedding model; the vector dimension is fixed per model and must
// match the collection being queried.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// ModelName returns the backing model identifier.
	ModelName() string
}
