// Package embedding provides text and image embedding via a CLIP ONNX model,
// a lazy singleton loader for the model, and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the embedding provider could not be
// constructed. A later call retries construction from scratch.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder produces vector embeddings for text queries and image files.
// Text and image embeddings live in one shared vector space, so a text
// query can be matched against stored image vectors by cosine similarity.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, path string) ([]float32, error)
	Dimensions() int
	Close() error
}
