package embedding

import (
	"context"
	"math"
)

// MockEmbedder is a deterministic embedder for tests and for running the
// server without a model. It derives a fixed-dimension unit vector from a
// hash of the input, so identical inputs always produce identical
// embeddings. Text and image inputs are hashed in separate namespaces.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &MockEmbedder{dimensions: dimensions}
}

// EmbedText returns a deterministic embedding derived from the text hash.
func (e *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.fromHash(hashString("text:" + text)), nil
}

// EmbedImage returns a deterministic embedding derived from the path hash.
// The file is not read.
func (e *MockEmbedder) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	return e.fromHash(hashString("image:" + path)), nil
}

func (e *MockEmbedder) fromHash(h int) []float32 {
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	// Unit length so dot product equals cosine similarity.
	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

// hashString returns a deterministic non-negative hash of s.
func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
