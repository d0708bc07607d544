//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

var errNoCGO = errors.New("CLIP embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// CLIPEmbedder stub type when built without CGO (see clip.go for the real
// implementation).
type CLIPEmbedder struct{}

// NewCLIPEmbedder returns an error when built without CGO (ONNX runtime not
// available).
func NewCLIPEmbedder(_, _ string, _, _, _ int) (*CLIPEmbedder, error) {
	return nil, errNoCGO
}

func (e *CLIPEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return nil, errNoCGO
}

func (e *CLIPEmbedder) EmbedImage(context.Context, string) ([]float32, error) {
	return nil, errNoCGO
}

func (e *CLIPEmbedder) Dimensions() int { return 0 }

func (e *CLIPEmbedder) Close() error { return nil }
