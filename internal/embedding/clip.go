//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// CLIPEmbedder runs a CLIP dual encoder exported to ONNX: one session for
// the text encoder and one for the vision encoder. It requires CGO and the
// onnxruntime shared library. Sessions reuse pre-allocated tensors, so each
// is guarded by its own mutex.
type CLIPEmbedder struct {
	dimensions int
	maxTokens  int
	cache      *Cache
	tokenizer  Tokenizer

	textSession   *ort.AdvancedSession
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	textOutput    *ort.Tensor[float32]
	textMu        sync.Mutex

	imageSession *ort.AdvancedSession
	pixelValues  *ort.Tensor[float32]
	imageOutput  *ort.Tensor[float32]
	imageMu      sync.Mutex
}

// NewCLIPEmbedder creates a CLIP embedder from the exported text and vision
// encoder model files. InitializeEnvironment is called if not already done.
func NewCLIPEmbedder(textModelPath, imageModelPath string, dimensions, maxTokens, cacheSize int) (*CLIPEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	e := &CLIPEmbedder{
		dimensions: dimensions,
		maxTokens:  maxTokens,
		cache:      NewCache(cacheSize),
		tokenizer:  &SimpleTokenizer{},
	}

	ids, mask := e.tokenizer.Tokenize("", maxTokens)
	var err error
	e.inputIDs, err = ort.NewTensor(ort.NewShape(1, int64(maxTokens)), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	e.attentionMask, err = ort.NewTensor(ort.NewShape(1, int64(maxTokens)), mask)
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	e.textOutput, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("failed to create text output tensor: %w", err)
	}
	e.textSession, err = ort.NewAdvancedSession(
		textModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask},
		[]ort.ArbitraryTensor{e.textOutput},
		nil,
	)
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("failed to create CLIP text session: %w", err)
	}

	e.pixelValues, err = ort.NewTensor(
		ort.NewShape(1, 3, clipImageSize, clipImageSize),
		make([]float32, 3*clipImageSize*clipImageSize),
	)
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("failed to create pixel_values tensor: %w", err)
	}
	e.imageOutput, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("failed to create image output tensor: %w", err)
	}
	e.imageSession, err = ort.NewAdvancedSession(
		imageModelPath,
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		[]ort.ArbitraryTensor{e.pixelValues},
		[]ort.ArbitraryTensor{e.imageOutput},
		nil,
	)
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("failed to create CLIP vision session: %w", err)
	}

	return e, nil
}

// EmbedText returns the unit-normalized embedding for text, using the cache
// when available.
func (e *CLIPEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := "text:" + text
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	e.textMu.Lock()
	defer e.textMu.Unlock()

	ids, mask := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)

	if err := e.textSession.Run(); err != nil {
		return nil, fmt.Errorf("text inference failed: %w", err)
	}

	embedding := make([]float32, e.dimensions)
	copy(embedding, e.textOutput.GetData()[:e.dimensions])
	normalizeL2(embedding)
	e.cache.Set(key, embedding)
	return embedding, nil
}

// EmbedImage decodes and preprocesses the image at path and returns its
// unit-normalized embedding, using the cache when available.
func (e *CLIPEmbedder) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	key := "image:" + path
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	pixels, err := loadImageTensor(path)
	if err != nil {
		return nil, err
	}

	e.imageMu.Lock()
	defer e.imageMu.Unlock()

	copy(e.pixelValues.GetData(), pixels)
	if err := e.imageSession.Run(); err != nil {
		return nil, fmt.Errorf("image inference failed: %w", err)
	}

	embedding := make([]float32, e.dimensions)
	copy(embedding, e.imageOutput.GetData()[:e.dimensions])
	normalizeL2(embedding)
	e.cache.Set(key, embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (e *CLIPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys both sessions and all tensors.
func (e *CLIPEmbedder) Close() error {
	e.destroy()
	return nil
}

func (e *CLIPEmbedder) destroy() {
	if e.textSession != nil {
		_ = e.textSession.Destroy()
		e.textSession = nil
	}
	if e.imageSession != nil {
		_ = e.imageSession.Destroy()
		e.imageSession = nil
	}
	for _, t := range []*ort.Tensor[int64]{e.inputIDs, e.attentionMask} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	for _, t := range []*ort.Tensor[float32]{e.textOutput, e.pixelValues, e.imageOutput} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	e.inputIDs, e.attentionMask, e.textOutput = nil, nil, nil
	e.pixelValues, e.imageOutput = nil, nil
}
