package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Loader brings an Embedder online exactly once under concurrent first use,
// without blocking process startup. Construction is deferred until the first
// Get (double-checked locking: an atomic ready flag on the fast path, a
// mutex around the slow construction path). A failed construction leaves
// the slot empty so a later Get retries; a successful one is permanent for
// the process lifetime.
type Loader struct {
	construct func() (Embedder, error)
	ready     atomic.Bool
	mu        sync.Mutex
	embedder  Embedder
}

// NewLoader creates a loader around the given construction function. The
// function is not called until the first Get.
func NewLoader(construct func() (Embedder, error)) *Loader {
	return &Loader{construct: construct}
}

// Get returns the singleton embedder, constructing it on first call.
// Construction runs at most once on success and never concurrently with
// itself. On failure the error wraps ErrUnavailable and the next Get
// retries.
func (l *Loader) Get() (Embedder, error) {
	if l.ready.Load() {
		return l.embedder, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready.Load() {
		return l.embedder, nil
	}
	emb, err := l.construct()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	l.embedder = emb
	l.ready.Store(true)
	return emb, nil
}

// Ready reports whether construction has completed successfully. It never
// blocks and never triggers construction.
func (l *Loader) Ready() bool {
	return l.ready.Load()
}

// EmbedText ensures the embedder is ready and embeds the given text.
func (l *Loader) EmbedText(ctx context.Context, text string) ([]float32, error) {
	emb, err := l.Get()
	if err != nil {
		return nil, err
	}
	return emb.EmbedText(ctx, text)
}

// EmbedImage ensures the embedder is ready and embeds the image at path.
func (l *Loader) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	emb, err := l.Get()
	if err != nil {
		return nil, err
	}
	return emb.EmbedImage(ctx, path)
}

// Close tears down the embedder if it was constructed. Intended for process
// shutdown; the loader is not reusable afterwards.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.embedder == nil {
		return nil
	}
	return l.embedder.Close()
}
