// Package vector provides an in-memory vector index with exact cosine
// similarity search over normalized embeddings.
package vector

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDimensionMismatch is returned when a vector's length disagrees with the
// dimension established for the index.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Metadata is an opaque caller-supplied key-value mapping attached to an
// entry. The index never interprets its contents; by convention it carries
// at least an identifying key such as "path".
type Metadata map[string]interface{}

// Result is a single search hit: the entry's metadata and its cosine
// similarity to the query, in [-1, 1].
type Result struct {
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// selectionThreshold is the store size above which Search switches from a
// full sort to partial selection of the top-k.
const selectionThreshold = 256

// Index is an append-only, concurrency-safe vector index using brute-force
// scan. Vectors are stored L2-normalized so the dot product equals cosine
// similarity. One RWMutex guards the parallel vector and metadata slices as
// a unit, so readers never observe them at different lengths.
type Index struct {
	mu      sync.RWMutex
	dims    int // 0 until established by New or the first Add
	vectors [][]float32
	metas   []Metadata
}

// New creates an index. When dimensions is positive it is fixed up front;
// otherwise the dimension is adopted from the first successful Add.
func New(dimensions int) *Index {
	if dimensions < 0 {
		dimensions = 0
	}
	return &Index{
		dims:    dimensions,
		vectors: make([][]float32, 0),
		metas:   make([]Metadata, 0),
	}
}

// Add appends a vector with its metadata. The vector is stored as an
// L2-normalized copy; the caller's slice is never mutated. A zero-norm
// vector is stored as-is (it scores 0 against everything). Appending may
// grow the backing arrays, so Add is O(n) amortized-or-worse; batching
// under heavy load is a caller concern.
func (x *Index) Add(vec []float32, meta Metadata) error {
	if len(vec) == 0 {
		return fmt.Errorf("add: empty vector: %w", ErrDimensionMismatch)
	}
	norm := normalized(vec)

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dims == 0 {
		x.dims = len(vec)
	} else if len(vec) != x.dims {
		return fmt.Errorf("add: got %d dimensions, index has %d: %w", len(vec), x.dims, ErrDimensionMismatch)
	}
	m := make(Metadata, len(meta))
	for k, v := range meta {
		m[k] = v
	}
	x.vectors = append(x.vectors, norm)
	x.metas = append(x.metas, m)
	return nil
}

// Search returns the topK entries most similar to query, descending by
// score. Ties are broken by insertion order, earlier entries first. The
// query is normalized like stored vectors; a zero-norm query matches
// nothing and yields an empty result. topK values below 1 are treated as 1
// and values above the store size are clamped.
func (x *Index) Search(query []float32, topK int) ([]Result, error) {
	q := normalized(query)

	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("search: got %d dimensions, index has %d: %w", len(query), x.dims, ErrDimensionMismatch)
	}
	if isZero(q) {
		return nil, nil
	}
	if topK < 1 {
		topK = 1
	}
	if topK > len(x.vectors) {
		topK = len(x.vectors)
	}

	scores := make([]float64, len(x.vectors))
	order := make([]int, len(x.vectors))
	for i, vec := range x.vectors {
		scores[i] = dot(q, vec)
		order[i] = i
	}
	// a ranks before b when it scores higher, or equal but inserted earlier.
	before := func(a, b int) bool {
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	}
	if len(order) > selectionThreshold {
		selectTop(order, topK, before)
		order = order[:topK]
	}
	sort.Slice(order, func(i, j int) bool { return before(order[i], order[j]) })

	results := make([]Result, topK)
	for i := 0; i < topK; i++ {
		results[i] = Result{Metadata: x.metas[order[i]], Score: scores[order[i]]}
	}
	return results, nil
}

// Size returns the number of stored entries.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dimensions returns the established dimension, or 0 when the index is
// still empty and was created without an explicit dimension.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// selectTop partitions order so that its first k elements are the top k
// under before, unordered (quickselect). Expected O(n).
func selectTop(order []int, k int, before func(a, b int) bool) {
	lo, hi := 0, len(order)-1
	for lo < hi {
		p := partition(order, lo, hi, before)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition(order []int, lo, hi int, before func(a, b int) bool) int {
	// Median-of-three pivot guards against already-sorted score runs.
	mid := lo + (hi-lo)/2
	if before(order[mid], order[lo]) {
		order[lo], order[mid] = order[mid], order[lo]
	}
	if before(order[hi], order[lo]) {
		order[lo], order[hi] = order[hi], order[lo]
	}
	if before(order[hi], order[mid]) {
		order[mid], order[hi] = order[hi], order[mid]
	}
	order[mid], order[hi] = order[hi], order[mid]
	pivot := order[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if before(order[j], pivot) {
			order[i], order[j] = order[j], order[i]
			i++
		}
	}
	order[i], order[hi] = order[hi], order[i]
	return i
}
