package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/aaryabookseller16/Vision-Query/internal/embedding"
	"github.com/aaryabookseller16/Vision-Query/internal/vector"
)

func populatedIndex(b *testing.B, n, dims int) *vector.Index {
	b.Helper()
	idx := vector.New(dims)
	for i := 0; i < n; i++ {
		vec := make([]float32, dims)
		vec[i%dims] = 1
		vec[(i+1)%dims] = float32(i%97) / 97
		if err := idx.Add(vec, vector.Metadata{"path": fmt.Sprintf("img-%d.jpg", i)}); err != nil {
			b.Fatal(err)
		}
	}
	return idx
}

func BenchmarkIndexSearch(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			idx := populatedIndex(b, n, 512)
			query := make([]float32, 512)
			query[0] = 1
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := idx.Search(query, 10); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkIndexAdd(b *testing.B) {
	idx := vector.New(512)
	vec := make([]float32, 512)
	vec[0] = 1
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := idx.Add(vec, vector.Metadata{"path": "a.jpg"}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMockEmbedder_EmbedText(b *testing.B) {
	e := embedding.NewMockEmbedder(512)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.EmbedText(ctx, "benchmark query text for embedding"); err != nil {
			b.Fatal(err)
		}
	}
}
