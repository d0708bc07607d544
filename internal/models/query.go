// Package models defines request and response types for the VisionQuery API.
package models

import "fmt"

// SearchQuery is a semantic search request: a free-text query matched
// against ingested images.
type SearchQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate ensures the query is non-empty and normalizes TopK into
// [1, maxTopK], applying defaultTopK when unset.
func (q *SearchQuery) Validate(defaultTopK, maxTopK int) error {
	if q.Query == "" {
		return fmt.Errorf("query text required")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}
