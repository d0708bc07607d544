// Package cli provides CLI output utilities for VisionQuery.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aaryabookseller16/Vision-Query/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
	// OutputCompact is one result per line (path and score).
	OutputCompact SearchOutputFormat = "compact"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%.4f\t%s\n", r.Score, r.Path)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n",
		len(response.Results), response.Query, response.QueryTime)
	for i, r := range response.Results {
		fmt.Fprintf(w, "%2d. %s\n    score: %.4f\n", i+1, r.Path, r.Score)
	}
	fmt.Fprintln(w)
}
