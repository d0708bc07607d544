package models

// SearchResult is one ranked hit: the ingested image's path and its cosine
// similarity to the query, in [-1, 1].
type SearchResult struct {
	ID    string  `json:"id,omitempty"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	QueryTime int64          `json:"query_time_ms"`
}

// IngestRequest asks the server to embed and index the image at Path.
// The path is resolved on the server's filesystem.
type IngestRequest struct {
	Path string `json:"path"`
}

// IngestResponse confirms an indexed image.
type IngestResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Path   string `json:"path"`
}

// StatusResponse reports index and model state.
type StatusResponse struct {
	IndexSize   int      `json:"index_size"`
	Dimensions  int      `json:"dimensions"`
	ModelReady  bool     `json:"model_ready"`
	WatchedDirs []string `json:"watched_dirs,omitempty"`
}
