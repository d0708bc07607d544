package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aaryabookseller16/Vision-Query/internal/embedding"
	"github.com/aaryabookseller16/Vision-Query/internal/models"
	"github.com/aaryabookseller16/Vision-Query/internal/vector"
)

func (s *Server) handleIngestImage(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "valid image path required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "image path not found: "+req.Path)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("ingest request", zap.String("path", req.Path))

	vec, err := s.loader.EmbedImage(r.Context(), req.Path)
	if err != nil {
		s.logger.Error("image embedding failed", zap.String("path", req.Path), zap.Error(err))
		if errors.Is(err, embedding.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := uuid.New().String()
	if err := s.index.Add(vec, vector.Metadata{"id": id, "path": req.Path}); err != nil {
		s.logger.Error("indexing failed", zap.String("path", req.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, models.IngestResponse{Status: "indexed", ID: id, Path: req.Path})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Search.DefaultTopK, s.config.Search.MaxTopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	start := time.Now()

	vec, err := s.loader.EmbedText(r.Context(), query.Query)
	if err != nil {
		s.logger.Error("query embedding failed", zap.Error(err))
		if errors.Is(err, embedding.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hits, err := s.index.Search(vec, query.TopK)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		res := models.SearchResult{Score: hit.Score}
		if p, ok := hit.Metadata["path"].(string); ok {
			res.Path = p
		}
		if id, ok := hit.Metadata["id"].(string); ok {
			res.ID = id
		}
		results = append(results, res)
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := models.StatusResponse{
		IndexSize:  s.index.Size(),
		Dimensions: s.index.Dimensions(),
		ModelReady: s.loader.Ready(),
	}
	if s.watch != nil {
		status.WatchedDirs = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
