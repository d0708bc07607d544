package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/aaryabookseller16/Vision-Query/internal/config"
	"github.com/aaryabookseller16/Vision-Query/internal/embedding"
	"github.com/aaryabookseller16/Vision-Query/internal/models"
	"github.com/aaryabookseller16/Vision-Query/internal/vector"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func newTestServer(t *testing.T, construct func() (embedding.Embedder, error)) *Server {
	t.Helper()
	if construct == nil {
		construct = func() (embedding.Embedder, error) {
			return embedding.NewMockEmbedder(8), nil
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(vector.New(0), embedding.NewLoader(construct), cfg, zap.NewNop(), nil)
}

func tempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func TestHandleIngestImage(t *testing.T) {
	srv := newTestServer(t, nil)
	path := tempImage(t)

	w := postJSON(t, srv.handleIngestImage, "/ingest/image", models.IngestRequest{Path: path})
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "indexed" || resp.Path != path || resp.ID == "" {
		t.Errorf("response: %+v", resp)
	}
	if srv.index.Size() != 1 {
		t.Errorf("index size = %d", srv.index.Size())
	}
}

func TestHandleIngestImage_EmptyPath(t *testing.T) {
	srv := newTestServer(t, nil)
	w := postJSON(t, srv.handleIngestImage, "/ingest/image", models.IngestRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleIngestImage_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)
	w := postJSON(t, srv.handleIngestImage, "/ingest/image",
		models.IngestRequest{Path: "/nonexistent/cat.jpg"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d", w.Code)
	}
	if srv.index.Size() != 0 {
		t.Errorf("index size changed: %d", srv.index.Size())
	}
}

func TestHandleIngestImage_ModelUnavailable(t *testing.T) {
	srv := newTestServer(t, func() (embedding.Embedder, error) {
		return nil, errors.New("model load failed")
	})
	w := postJSON(t, srv.handleIngestImage, "/ingest/image",
		models.IngestRequest{Path: tempImage(t)})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	srv := newTestServer(t, nil)
	path := tempImage(t)
	w := postJSON(t, srv.handleIngestImage, "/ingest/image", models.IngestRequest{Path: path})
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d", w.Code)
	}

	w = postJSON(t, srv.handleSearch, "/search", models.SearchQuery{Query: "a photo", TopK: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results: %+v", resp.Results)
	}
	if resp.Results[0].Path != path || resp.Results[0].ID == "" {
		t.Errorf("result: %+v", resp.Results[0])
	}
	if resp.Query != "a photo" {
		t.Errorf("query echo: %q", resp.Query)
	}
}

func TestHandleSearch_EmptyIndex(t *testing.T) {
	srv := newTestServer(t, nil)
	w := postJSON(t, srv.handleSearch, "/search", models.SearchQuery{Query: "anything"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %+v", resp.Results)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	w := postJSON(t, srv.handleSearch, "/search", models.SearchQuery{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	srv := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleSearch_ModelUnavailable(t *testing.T) {
	srv := newTestServer(t, func() (embedding.Embedder, error) {
		return nil, errors.New("model load failed")
	})
	w := postJSON(t, srv.handleSearch, "/search", models.SearchQuery{Query: "q"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" {
		t.Errorf("body: %v", out)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.watch = &mockWatchService{dirs: []string{"/photos"}}

	// Health and status must respond before the model is constructed.
	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ModelReady {
		t.Error("model should not be ready before first use")
	}
	if out.IndexSize != 0 {
		t.Errorf("index size: %d", out.IndexSize)
	}
	if len(out.WatchedDirs) != 1 || out.WatchedDirs[0] != "/photos" {
		t.Errorf("watched dirs: %v", out.WatchedDirs)
	}

	// After an ingest the model is ready and the index populated.
	if w := postJSON(t, srv.handleIngestImage, "/ingest/image",
		models.IngestRequest{Path: tempImage(t)}); w.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d", w.Code)
	}
	w = httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.ModelReady || out.IndexSize != 1 || out.Dimensions != 8 {
		t.Errorf("status after ingest: %+v", out)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	router := srv.Handler()

	// Generate one measured request, then scrape.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health via router: %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := newTestServer(t, nil)
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
