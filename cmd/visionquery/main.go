// Package main is the VisionQuery CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aaryabookseller16/Vision-Query/internal/cli"
	"github.com/aaryabookseller16/Vision-Query/internal/config"
	"github.com/aaryabookseller16/Vision-Query/internal/embedding"
	"github.com/aaryabookseller16/Vision-Query/internal/models"
	"github.com/aaryabookseller16/Vision-Query/internal/server"
	"github.com/aaryabookseller16/Vision-Query/internal/vector"
	"github.com/aaryabookseller16/Vision-Query/internal/watcher"
	"github.com/aaryabookseller16/Vision-Query/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/visionquery/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development); if that
// exists it is used. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("visionquery version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, watcher events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	index := vector.New(cfg.Embedding.Dimensions)
	loader := embedding.NewLoader(newConstructor(cfg, logger))
	defer loader.Close()

	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				vec, err := loader.EmbedImage(context.Background(), path)
				if err != nil {
					logger.Warn("watch embed failed", zap.String("path", path), zap.Error(err))
					return
				}
				if err := index.Add(vec, vector.Metadata{"path": path}); err != nil {
					logger.Warn("watch index failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watchSvc.SyncExistingFiles()
	}

	var watch server.WatchService
	if watchSvc != nil {
		watch = watchSvc
	}
	srv := server.NewServer(index, loader, cfg, logger, watch)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newConstructor returns the construction function for the lazy embedding
// loader: the CLIP ONNX model, or the deterministic mock when allowed and
// the model cannot be loaded.
func newConstructor(cfg *config.Config, logger *zap.Logger) func() (embedding.Embedder, error) {
	return func() (embedding.Embedder, error) {
		emb, err := embedding.NewCLIPEmbedder(
			cfg.Embedding.TextModelPath,
			cfg.Embedding.ImageModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			if cfg.Embedding.AllowMock {
				logger.Warn("CLIP model unavailable, using mock embedder", zap.Error(err))
				return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
			}
			return nil, err
		}
		logger.Info("CLIP model loaded",
			zap.String("text_model", cfg.Embedding.TextModelPath),
			zap.String("image_model", cfg.Embedding.ImageModelPath),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
		return emb, nil
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: visionquery ingest [flags] <image-or-directory>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
		os.Exit(1)
	}
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}

	paths := []string{path}
	if info.IsDir() {
		paths = nil
		err := filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			fmt.Printf("Failed to walk directory: %v\n", err)
			os.Exit(1)
		}
	}

	indexed := 0
	for _, p := range paths {
		resp, err := ingestViaHTTP(*serverURL, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed for %s: %v\n", p, err)
			continue
		}
		fmt.Printf("Indexed: %s (%s)\n", resp.Path, resp.ID)
		indexed++
	}
	if indexed == 0 && len(paths) > 0 {
		os.Exit(1)
	}
	if info.IsDir() {
		fmt.Printf("Indexed %d image(s) from %s\n", indexed, path)
	}
}

func ingestViaHTTP(serverURL, path string) (*models.IngestResponse, error) {
	body, err := json.Marshal(models.IngestRequest{Path: path})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/ingest/image", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after
// the query to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 5, "number of results")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: visionquery search [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: visionquery search [flags] <query>")
		os.Exit(1)
	}

	var format cli.SearchOutputFormat
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "compact":
		format = cli.OutputCompact
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	response, err := searchViaHTTP(*serverURL, &models.SearchQuery{Query: queryStr, TopK: *topK})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status models.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("index_size:   %d   # count of indexed images\n", status.IndexSize)
		fmt.Printf("dimensions:   %d   # embedding dimension\n", status.Dimensions)
		fmt.Printf("model_ready:  %t   # CLIP model loaded (lazy, loads on first use)\n", status.ModelReady)
		for _, d := range status.WatchedDirs {
			fmt.Printf("watched_dir:  %s\n", d)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`visionquery - Semantic image search with CLIP embeddings

Usage:
  visionquery server [flags]             Start the HTTP server
  visionquery ingest [flags] <path>      Ingest an image (or all images in a directory)
  visionquery search [flags] <query>     Search ingested images by text
  visionquery status [flags]             Show index and model status
  visionquery version                    Show version
  visionquery help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/visionquery/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --server string    Server URL (default: http://localhost:8080)

Search Flags:
  --server string    Server URL (default: http://localhost:8080)
  --top-k int        Number of results (default: 5)
  --output string    Output format: text, compact, or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  visionquery server
  visionquery ingest data/images/dog.jpg
  visionquery ingest data/images
  visionquery search "a dog playing in the park"
  visionquery search --top-k 10 --output json sunset over water
  visionquery status`)
}
