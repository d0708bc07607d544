// Package config provides configuration loading and structs for the
// VisionQuery server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser (e.g. a local frontend dev server).
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// EmbeddingConfig holds CLIP embedder settings.
type EmbeddingConfig struct {
	TextModelPath  string `yaml:"text_model_path"`
	ImageModelPath string `yaml:"image_model_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	// AllowMock falls back to the deterministic mock embedder when the
	// ONNX model cannot be loaded (development only).
	AllowMock bool `yaml:"allow_mock"`
}

// SearchConfig holds search result settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// WatchConfig holds directory auto-ingest settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true
// when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Embedding.TextModelPath = expandPath(cfg.Embedding.TextModelPath, configDir)
	cfg.Embedding.ImageModelPath = expandPath(cfg.Embedding.ImageModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
