package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CORSAllowedOrigins == nil {
		cfg.Server.CORSAllowedOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost",
			"http://127.0.0.1",
		}
	}
	if cfg.Embedding.TextModelPath == "" {
		cfg.Embedding.TextModelPath = "/usr/local/var/visionquery/models/clip-text-vit-b-32.onnx"
	}
	if cfg.Embedding.ImageModelPath == "" {
		cfg.Embedding.ImageModelPath = "/usr/local/var/visionquery/models/clip-vision-vit-b-32.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
