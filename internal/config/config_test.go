package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("ACTION_DEMO_MODE", "")

	cfg := Load()
	if cfg.ChunkSize != 1000 {
		t.Errorf("ChunkSize = %d, want 1000", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 0 {
		t.Errorf("ChunkOverlap = %d, want 0", cfg.ChunkOverlap)
	}
	if cfg.RetrievalTopK != 5 {
		t.Errorf("RetrievalTopK = %d, want 5", cfg.RetrievalTopK)
	}
	if !cfg.ActionDemoMode {
		t.Error("ActionDemoMode should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CHUNK_SIZE", "400")
	t.Setenv("ACTION_DEMO_MODE", "false")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.ChunkSize != 400 {
		t.Errorf("ChunkSize = %d", cfg.ChunkSize)
	}
	if cfg.ActionDemoMode {
		t.Error("ActionDemoMode should be false")
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v", cfg.RateLimitWindow)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RetrievalTopK != 5 {
		t.Errorf("unparseable RETRIEVAL_TOP_K should fall back to 5, got %d", cfg.RetrievalTopK)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ServerPort:          "8080",
			DBPath:              "x.db",
			ChunkSize:           100,
			RetrievalTopK:       5,
			LLMProvider:         "openai",
			EmbeddingProvider:   "hash",
			EmbeddingDimensions: 64,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty port", func(c *Config) { c.ServerPort = "" }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 100 }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"unknown provider", func(c *Config) { c.LLMProvider = "cohere" }, true},
		{"unknown embedder", func(c *Config) { c.EmbeddingProvider = "onnx" }, true},
		{"hash without dims", func(c *Config) { c.EmbeddingDimensions = 0 }, true},
		{"auth without secret", func(c *Config) { c.AuthEnabled = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
