package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the OpenAI-compatible backend client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY; may stay empty for local backends
	BaseURL     string        // e.g. http://localhost:5001/v1
	Model       string        // model identifier the backend expects
	Temperature *float32      // 0..2; nil applies the 0.1 default, explicit 0 is honored
	MaxTokens   int           // reply token budget
	Timeout     time.Duration // http client timeout; long, to accommodate model latency
}

// Client talks to any OpenAI-compatible chat/completions endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a backend client, applying defaults for unset fields.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5001/v1"
	}
	if cfg.Temperature == nil {
		temp := float32(0.1)
		cfg.Temperature = &temp
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
