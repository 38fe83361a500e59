// Package main implements the entry point for the vision-engine server
// which accepts batched image-analysis jobs and evaluates them against an
// OpenAI-compatible vision inference backend.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/suiyueran97/vision-engine/internal/config"
	"github.com/suiyueran97/vision-engine/internal/platform/logger"
)

// main is the entry point for the vision-engine server.
// It initializes configuration, sets up logging, wires the application
// dependencies, and starts the HTTP server.
func main() {
	cfg, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(cfg, slog.Default())
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up logging.
// Returns the loaded config and any initialization error.
func initializeApp() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set up structured logging using the configured log level
	if _, err := logger.Setup(cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"task_data_dir", cfg.Store.TaskDataDir)

	if cfg.Callback.URL != "" {
		slog.Debug("Callback configuration", "url_present", true)
	}
	if cfg.LLM.APIKey != "" {
		slog.Debug("LLM configuration", "api_key_present", true)
	}

	return cfg, nil
}
