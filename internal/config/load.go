package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("store.task_data_dir", "task_data")
	v.SetDefault("store.failed_push_path", "failed_push.json")
	v.SetDefault("worker.worker_count", 0)
	v.SetDefault("worker.queue_capacity", 100000)
	v.SetDefault("worker.batch_concurrency", 4)
	v.SetDefault("llm.base_url", "http://localhost:5001/v1")
	v.SetDefault("llm.model", "qwen-vl-plus")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("callback.max_retries", 3)
	v.SetDefault("callback.base_delay_seconds", 2)
	v.SetDefault("callback.attempt_timeout_seconds", 10)
	v.SetDefault("callback.max_in_flight", 16)

	// Read an optional config file from the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Configure environment variables
	v.SetEnvPrefix("VISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind critical environment variables
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "VISION_SERVER_PORT"},
		{"server.log_level", "VISION_SERVER_LOG_LEVEL"},
		{"store.task_data_dir", "VISION_STORE_TASK_DATA_DIR"},
		{"store.failed_push_path", "VISION_STORE_FAILED_PUSH_PATH"},
		{"worker.worker_count", "VISION_WORKER_WORKER_COUNT"},
		{"worker.queue_capacity", "VISION_WORKER_QUEUE_CAPACITY"},
		{"worker.batch_concurrency", "VISION_WORKER_BATCH_CONCURRENCY"},
		{"llm.api_key", "VISION_LLM_API_KEY"},
		{"llm.base_url", "VISION_LLM_BASE_URL"},
		{"llm.model", "VISION_LLM_MODEL"},
		{"callback.url", "VISION_CALLBACK_URL"},
	}

	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	// Unmarshal and validate
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
