package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Store    StoreConfig    `mapstructure:"store"    validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Callback CallbackConfig `mapstructure:"callback"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig contains the durable state locations.
type StoreConfig struct {
	// TaskDataDir is the directory holding one JSON record per job.
	TaskDataDir string `mapstructure:"task_data_dir" validate:"required"`

	// FailedPushPath is the JSON file recording callbacks that exhausted
	// their delivery retries.
	FailedPushPath string `mapstructure:"failed_push_path" validate:"required"`
}

// WorkerConfig contains the job processing settings.
// Zero values fall back to runtime defaults.
type WorkerConfig struct {
	// WorkerCount is the number of concurrent job workers.
	// Defaults to the number of CPUs.
	WorkerCount int `mapstructure:"worker_count" validate:"gte=0"`

	// QueueCapacity bounds the in-memory job queue. Defaults to 100000.
	QueueCapacity int `mapstructure:"queue_capacity" validate:"gte=0"`

	// BatchConcurrency bounds how many sub-tasks of one job run in
	// parallel. Defaults to 4.
	BatchConcurrency int `mapstructure:"batch_concurrency" validate:"gte=0"`
}

// LLMConfig contains the settings of the vision inference backend.
type LLMConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url" validate:"required,url"`
	Model          string  `mapstructure:"model"    validate:"required"`
	Temperature    float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int     `mapstructure:"max_tokens" validate:"gte=0"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// CallbackConfig contains the result delivery settings. An empty URL
// disables callback delivery; finished jobs stay queryable either way.
type CallbackConfig struct {
	URL                   string `mapstructure:"url" validate:"omitempty,url"`
	MaxRetries            int    `mapstructure:"max_retries" validate:"gte=0"`
	BaseDelaySeconds      int    `mapstructure:"base_delay_seconds" validate:"gte=0"`
	AttemptTimeoutSeconds int    `mapstructure:"attempt_timeout_seconds" validate:"gte=0"`
	MaxInFlight           int    `mapstructure:"max_in_flight" validate:"gte=0"`
}
