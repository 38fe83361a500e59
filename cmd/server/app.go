package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/suiyueran97/vision-engine/internal/analysis"
	"github.com/suiyueran97/vision-engine/internal/config"
	"github.com/suiyueran97/vision-engine/internal/dispatch"
	"github.com/suiyueran97/vision-engine/internal/inference/openai"
	"github.com/suiyueran97/vision-engine/internal/platform/logger"
	"github.com/suiyueran97/vision-engine/internal/store"
	"github.com/suiyueran97/vision-engine/internal/store/file"
	"github.com/suiyueran97/vision-engine/internal/worker"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger

	// Durable state
	jobStore   store.JobStore
	failureLog *dispatch.FailureLog

	// Analysis pipeline
	batchRunner *analysis.BatchRunner
	dispatcher  *dispatch.Dispatcher

	// Job handling
	runner *worker.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized and the job runner started. The runner is started here so
// recovery of unfinished jobs happens before the HTTP server accepts
// submissions.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	if log == nil {
		var err error
		log, err = logger.Setup(cfg.Server)
		if err != nil {
			return nil, fmt.Errorf("failed to set up logger: %w", err)
		}
	}

	app := &application{
		config: cfg,
		logger: log,
	}

	// Initialize the job store
	jobStore, err := file.NewJobStore(cfg.Store.TaskDataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}
	app.jobStore = jobStore

	// Initialize the inference backend client and sub-task executor
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, log.With("component", "inference"))

	executor, err := analysis.NewExecutor(client, nil, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	app.batchRunner = analysis.NewBatchRunner(executor, analysis.BatchRunnerConfig{
		Concurrency: cfg.Worker.BatchConcurrency,
	}, log)

	// Initialize the result dispatcher when a callback URL is configured
	if cfg.Callback.URL != "" {
		app.failureLog, err = dispatch.NewFailureLog(cfg.Store.FailedPushPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize failure log: %w", err)
		}

		app.dispatcher, err = dispatch.NewDispatcher(dispatch.DispatcherConfig{
			CallbackURL:    cfg.Callback.URL,
			MaxRetries:     cfg.Callback.MaxRetries,
			BaseDelay:      time.Duration(cfg.Callback.BaseDelaySeconds) * time.Second,
			AttemptTimeout: time.Duration(cfg.Callback.AttemptTimeoutSeconds) * time.Second,
			MaxInFlight:    cfg.Callback.MaxInFlight,
		}, app.failureLog, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize dispatcher: %w", err)
		}
	} else {
		log.Info("no callback URL configured, result delivery disabled")
	}

	// Initialize and start the job runner
	app.runner, err = setupJobRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup job runner: %w", err)
	}

	log.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// setupJobRunner initializes and starts the background job processor.
// Starting it runs recovery: unfinished jobs from previous runs are
// re-enqueued before any worker picks up new work.
func setupJobRunner(app *application) (*worker.Runner, error) {
	var dispatcher worker.ResultDispatcher
	if app.dispatcher != nil {
		dispatcher = app.dispatcher
	}

	runner, err := worker.NewRunner(app.jobStore, app.batchRunner, dispatcher, worker.RunnerConfig{
		WorkerCount:   app.config.Worker.WorkerCount,
		QueueCapacity: app.config.Worker.QueueCapacity,
	}, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job runner: %w", err)
	}

	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	return runner, nil
}

// cleanup handles graceful shutdown of application resources. The runner
// drains queued jobs first so their callbacks can still be handed to the
// dispatcher, then the dispatcher drains its in-flight deliveries.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
	}

	if app.dispatcher != nil {
		app.dispatcher.Close()
	}

	app.logger.Info("Application shutdown completed")
}
