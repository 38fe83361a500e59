package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/suiyueran97/vision-engine/internal/domain"
)

// SubTaskRunner is the per-sub-task contract the batch runner fans out to.
type SubTaskRunner interface {
	Run(ctx context.Context, req domain.SubTaskRequest) domain.SubTaskResult
}

// BatchRunnerConfig holds configuration for the batch runner.
type BatchRunnerConfig struct {
	// Concurrency bounds how many sub-tasks of one job run at once.
	// If zero or negative, defaults to 4.
	Concurrency int
}

// DefaultBatchRunnerConfig returns a BatchRunnerConfig with reasonable defaults.
func DefaultBatchRunnerConfig() BatchRunnerConfig {
	return BatchRunnerConfig{Concurrency: 4}
}

// BatchRunner fans a job's sub-tasks out across a bounded pool of
// executors. Sub-tasks are independent: one failing sub-task never aborts
// or affects a sibling.
type BatchRunner struct {
	runner      SubTaskRunner
	concurrency int
	logger      *slog.Logger
}

// NewBatchRunner creates a batch runner over the given sub-task runner.
func NewBatchRunner(runner SubTaskRunner, config BatchRunnerConfig, logger *slog.Logger) *BatchRunner {
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
		logger.Warn("invalid batch concurrency specified, using default",
			"specified", config.Concurrency,
			"default", concurrency)
	}

	return &BatchRunner{
		runner:      runner,
		concurrency: concurrency,
		logger:      logger.With("component", "batch_runner"),
	}
}

// Run executes every sub-task and returns one result per request, same
// length and order as the input.
func (b *BatchRunner) Run(ctx context.Context, subTasks []domain.SubTaskRequest) []domain.SubTaskResult {
	start := time.Now()
	b.logger.Info("starting batch",
		"sub_task_count", len(subTasks),
		"concurrency", b.concurrency)

	results := make([]domain.SubTaskResult, len(subTasks))
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for i, req := range subTasks {
		wg.Add(1)
		go func(i int, req domain.SubTaskRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = b.runner.Run(ctx, req)
		}(i, req)
	}
	wg.Wait()

	success := 0
	for _, r := range results {
		if r.Status == domain.SubTaskStatusSuccess {
			success++
		}
	}
	b.logger.Info("batch finished",
		"sub_task_count", len(subTasks),
		"success", success,
		"failed", len(subTasks)-success,
		"elapsed_ms", time.Since(start).Milliseconds())

	return results
}
