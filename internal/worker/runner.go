// Package worker hosts the job runner: the worker pool that drains the job
// queue, executes each job's sub-task batch against the inference backend,
// persists every status transition, and hands finished results to the
// dispatcher. It also owns startup recovery of jobs left unfinished by a
// previous run.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suiyueran97/vision-engine/internal/domain"
	"github.com/suiyueran97/vision-engine/internal/jobqueue"
	"github.com/suiyueran97/vision-engine/internal/store"
)

// BatchRunner executes a job's sub-tasks and returns one result per
// sub-task, in submission order.
type BatchRunner interface {
	Run(ctx context.Context, subTasks []domain.SubTaskRequest) []domain.SubTaskResult
}

// ResultDispatcher receives the callback payload of a finished job for
// background delivery.
type ResultDispatcher interface {
	DeliverAsync(payload domain.CallbackPayload)
}

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	// If zero, defaults to the number of CPUs.
	WorkerCount int

	// QueueCapacity determines the buffer size of the in-memory job queue.
	// If zero, defaults to 100000.
	QueueCapacity int
}

// requeueRetryInterval is how long the recovery requeuer waits for the
// workers to free a queue slot before trying the next enqueue.
const requeueRetryInterval = 20 * time.Millisecond

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:   runtime.NumCPU(),
		QueueCapacity: 100000,
	}
}

// Runner manages background job processing
type Runner struct {
	store      store.JobStore
	queue      *jobqueue.Queue
	batch      BatchRunner
	dispatcher ResultDispatcher
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunner creates a new Runner. The dispatcher may be nil, in which case
// finished jobs are persisted but no callback is delivered.
func NewRunner(
	jobStore store.JobStore,
	batch BatchRunner,
	dispatcher ResultDispatcher,
	config RunnerConfig,
	logger *slog.Logger,
) (*Runner, error) {
	if jobStore == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if batch == nil {
		return nil, errors.New("batch runner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if config.WorkerCount <= 0 {
		config.WorkerCount = runtime.NumCPU()
	}
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = 100000
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      jobStore,
		queue:      jobqueue.NewQueue(config.QueueCapacity, logger),
		batch:      batch,
		dispatcher: dispatcher,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "worker"),
	}, nil
}

// Submit creates a pending job for the given sub-tasks, persists it, and
// enqueues it for processing. The job record is written before the job
// becomes visible to workers, so a submitted job is always queryable.
// If the queue is full the record is removed again and the submission is
// rejected with jobqueue.ErrQueueFull.
func (r *Runner) Submit(ctx context.Context, subTasks []domain.SubTaskRequest) (*domain.Job, error) {
	job, err := domain.NewJob(subTasks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	// Persist first, then enqueue
	if err := r.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(job.ID); err != nil {
		// A rejected submission must leave no trace in the store.
		if deleteErr := r.store.Delete(ctx, job.ID); deleteErr != nil {
			r.logger.Error("failed to roll back job record after enqueue rejection",
				"job_id", job.ID,
				"error", deleteErr)
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	r.logger.Info("job submitted",
		"job_id", job.ID,
		"sub_task_count", len(job.SubTasks))

	return job, nil
}

// Start recovers unfinished jobs from the store and launches the worker pool
func (r *Runner) Start() error {
	recovered, err := r.recover()
	if err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	if len(recovered) > 0 {
		r.wg.Add(1)
		go r.requeueRecovered(recovered)
	}

	r.logger.Info("job runner started",
		"worker_count", r.config.WorkerCount,
		"queue_capacity", r.config.QueueCapacity)

	return nil
}

// Stop gracefully shuts down the runner. The queue stops accepting new
// submissions, workers drain the jobs already enqueued, and Stop returns
// once the last in-flight job has finished.
func (r *Runner) Stop() {
	r.queue.Close()
	r.wg.Wait()
	r.cancelFunc()
}

// recover loads every job record from the store and collects the IDs of the
// ones that have not reached a terminal status. A job found in processing
// state was interrupted mid-run; it keeps its status and is simply executed
// again, since sub-task execution has no side effects worth preserving.
// The actual requeueing happens after the worker pool is up, so a backlog
// larger than the queue capacity can drain through it.
func (r *Runner) recover() ([]uuid.UUID, error) {
	ctx := context.Background()

	jobs, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load job records: %w", err)
	}

	var recovered []uuid.UUID
	var pendingCount, processingCount int
	for _, job := range jobs {
		if job.IsTerminal() {
			continue
		}

		switch job.Status {
		case domain.JobStatusPending:
			pendingCount++
		case domain.JobStatusProcessing:
			processingCount++
		}

		recovered = append(recovered, job.ID)
	}

	r.logger.Info("recovered unfinished jobs",
		"total_records", len(jobs),
		"pending_count", pendingCount,
		"processing_count", processingCount)

	return recovered, nil
}

// requeueRecovered feeds recovered job IDs into the queue, waiting for the
// workers to free a slot whenever the backlog exceeds queue capacity. IDs
// still unqueued when the runner stops stay non-terminal in the store and
// are picked up again by the next startup recovery.
func (r *Runner) requeueRecovered(ids []uuid.UUID) {
	defer r.wg.Done()

	for i := 0; i < len(ids); {
		err := r.queue.Enqueue(ids[i])
		switch {
		case err == nil:
			i++
		case errors.Is(err, jobqueue.ErrQueueFull):
			time.Sleep(requeueRetryInterval)
		default:
			r.logger.Warn("abandoning recovery requeue",
				"requeued_count", i,
				"remaining_count", len(ids)-i,
				"error", err)
			return
		}
	}

	r.logger.Info("recovered jobs requeued", "count", len(ids))
}

// worker consumes job IDs from the queue until it is closed and drained
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for jobID := range r.queue.GetChannel() {
		r.processJob(jobID, id)
	}

	r.logger.Debug("job queue drained, stopping worker", "worker_id", id)
}

// processJob runs a single job end to end: load, mark processing, execute
// the sub-task batch, persist the terminal record, and dispatch the result.
func (r *Runner) processJob(jobID uuid.UUID, workerID int) {
	ctx := r.ctx
	logger := r.logger.With(
		"job_id", jobID,
		"worker_id", workerID,
	)

	job, err := r.store.GetByID(ctx, jobID)
	if err != nil {
		logger.Error("failed to load queued job", "error", err)
		return
	}
	if job.IsTerminal() {
		logger.Warn("skipping job already in terminal status", "status", job.Status)
		return
	}

	if err := job.MarkProcessing(); err != nil {
		logger.Error("failed to mark job processing", "error", err)
		return
	}
	if err := r.store.Save(ctx, job); err != nil {
		logger.Error("failed to persist processing status", "error", err)
		return
	}

	logger.Info("processing job", "sub_task_count", len(job.SubTasks))

	results, execErr := r.runBatch(ctx, job.SubTasks)

	if execErr != nil {
		logger.Error("job execution failed", "error", execErr)
		r.finishFailed(ctx, job, execErr, logger)
		return
	}

	if err := job.MarkDone(results); err != nil {
		logger.Error("failed to mark job done", "error", err)
		return
	}
	if err := r.store.Save(ctx, job); err != nil {
		logger.Error("failed to persist finished job", "error", err)
		return
	}

	logger.Info("job completed")

	r.dispatch(domain.CallbackPayload{TaskID: job.ID, Response: results})
}

// runBatch executes the sub-task batch, converting a panic in the execution
// path into a job-level error so one poisoned job cannot take down a worker.
func (r *Runner) runBatch(ctx context.Context, subTasks []domain.SubTaskRequest) (results []domain.SubTaskResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = fmt.Errorf("%w: panic during job execution: %v", domain.ErrExecution, rec)
		}
	}()

	return r.batch.Run(ctx, subTasks), nil
}

// finishFailed records a job-level failure and dispatches a payload in which
// every sub-task is marked failed with the fatal cause. Any partial results
// are discarded; the callback receiver sees one uniform outcome per image.
func (r *Runner) finishFailed(ctx context.Context, job *domain.Job, cause error, logger *slog.Logger) {
	if err := job.MarkFailed(cause.Error()); err != nil {
		logger.Error("failed to mark job failed", "error", err)
		return
	}
	if err := r.store.Save(ctx, job); err != nil {
		logger.Error("failed to persist failed job", "error", err)
		return
	}

	response := make([]domain.SubTaskResult, len(job.SubTasks))
	for i, req := range job.SubTasks {
		response[i] = domain.SubTaskResult{
			FTPPath:  req.FTPPath,
			Status:   domain.SubTaskStatusFailed,
			ErrorMsg: cause.Error(),
		}
	}

	r.dispatch(domain.CallbackPayload{TaskID: job.ID, Response: response})
}

func (r *Runner) dispatch(payload domain.CallbackPayload) {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.DeliverAsync(payload)
}
