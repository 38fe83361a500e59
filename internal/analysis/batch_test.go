package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/suiyueran97/vision-engine/internal/domain"
)

// fakeSubTaskRunner implements SubTaskRunner for testing.
type fakeSubTaskRunner struct {
	mu          sync.Mutex
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
	runFn       func(req domain.SubTaskRequest) domain.SubTaskResult
}

func (f *fakeSubTaskRunner) Run(ctx context.Context, req domain.SubTaskRequest) domain.SubTaskResult {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	if current > f.maxInFlight {
		f.maxInFlight = current
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if f.runFn != nil {
		return f.runFn(req)
	}
	return domain.SubTaskResult{FTPPath: req.FTPPath, Status: domain.SubTaskStatusSuccess}
}

func subTaskBatch(n int) []domain.SubTaskRequest {
	reqs := make([]domain.SubTaskRequest, n)
	for i := range reqs {
		reqs[i] = domain.SubTaskRequest{
			IdentifyType: []string{"roadway-flooding"},
			FTPPath:      fmt.Sprintf("/data/img/%03d.jpg", i),
		}
	}
	return reqs
}

func TestBatchRunPreservesInputOrder(t *testing.T) {
	runner := &fakeSubTaskRunner{delay: time.Millisecond}
	batch := NewBatchRunner(runner, BatchRunnerConfig{Concurrency: 4}, testLogger())

	reqs := subTaskBatch(16)
	results := batch.Run(context.Background(), reqs)

	assert.Len(t, results, len(reqs))
	for i, r := range results {
		assert.Equal(t, reqs[i].FTPPath, r.FTPPath)
	}
}

func TestBatchRunBoundsConcurrency(t *testing.T) {
	runner := &fakeSubTaskRunner{delay: 10 * time.Millisecond}
	batch := NewBatchRunner(runner, BatchRunnerConfig{Concurrency: 3}, testLogger())

	batch.Run(context.Background(), subTaskBatch(12))

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.LessOrEqual(t, runner.maxInFlight, int32(3))
}

func TestBatchRunIsolatesFailures(t *testing.T) {
	runner := &fakeSubTaskRunner{
		runFn: func(req domain.SubTaskRequest) domain.SubTaskResult {
			if req.FTPPath == "/data/img/001.jpg" {
				return domain.SubTaskResult{
					FTPPath:  req.FTPPath,
					Status:   domain.SubTaskStatusFailed,
					ErrorMsg: "unsupported category",
				}
			}
			return domain.SubTaskResult{FTPPath: req.FTPPath, Status: domain.SubTaskStatusSuccess}
		},
	}
	batch := NewBatchRunner(runner, DefaultBatchRunnerConfig(), testLogger())

	results := batch.Run(context.Background(), subTaskBatch(3))

	assert.Equal(t, domain.SubTaskStatusSuccess, results[0].Status)
	assert.Equal(t, domain.SubTaskStatusFailed, results[1].Status)
	assert.Equal(t, domain.SubTaskStatusSuccess, results[2].Status)
}

func TestBatchRunEmptyInput(t *testing.T) {
	batch := NewBatchRunner(&fakeSubTaskRunner{}, DefaultBatchRunnerConfig(), testLogger())

	results := batch.Run(context.Background(), nil)
	assert.Empty(t, results)
}

func TestNewBatchRunnerAppliesDefaultConcurrency(t *testing.T) {
	batch := NewBatchRunner(&fakeSubTaskRunner{}, BatchRunnerConfig{Concurrency: -1}, testLogger())
	assert.Equal(t, 4, batch.concurrency)
}
