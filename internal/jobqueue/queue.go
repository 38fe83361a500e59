// Package jobqueue provides the bounded in-memory FIFO of pending job
// identifiers. The queue holds IDs only; the durable job record lives in
// the store. A full queue is the system's backpressure signal and is
// surfaced to the submitter as a rejection.
package jobqueue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// Reader provides read-only access to the queue channel, allowing workers
// to consume job IDs without the ability to enqueue. Receiving from the
// channel blocks the worker until an item is available; there is no
// polling.
// Version: 1.0
type Reader interface {
	// GetChannel returns a read-only channel for consuming job IDs.
	GetChannel() <-chan uuid.UUID
}

// Writer provides write access to the queue, allowing the submission path
// and the recovery bootstrapper to enqueue job IDs.
// Version: 1.0
type Writer interface {
	// Enqueue adds a job ID to the queue for processing.
	// Returns ErrQueueFull past capacity and ErrQueueClosed after Close.
	Enqueue(id uuid.UUID) error

	// Close closes the queue, preventing further submission.
	Close()
}

// Queue implements a bounded FIFO queue that satisfies both the Reader and
// Writer interfaces. Jobs are started in submission order; there is no
// priority and no de-duplication.
type Queue struct {
	ids    chan uuid.UUID
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewQueue creates a new queue with the specified capacity.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	return &Queue{
		ids:    make(chan uuid.UUID, capacity),
		logger: logger,
	}
}

// Enqueue adds a job ID to the queue for processing. Enqueue past capacity
// fails fast with ErrQueueFull rather than blocking the caller.
func (q *Queue) Enqueue(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ids <- id:
		q.logger.Debug("job enqueued",
			"job_id", id,
			"queue_len", len(q.ids),
			"queue_cap", cap(q.ids))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.ids))
	}
}

// Close closes the queue, preventing further submission. Workers drain any
// remaining items before their channel reads report closure.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ids)
		q.logger.Info("job queue closed")
	}
}

// GetChannel returns a read-only channel for consuming job IDs.
func (q *Queue) GetChannel() <-chan uuid.UUID {
	return q.ids
}
