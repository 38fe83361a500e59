// Package dispatch delivers terminal job results to the operator's
// callback endpoint with bounded exponential-backoff retries, absorbing
// exhausted deliveries into a durable failure log.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/suiyueran97/vision-engine/internal/domain"
)

// Common errors
var (
	ErrNilFailureLog = errors.New("failure log cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
)

// DispatcherConfig holds configuration for the result dispatcher.
type DispatcherConfig struct {
	// CallbackURL is the operator-configured endpoint results are pushed to.
	CallbackURL string

	// MaxRetries is the total number of delivery attempts before the
	// payload is written to the failure log. If zero or negative,
	// defaults to 3.
	MaxRetries int

	// BaseDelay is the wait after the first failed attempt; it doubles
	// after each subsequent failure. If zero or negative, defaults to 2s.
	BaseDelay time.Duration

	// AttemptTimeout bounds each individual delivery attempt.
	// If zero or negative, defaults to 10s.
	AttemptTimeout time.Duration

	// MaxInFlight bounds how many background deliveries run at once.
	// If zero or negative, defaults to 16.
	MaxInFlight int
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig(callbackURL string) DispatcherConfig {
	return DispatcherConfig{
		CallbackURL:    callbackURL,
		MaxRetries:     3,
		BaseDelay:      2 * time.Second,
		AttemptTimeout: 10 * time.Second,
		MaxInFlight:    16,
	}
}

// Dispatcher pushes terminal job payloads to the callback endpoint.
// Deliveries run as bounded background work: DeliverAsync never blocks the
// worker loop, and Close drains everything still in flight. A delivery
// that exhausts its attempts is appended to the failure log and never
// retried again.
type Dispatcher struct {
	config     DispatcherConfig
	client     *http.Client
	failureLog *FailureLog
	logger     *slog.Logger
	sem        chan struct{}
	wg         sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config DispatcherConfig, failureLog *FailureLog, logger *slog.Logger) (*Dispatcher, error) {
	if failureLog == nil {
		return nil, ErrNilFailureLog
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 2 * time.Second
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = 10 * time.Second
	}
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = 16
	}

	return &Dispatcher{
		config:     config,
		client:     &http.Client{Timeout: config.AttemptTimeout},
		failureLog: failureLog,
		logger:     logger.With(slog.String("component", "result_dispatcher")),
		sem:        make(chan struct{}, config.MaxInFlight),
	}, nil
}

// DeliverAsync schedules a background delivery and returns immediately.
// The worker loop acknowledges queue completion regardless of the
// delivery's outcome; a failed delivery never re-queues the job.
func (d *Dispatcher) DeliverAsync(payload domain.CallbackPayload) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		d.Deliver(context.Background(), payload)
	}()
}

// Deliver attempts the delivery synchronously. It never returns an error:
// all failure is terminal-absorbed into the failure log.
func (d *Dispatcher) Deliver(ctx context.Context, payload domain.CallbackPayload) {
	logger := d.logger.With("job_id", payload.TaskID)
	delay := d.config.BaseDelay

	for attempt := 1; attempt <= d.config.MaxRetries; attempt++ {
		err := d.attempt(ctx, payload)
		if err == nil {
			logger.Info("dispatch.deliver.ok", "attempt", attempt)
			return
		}

		logger.Warn("dispatch.deliver.retry",
			"attempt", attempt,
			"max_attempts", d.config.MaxRetries,
			"error", err)

		if attempt == d.config.MaxRetries {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			logger.Warn("dispatch.deliver.cancelled", "error", ctx.Err())
			d.record(payload)
			return
		}
		delay *= 2
	}

	logger.Error("dispatch.deliver.exhausted", "attempts", d.config.MaxRetries)
	d.record(payload)
}

// Close waits for every in-flight background delivery to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

// attempt makes one POST to the callback endpoint. Success is any 2xx.
func (d *Dispatcher) attempt(ctx context.Context, payload domain.CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", domain.ErrDelivery, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d.config.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, d.config.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: non-2xx status: %d", domain.ErrDelivery, resp.StatusCode)
	}
	return nil
}

func (d *Dispatcher) record(payload domain.CallbackPayload) {
	record := domain.PendingCallback{
		TaskID:      payload.TaskID,
		CallbackURL: d.config.CallbackURL,
		Data:        payload,
		Time:        time.Now().UTC(),
	}

	if err := d.failureLog.Append(record); err != nil {
		// Nothing durable left to try; the payload survives only in logs.
		d.logger.Error("failed to record undeliverable callback",
			"job_id", payload.TaskID, "error", err)
	}
}
