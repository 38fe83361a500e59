package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/suiyueran97/vision-engine/internal/domain"
)

// JobStore defines the interface for durable job persistence. It is the
// sole source of truth for recovery: the in-memory queue only holds job
// identifiers and defers to the store for the authoritative record.
// Version: 1.0
type JobStore interface {
	// Save overwrites the durable record for a job. It is idempotent and
	// last-write-wins; it must be called at every status transition so a
	// crash between two transitions leaves the store at the most recently
	// completed one.
	Save(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// Delete removes the durable record for a job.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// LoadAll performs a full scan of every durable job record. It is
	// intended for startup recovery only. A record that cannot be decoded
	// is skipped, affecting only its own job.
	LoadAll(ctx context.Context) ([]*domain.Job, error)
}
