// Package file implements store.JobStore with one JSON file per job.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suiyueran97/vision-engine/internal/domain"
	"github.com/suiyueran97/vision-engine/internal/store"
)

// jobRecord is the on-disk shape of one durable job unit.
type jobRecord struct {
	StatusInfo statusInfo              `json:"status_info"`
	Metadata   []domain.SubTaskRequest `json:"metadata"`
}

type statusInfo struct {
	Status     domain.JobStatus       `json:"status"`
	CreateTime time.Time              `json:"create_time"`
	EndTime    *time.Time             `json:"end_time,omitempty"`
	Result     []domain.SubTaskResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// JobStore persists each job as a standalone JSON file named <jobID>.json
// under a data directory, so a corrupt or partially written record affects
// only its own job. Save rewrites the whole file on every status
// transition; that is a scalability ceiling, not a correctness issue, at
// the intended volume. Concurrent saves to distinct jobs are safe because
// they touch distinct files; a single worker owns a given job's writes.
type JobStore struct {
	dir    string
	logger *slog.Logger
}

// NewJobStore creates a file-backed JobStore rooted at dir, creating the
// directory if needed. If logger is nil, a default logger will be used.
func NewJobStore(dir string, logger *slog.Logger) (*JobStore, error) {
	if dir == "" {
		return nil, errors.New("job store directory cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job store directory: %w", err)
	}

	return &JobStore{
		dir:    dir,
		logger: logger.With(slog.String("component", "job_store")),
	}, nil
}

// Ensure JobStore implements store.JobStore interface
var _ store.JobStore = (*JobStore)(nil)

// Save implements store.JobStore.Save. The record is written to a
// temporary file and renamed into place so a crash mid-write never
// clobbers the previous durable state.
func (s *JobStore) Save(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	rec := jobRecord{
		StatusInfo: statusInfo{
			Status:     job.Status,
			CreateTime: job.CreatedAt,
			EndTime:    job.EndedAt,
			Result:     job.Result,
			Error:      job.Error,
		},
		Metadata: job.SubTasks,
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode job record: %w", err)
	}

	final := s.path(job.ID)
	tmp, err := os.CreateTemp(s.dir, job.ID.String()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write job record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp record: %w", err)
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace job record: %w", err)
	}

	s.logger.Debug("saved job record",
		"job_id", job.ID,
		"status", job.Status)

	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("read job record: %w", err)
	}

	job, err := decodeRecord(id, data)
	if err != nil {
		return nil, fmt.Errorf("decode job record %s: %w", id, err)
	}

	return job, nil
}

// Delete implements store.JobStore.Delete.
func (s *JobStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.ErrJobNotFound
		}
		return fmt.Errorf("delete job record: %w", err)
	}

	s.logger.Debug("deleted job record", "job_id", id)
	return nil
}

// LoadAll implements store.JobStore.LoadAll. Records that cannot be named,
// read, or decoded are skipped with a warning; each durable unit stands
// alone.
func (s *JobStore) LoadAll(ctx context.Context) ([]*domain.Job, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan job store directory: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn("skipping job record with unparseable name",
				"file", name, "error", err)
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable job record",
				"job_id", id, "error", err)
			continue
		}

		job, err := decodeRecord(id, data)
		if err != nil {
			s.logger.Warn("skipping corrupt job record",
				"job_id", id, "error", err)
			continue
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (s *JobStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func decodeRecord(id uuid.UUID, data []byte) (*domain.Job, error) {
	var rec jobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:        id,
		Status:    rec.StatusInfo.Status,
		SubTasks:  rec.Metadata,
		CreatedAt: rec.StatusInfo.CreateTime,
		EndedAt:   rec.StatusInfo.EndTime,
		Result:    rec.StatusInfo.Result,
		Error:     rec.StatusInfo.Error,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}
