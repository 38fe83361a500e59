package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of an image-analysis job.
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Common validation errors for Job
var (
	ErrEmptyJobID        = errors.New("job ID cannot be empty")
	ErrNoSubTasks        = errors.New("job must contain at least one sub-task")
	ErrInvalidJobStatus  = errors.New("invalid job status")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// SubTaskRequest is one unit of analysis work: a set of identify types to
// evaluate against a single image.
type SubTaskRequest struct {
	IdentifyType []string `json:"identifyType"`
	FTPPath      string   `json:"ftp_path"`
}

// JudgmentInfo is the structured verdict for one identify type.
type JudgmentInfo struct {
	IdentifyType string `json:"identifyType"`
	Result       string `json:"result"`
	SceneDesc    string `json:"sceneDesc"`
}

// SubTaskResult is the outcome for one SubTaskRequest. Exactly one of the
// two shapes is populated: a successful result carries JudgmentInfo entries
// in identify-type order, a failed one carries ErrorMsg.
type SubTaskResult struct {
	FTPPath      string         `json:"ftpPath"`
	JudgmentInfo []JudgmentInfo `json:"judgmentInfo"`
	Status       string         `json:"status"`
	ErrorMsg     string         `json:"error_msg"`
}

// Sub-task result status values used on the callback wire.
const (
	SubTaskStatusSuccess = "success"
	SubTaskStatusFailed  = "failed"
)

// Job tracks a batch of sub-tasks through its lifecycle. SubTasks are
// immutable after creation; Status only moves forward; Result and Error are
// mutually exclusive and set only on reaching a terminal status.
type Job struct {
	ID        uuid.UUID        `json:"id"`
	Status    JobStatus        `json:"status"`
	SubTasks  []SubTaskRequest `json:"sub_tasks"`
	CreatedAt time.Time        `json:"created_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
	Result    []SubTaskResult  `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// NewJob creates a pending Job for the given sub-tasks. It generates a new
// UUID for the job ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewJob(subTasks []SubTaskRequest) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		Status:    JobStatusPending,
		SubTasks:  subTasks,
		CreatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if len(j.SubTasks) == 0 {
		return ErrNoSubTasks
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// IsTerminal reports whether the job has reached a final status.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

// MarkProcessing transitions the job from pending to processing.
func (j *Job) MarkProcessing() error {
	if j.Status != JobStatusPending && j.Status != JobStatusProcessing {
		return ErrInvalidTransition
	}
	j.Status = JobStatusProcessing
	return nil
}

// MarkDone transitions the job to done and records its results.
// The results must be in sub-task submission order.
func (j *Job) MarkDone(results []SubTaskResult) error {
	if j.IsTerminal() {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = JobStatusDone
	j.Result = results
	j.Error = ""
	j.EndedAt = &now
	return nil
}

// MarkFailed transitions the job to failed and records the fatal cause.
func (j *Job) MarkFailed(cause string) error {
	if j.IsTerminal() {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.Error = cause
	j.Result = nil
	j.EndedAt = &now
	return nil
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusDone, JobStatusFailed:
		return true
	default:
		return false
	}
}
