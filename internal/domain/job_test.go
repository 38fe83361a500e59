package domain

import (
	"testing"

	"github.com/google/uuid"
)

func testSubTasks() []SubTaskRequest {
	return []SubTaskRequest{
		{IdentifyType: []string{"roadway-flooding"}, FTPPath: "/data/img/demo.jpg"},
	}
}

func TestNewJob(t *testing.T) {
	t.Parallel()

	job, err := NewJob(testSubTasks())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if job.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if job.Status != JobStatusPending {
		t.Errorf("Expected status %s, got %s", JobStatusPending, job.Status)
	}

	if job.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	if job.EndedAt != nil {
		t.Error("Expected nil EndedAt on a fresh job")
	}

	// Test empty sub-task list
	_, err = NewJob(nil)
	if err != ErrNoSubTasks {
		t.Errorf("Expected error %v, got %v", ErrNoSubTasks, err)
	}
}

func TestJobStatusTransitions(t *testing.T) {
	t.Parallel()

	job, err := NewJob(testSubTasks())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := job.MarkProcessing(); err != nil {
		t.Fatalf("Expected pending->processing to succeed, got %v", err)
	}

	results := []SubTaskResult{
		{FTPPath: "/data/img/demo.jpg", Status: SubTaskStatusSuccess},
	}
	if err := job.MarkDone(results); err != nil {
		t.Fatalf("Expected processing->done to succeed, got %v", err)
	}

	if job.EndedAt == nil {
		t.Error("Expected EndedAt to be set on terminal status")
	}

	if job.Error != "" {
		t.Errorf("Expected empty error on done job, got %q", job.Error)
	}

	// Terminal status is monotonic: no transition out of done.
	if err := job.MarkProcessing(); err != ErrInvalidTransition {
		t.Errorf("Expected %v, got %v", ErrInvalidTransition, err)
	}
	if err := job.MarkFailed("late failure"); err != ErrInvalidTransition {
		t.Errorf("Expected %v, got %v", ErrInvalidTransition, err)
	}
	if err := job.MarkDone(results); err != ErrInvalidTransition {
		t.Errorf("Expected %v, got %v", ErrInvalidTransition, err)
	}
}

func TestJobMarkFailed(t *testing.T) {
	t.Parallel()

	job, err := NewJob(testSubTasks())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := job.MarkProcessing(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := job.MarkFailed("batch runner panicked"); err != nil {
		t.Fatalf("Expected processing->failed to succeed, got %v", err)
	}

	if job.Error != "batch runner panicked" {
		t.Errorf("Expected error to be recorded, got %q", job.Error)
	}

	if job.Result != nil {
		t.Error("Expected nil result on a failed job")
	}

	if !job.IsTerminal() {
		t.Error("Expected failed job to be terminal")
	}
}

func TestJobValidate(t *testing.T) {
	t.Parallel()

	validJob := Job{
		ID:       uuid.New(),
		Status:   JobStatusPending,
		SubTasks: testSubTasks(),
	}
	if err := validJob.Validate(); err != nil {
		t.Errorf("Expected valid job to pass validation, got %v", err)
	}

	noID := validJob
	noID.ID = uuid.Nil
	if err := noID.Validate(); err != ErrEmptyJobID {
		t.Errorf("Expected %v, got %v", ErrEmptyJobID, err)
	}

	badStatus := validJob
	badStatus.Status = JobStatus("archived")
	if err := badStatus.Validate(); err != ErrInvalidJobStatus {
		t.Errorf("Expected %v, got %v", ErrInvalidJobStatus, err)
	}
}
