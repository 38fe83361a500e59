package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/suiyueran97/vision-engine/internal/api/shared"
	"github.com/suiyueran97/vision-engine/internal/domain"
	"github.com/suiyueran97/vision-engine/internal/store"
)

// JobSubmitter accepts a batch of sub-tasks for asynchronous processing.
type JobSubmitter interface {
	Submit(ctx context.Context, subTasks []domain.SubTaskRequest) (*domain.Job, error)
}

// SyncRunner executes a batch of sub-tasks inline and returns one result
// per sub-task, in order.
type SyncRunner interface {
	Run(ctx context.Context, subTasks []domain.SubTaskRequest) []domain.SubTaskResult
}

// JobHandler handles image-analysis HTTP requests
type JobHandler struct {
	submitter JobSubmitter
	jobStore  store.JobStore
	sync      SyncRunner
	logger    *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(
	submitter JobSubmitter,
	jobStore store.JobStore,
	sync SyncRunner,
	logger *slog.Logger,
) *JobHandler {
	return &JobHandler{
		submitter: submitter,
		jobStore:  jobStore,
		sync:      sync,
		logger:    logger.With("component", "api"),
	}
}

// SubmitAnalysis handles POST /vision_engine/image_analysis requests.
// The body is a JSON array of sub-task items. Acceptance means the job is
// durably recorded and enqueued; processing happens asynchronously, so the
// response status is 202.
func (h *JobHandler) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	items, ok := h.decodeSubmitItems(w, r)
	if !ok {
		return
	}

	job, err := h.submitter.Submit(r.Context(), toSubTaskRequests(items))
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToSubmitResponse(job))
}

// GetResult handles GET /vision_engine/get_result/{taskID} requests.
// Any submitted job is queryable from the moment its submission was
// accepted; an unknown ID is a 404.
func (h *JobHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	job, err := h.jobStore.GetByID(r.Context(), taskID)
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResultResponse(job))
}

// SubmitAnalysisSync handles POST /vision_engine/image_analysis_sync
// requests. The batch runs inline and the per-image results are returned
// directly; nothing is queued, persisted, or pushed to the callback.
func (h *JobHandler) SubmitAnalysisSync(w http.ResponseWriter, r *http.Request) {
	items, ok := h.decodeSubmitItems(w, r)
	if !ok {
		return
	}

	results := h.sync.Run(r.Context(), toSubTaskRequests(items))

	shared.RespondWithJSON(w, r, http.StatusOK, toSyncResultItems(results))
}

// decodeSubmitItems parses and validates the shared request body of the
// async and sync submission endpoints.
func (h *JobHandler) decodeSubmitItems(w http.ResponseWriter, r *http.Request) ([]SubmitItem, bool) {
	var items []SubmitItem
	if err := shared.DecodeJSON(r, &items); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return nil, false
	}

	if len(items) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request must contain at least one sub-task")
		return nil, false
	}

	for _, item := range items {
		if err := shared.ValidateRequest(item); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
			return nil, false
		}
	}

	return items, true
}
