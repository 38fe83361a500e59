package api

import (
	"time"

	"github.com/suiyueran97/vision-engine/internal/domain"
)

// SubmitItem is one element of the image-analysis request body: a set of
// identify types to evaluate against a single image.
type SubmitItem struct {
	IdentifyType []string `json:"identifyType" validate:"required,min=1,dive,required"`
	FTPPath      string   `json:"ftp_path"     validate:"required"`
}

// SubmitResponse represents the response data for an accepted analysis job
type SubmitResponse struct {
	TaskID     string    `json:"task_id"`
	Status     string    `json:"status"`
	CreateTime time.Time `json:"create_time"`
	TaskCount  int       `json:"task_count"`
}

// ResultResponse represents the response data for a job status query
type ResultResponse struct {
	TaskID     string                 `json:"task_id"`
	Status     string                 `json:"status"`
	CreateTime time.Time              `json:"create_time"`
	EndTime    *time.Time             `json:"end_time,omitempty"`
	Result     []domain.SubTaskResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// SyncResultItem is one element of the synchronous analysis response. The
// sync endpoint keys the image path ftp_path, matching the request body,
// where the callback payload uses ftpPath.
type SyncResultItem struct {
	FTPPath      string                `json:"ftp_path"`
	JudgmentInfo []domain.JudgmentInfo `json:"judgmentInfo"`
	Status       string                `json:"status"`
	ErrorMsg     string                `json:"error_msg"`
}

// toSubTaskRequests converts the request body items to domain sub-tasks
func toSubTaskRequests(items []SubmitItem) []domain.SubTaskRequest {
	subTasks := make([]domain.SubTaskRequest, len(items))
	for i, item := range items {
		subTasks[i] = domain.SubTaskRequest{
			IdentifyType: item.IdentifyType,
			FTPPath:      item.FTPPath,
		}
	}
	return subTasks
}

// toSyncResultItems converts batch results to the sync response shape
func toSyncResultItems(results []domain.SubTaskResult) []SyncResultItem {
	items := make([]SyncResultItem, len(results))
	for i, result := range results {
		items[i] = SyncResultItem{
			FTPPath:      result.FTPPath,
			JudgmentInfo: result.JudgmentInfo,
			Status:       result.Status,
			ErrorMsg:     result.ErrorMsg,
		}
	}
	return items
}

// jobToSubmitResponse converts a domain.Job to a SubmitResponse
func jobToSubmitResponse(job *domain.Job) SubmitResponse {
	return SubmitResponse{
		TaskID:     job.ID.String(),
		Status:     string(job.Status),
		CreateTime: job.CreatedAt,
		TaskCount:  len(job.SubTasks),
	}
}

// jobToResultResponse converts a domain.Job to a ResultResponse
func jobToResultResponse(job *domain.Job) ResultResponse {
	return ResultResponse{
		TaskID:     job.ID.String(),
		Status:     string(job.Status),
		CreateTime: job.CreatedAt,
		EndTime:    job.EndedAt,
		Result:     job.Result,
		Error:      job.Error,
	}
}
