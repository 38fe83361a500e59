package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueran97/vision-engine/internal/domain"
	"github.com/suiyueran97/vision-engine/internal/jobqueue"
	"github.com/suiyueran97/vision-engine/internal/store"
)

type fakeSubmitter struct {
	job      *domain.Job
	err      error
	received []domain.SubTaskRequest
}

func (f *fakeSubmitter) Submit(_ context.Context, subTasks []domain.SubTaskRequest) (*domain.Job, error) {
	f.received = subTasks
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

type fakeJobStore struct {
	jobs map[uuid.UUID]*domain.Job
}

func (f *fakeJobStore) Save(_ context.Context, _ *domain.Job) error      { return nil }
func (f *fakeJobStore) Delete(_ context.Context, _ uuid.UUID) error      { return nil }
func (f *fakeJobStore) LoadAll(_ context.Context) ([]*domain.Job, error) { return nil, nil }

func (f *fakeJobStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return job, nil
}

type fakeSyncRunner struct {
	results []domain.SubTaskResult
}

func (f *fakeSyncRunner) Run(_ context.Context, subTasks []domain.SubTaskRequest) []domain.SubTaskResult {
	if f.results != nil {
		return f.results
	}
	results := make([]domain.SubTaskResult, len(subTasks))
	for i, req := range subTasks {
		results[i] = domain.SubTaskResult{FTPPath: req.FTPPath, Status: domain.SubTaskStatusSuccess}
	}
	return results
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newTestRouter(handler *JobHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/vision_engine/image_analysis", handler.SubmitAnalysis)
	r.Post("/vision_engine/image_analysis_sync", handler.SubmitAnalysisSync)
	r.Get("/vision_engine/get_result/{taskID}", handler.GetResult)
	return r
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal([]SubmitItem{
		{IdentifyType: []string{"roadway-flooding"}, FTPPath: "/data/img/a.jpg"},
		{IdentifyType: []string{"garbage-pile"}, FTPPath: "/data/img/b.jpg"},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSubmitAnalysisAccepted(t *testing.T) {
	job, err := domain.NewJob([]domain.SubTaskRequest{
		{IdentifyType: []string{"roadway-flooding"}, FTPPath: "/data/img/a.jpg"},
		{IdentifyType: []string{"garbage-pile"}, FTPPath: "/data/img/b.jpg"},
	})
	require.NoError(t, err)

	submitter := &fakeSubmitter{job: job}
	handler := NewJobHandler(submitter, &fakeJobStore{}, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/vision_engine/image_analysis", submitBody(t))
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, job.ID.String(), resp.TaskID)
	assert.Equal(t, string(domain.JobStatusPending), resp.Status)
	assert.Equal(t, 2, resp.TaskCount)
	assert.False(t, resp.CreateTime.IsZero())

	require.Len(t, submitter.received, 2)
	assert.Equal(t, "/data/img/a.jpg", submitter.received[0].FTPPath)
}

func TestSubmitAnalysisQueueFull(t *testing.T) {
	submitter := &fakeSubmitter{err: jobqueue.ErrQueueFull}
	handler := NewJobHandler(submitter, &fakeJobStore{}, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/vision_engine/image_analysis", submitBody(t))
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "queue is full")
}

func TestSubmitAnalysisBadPayloads(t *testing.T) {
	handler := NewJobHandler(&fakeSubmitter{}, &fakeJobStore{}, &fakeSyncRunner{}, testLogger())
	router := newTestRouter(handler)

	testCases := []struct {
		name string
		body string
	}{
		{name: "not JSON", body: "{nope"},
		{name: "empty array", body: "[]"},
		{name: "object instead of array", body: `{"identifyType":["x"],"ftp_path":"/a.jpg"}`},
		{name: "missing ftp_path", body: `[{"identifyType":["roadway-flooding"]}]`},
		{name: "empty identify types", body: `[{"identifyType":[],"ftp_path":"/a.jpg"}]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost, "/vision_engine/image_analysis", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetResultDone(t *testing.T) {
	job, err := domain.NewJob([]domain.SubTaskRequest{
		{IdentifyType: []string{"roadway-flooding"}, FTPPath: "/data/img/a.jpg"},
	})
	require.NoError(t, err)
	require.NoError(t, job.MarkDone([]domain.SubTaskResult{
		{FTPPath: "/data/img/a.jpg", Status: domain.SubTaskStatusSuccess,
			JudgmentInfo: []domain.JudgmentInfo{{IdentifyType: "roadway-flooding", Result: "存在", SceneDesc: "积水"}}},
	}))

	jobStore := &fakeJobStore{jobs: map[uuid.UUID]*domain.Job{job.ID: job}}
	handler := NewJobHandler(&fakeSubmitter{}, jobStore, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/vision_engine/get_result/"+job.ID.String(), nil)
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, job.ID.String(), resp.TaskID)
	assert.Equal(t, string(domain.JobStatusDone), resp.Status)
	require.NotNil(t, resp.EndTime)
	require.Len(t, resp.Result, 1)
	assert.Equal(t, "存在", resp.Result[0].JudgmentInfo[0].Result)
	assert.Empty(t, resp.Error)
}

func TestGetResultPendingHasNoResult(t *testing.T) {
	job, err := domain.NewJob([]domain.SubTaskRequest{
		{IdentifyType: []string{"roadway-flooding"}, FTPPath: "/data/img/a.jpg"},
	})
	require.NoError(t, err)

	jobStore := &fakeJobStore{jobs: map[uuid.UUID]*domain.Job{job.ID: job}}
	handler := NewJobHandler(&fakeSubmitter{}, jobStore, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/vision_engine/get_result/"+job.ID.String(), nil)
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(domain.JobStatusPending), resp.Status)
	assert.Nil(t, resp.EndTime)
	assert.Empty(t, resp.Result)
}

func TestGetResultUnknownID(t *testing.T) {
	handler := NewJobHandler(&fakeSubmitter{}, &fakeJobStore{}, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/vision_engine/get_result/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetResultMalformedID(t *testing.T) {
	handler := NewJobHandler(&fakeSubmitter{}, &fakeJobStore{}, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/vision_engine/get_result/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAnalysisSyncReturnsResults(t *testing.T) {
	handler := NewJobHandler(&fakeSubmitter{}, &fakeJobStore{}, &fakeSyncRunner{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/vision_engine/image_analysis_sync", submitBody(t))
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// The sync response keys the image path ftp_path, like the request body.
	body := rec.Body.String()
	assert.Contains(t, body, `"ftp_path"`)
	assert.NotContains(t, body, `"ftpPath"`)

	var results []SyncResultItem
	require.NoError(t, json.Unmarshal([]byte(body), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "/data/img/a.jpg", results[0].FTPPath)
	assert.Equal(t, "/data/img/b.jpg", results[1].FTPPath)
	assert.Equal(t, domain.SubTaskStatusSuccess, results[0].Status)
}
