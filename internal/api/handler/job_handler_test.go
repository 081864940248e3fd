package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicegen/internal/api/dto"
	"voicegen/internal/job"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory job.Store double.
type memStore struct {
	mu       sync.Mutex
	jobs     map[string]*job.Job
	progress map[string]*job.Progress
}

func newMemStore() *memStore {
	return &memStore{
		jobs:     make(map[string]*job.Job),
		progress: make(map[string]*job.Progress),
	}
}

func (s *memStore) Put(_ context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *j
	s.jobs[j.ID] = &clone
	return nil
}

func (s *memStore) Fetch(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	clone := *j
	if p, ok := s.progress[id]; ok {
		pc := *p
		clone.Progress = &pc
	}
	return &clone, nil
}

func (s *memStore) PutProgress(_ context.Context, id string, p *job.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.progress[id] = &clone
	return nil
}

func (s *memStore) ClearProgress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, id)
	return nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }

type nopNotifier struct{}

func (nopNotifier) SendCompletion(context.Context, string, *job.Job) error { return nil }

type fakePublisher struct {
	published int
	err       error
}

func (p *fakePublisher) PublishWithRetry(context.Context, []byte, string) error {
	if p.err != nil {
		return p.err
	}
	p.published++
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *job.Service, *fakePublisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	svc := job.NewService(store, nopNotifier{}, logger)
	pub := &fakePublisher{}

	h := NewJobHandler(&Dependencies{
		Logger:     logger,
		Service:    svc,
		Dispatcher: job.NewDispatcher(pub, logger),
		Store:      store,
	})

	r := gin.New()
	r.POST("/api/v1/jobs", h.CreateJob)
	r.GET("/api/v1/jobs/:job_id", h.GetJob)
	r.POST("/api/v1/jobs/:job_id/notification", h.SubscribeNotification)
	return r, svc, pub
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateJob(t *testing.T) {
	r, _, pub := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs", gin.H{
		"session_id":  "session-001",
		"output_name": "MyVoicebank",
		"encoding":    "utf-8",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp dto.JobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, job.StatusQueued, resp.Status)
	assert.Equal(t, job.TypeVoicebankGeneration, resp.Type)
	assert.Nil(t, resp.Progress)
	assert.Nil(t, resp.Result)

	assert.Equal(t, 1, pub.published)
}

func TestCreateJob_MissingRequiredFields(t *testing.T) {
	r, _, pub := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs", gin.H{
		"output_name": "MyVoicebank",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, pub.published)
}

func TestCreateJob_UnsupportedEncoding(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs", gin.H{
		"session_id":  "session-001",
		"output_name": "MyVoicebank",
		"encoding":    "ebcdic",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_DispatchFailure(t *testing.T) {
	r, _, pub := newTestRouter(t)
	pub.err = errors.New("broker unreachable")

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs", gin.H{
		"session_id":  "session-001",
		"output_name": "MyVoicebank",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetJob(t *testing.T) {
	r, svc, _ := newTestRouter(t)

	j, err := svc.Submit(context.Background(), job.TypeVoicebankGeneration, job.Params{
		Generation: &job.GenerationParams{SessionID: "session-001", OutputName: "MyVoicebank"},
	})
	require.NoError(t, err)

	svc.ReportProgress(context.Background(), j.ID, 42, "rendering audio")

	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs/"+j.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.JobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, j.ID, resp.JobID)
	require.NotNil(t, resp.Progress)
	assert.Equal(t, 42.0, resp.Progress.Percent)
	assert.Equal(t, "rendering audio", resp.Progress.Message)
}

func TestGetJob_NotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs/2e9d8f00-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob_InvalidID(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribeNotification(t *testing.T) {
	r, svc, _ := newTestRouter(t)

	j, err := svc.Submit(context.Background(), job.TypeVoicebankGeneration, job.Params{
		Generation: &job.GenerationParams{SessionID: "session-001", OutputName: "MyVoicebank"},
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+j.ID+"/notification", gin.H{
		"email": "singer@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.SubscribeNotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, j.ID, resp.JobID)
	assert.Equal(t, string(job.NotificationDeferred), resp.Outcome)
}

func TestSubscribeNotification_FailedJobConflict(t *testing.T) {
	r, svc, _ := newTestRouter(t)

	j, err := svc.Submit(context.Background(), job.TypeVoicebankGeneration, job.Params{
		Generation: &job.GenerationParams{SessionID: "session-001", OutputName: "MyVoicebank"},
	})
	require.NoError(t, err)
	_, _, err = svc.Finalize(context.Background(), j.ID, job.Result{Success: false, Error: "boom"})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+j.ID+"/notification", gin.H{
		"email": "singer@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubscribeNotification_InvalidEmail(t *testing.T) {
	r, svc, _ := newTestRouter(t)

	j, err := svc.Submit(context.Background(), job.TypeVoicebankGeneration, job.Params{
		Generation: &job.GenerationParams{SessionID: "session-001", OutputName: "MyVoicebank"},
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+j.ID+"/notification", gin.H{
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
