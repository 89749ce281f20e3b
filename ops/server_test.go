package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/mmdatafocus/orders_etl/workflow"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	kinds []models.RunKind
	err   error
}

func (q *fakeQueue) Enqueue(kind models.RunKind) error {
	if q.err != nil {
		return q.err
	}
	q.kinds = append(q.kinds, kind)
	return nil
}

type fakeStatus struct {
	reports map[models.RunKind]*workflow.RunReport
	err     error
}

func (s *fakeStatus) Last(ctx context.Context, kind models.RunKind) (*workflow.RunReport, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	r, ok := s.reports[kind]
	return r, ok, nil
}

type fakeHistory struct {
	runs      []models.PipelineRun
	gotKind   models.RunKind
	gotLimit  int
	latestErr error
}

func (h *fakeHistory) List(ctx context.Context, kind models.RunKind, limit int) ([]models.PipelineRun, error) {
	h.gotKind = kind
	h.gotLimit = limit
	return h.runs, nil
}

func (h *fakeHistory) Latest(ctx context.Context, kind models.RunKind) (*models.PipelineRun, error) {
	if h.latestErr != nil {
		return nil, h.latestErr
	}
	for i := range h.runs {
		if h.runs[i].Kind == kind {
			return &h.runs[i], nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func newTestServer(s *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s.Logger, _ = test.NewNullLogger()
	return s.Router()
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestServer(&Server{})
	w := do(r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("x-correlation-id"))
}

func TestEnqueue(t *testing.T) {
	q := &fakeQueue{}
	r := newTestServer(&Server{Queue: q})

	w := do(r, http.MethodPost, "/api/etl/runs/full")
	assert.Equal(t, http.StatusAccepted, w.Code)
	w = do(r, http.MethodPost, "/api/etl/runs/INC")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []models.RunKind{models.RunKindFull, models.RunKindIncremental}, q.kinds)

	w = do(r, http.MethodPost, "/api/etl/runs/weekly")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnqueueQueueFull(t *testing.T) {
	r := newTestServer(&Server{Queue: &fakeQueue{err: workflow.ErrQueueFull}})
	w := do(r, http.MethodPost, "/api/etl/runs/full")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestEnqueueWithoutScheduler(t *testing.T) {
	r := newTestServer(&Server{})
	w := do(r, http.MethodPost, "/api/etl/runs/full")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusPrefersCache(t *testing.T) {
	started := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC)
	status := &fakeStatus{reports: map[models.RunKind]*workflow.RunReport{
		models.RunKindFull: {RunId: "cached-full", Kind: models.RunKindFull, State: workflow.StateDone},
	}}
	history := &fakeHistory{runs: []models.PipelineRun{
		{RunId: "db-inc", Kind: models.RunKindIncremental, Status: models.RunStatusDone, StartedAt: started},
	}}
	r := newTestServer(&Server{Status: status, History: history})

	w := do(r, http.MethodGet, "/api/etl/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]struct {
		Source string `json:"source"`
		Report *struct {
			RunId string `json:"run_id"`
		} `json:"report"`
		Run *struct {
			RunId string `json:"run_id"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cache", body["full"].Source)
	assert.Equal(t, "cached-full", body["full"].Report.RunId)
	assert.Equal(t, "database", body["incremental"].Source)
	assert.Equal(t, "db-inc", body["incremental"].Run.RunId)
}

func TestStatusCacheErrorFallsBack(t *testing.T) {
	r := newTestServer(&Server{
		Status:  &fakeStatus{err: errors.New("redis: connection refused")},
		History: &fakeHistory{},
	})
	w := do(r, http.MethodGet, "/api/etl/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"full":null,"incremental":null}`, w.Body.String())
}

func TestStatusHistoryError(t *testing.T) {
	r := newTestServer(&Server{History: &fakeHistory{latestErr: errors.New("db gone")}})
	w := do(r, http.MethodGet, "/api/etl/status")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRuns(t *testing.T) {
	history := &fakeHistory{runs: []models.PipelineRun{{RunId: "a"}, {RunId: "b"}}}
	r := newTestServer(&Server{History: history})

	w := do(r, http.MethodGet, "/api/etl/runs?limit=10&kind=full")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, history.gotLimit)
	assert.Equal(t, models.RunKindFull, history.gotKind)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	w = do(r, http.MethodGet, "/api/etl/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, history.gotLimit)
	assert.Equal(t, models.RunKind(""), history.gotKind)
}

func TestRunsRejectsBadParams(t *testing.T) {
	r := newTestServer(&Server{History: &fakeHistory{}})
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/etl/runs?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/etl/runs?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/etl/runs?kind=weekly").Code)
}

func TestNotFound(t *testing.T) {
	r := newTestServer(&Server{})
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/nope").Code)
}
