package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/execsync"
	"github.com/BaSui01/agentcanvas/types"
)

// stubService is a minimal ExecutionService for handler tests.
type stubService struct {
	mu        sync.Mutex
	pending   []execsync.PendingHumanInput
	history   execsync.ExecutionHistory
	startErr  error
	submitted []string
	stopped   []string
}

func (s *stubService) ListPendingHumanInputs(context.Context, string) ([]execsync.PendingHumanInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, nil
}

func (s *stubService) GetExecutionHistory(context.Context, string) (execsync.ExecutionHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func (s *stubService) StartExecution(_ context.Context, workflowID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return "", s.startErr
	}
	return "exec-" + workflowID, nil
}

func (s *stubService) StopExecution(_ context.Context, executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, executionID)
	return nil
}

func (s *stubService) SubmitHumanInput(_ context.Context, executionID, _ string, _ *execsync.SubmitOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, executionID)
	return nil
}

func newExecutionHandler(t *testing.T, svc execsync.ExecutionService) (*ExecutionHandler, *execsync.Engine) {
	t.Helper()
	set := execsync.NewMemoryTTLSet(time.Second)
	t.Cleanup(func() { set.Close() })
	engine := execsync.NewEngine(svc, set, execsync.DefaultConfig(), zap.NewNop(), nil)
	t.Cleanup(engine.Close)
	return NewExecutionHandler(engine, svc, zap.NewNop()), engine
}

func TestExecutionStart(t *testing.T) {
	h, _ := newExecutionHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/w1/executions", nil)
	req.SetPathValue("id", "w1")
	rec := httptest.NewRecorder()
	h.HandleStart(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "exec-w1", resp.Data["execution_id"])
}

func TestExecutionStartFailure(t *testing.T) {
	svc := &stubService{startErr: types.NewError(types.ErrServiceUnavailable, "runtime down")}
	h, _ := newExecutionHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/w1/executions", nil)
	req.SetPathValue("id", "w1")
	rec := httptest.NewRecorder()
	h.HandleStart(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExecutionStop(t *testing.T) {
	svc := &stubService{}
	h, _ := newExecutionHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/executions/e1/stop", nil)
	req.SetPathValue("id", "e1")
	rec := httptest.NewRecorder()
	h.HandleStop(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e1"}, svc.stopped)
}

func TestExecutionHistory(t *testing.T) {
	svc := &stubService{history: execsync.ExecutionHistory{
		RecentExecutions: []execsync.ExecutionRecord{
			{ExecutionID: "e1", WorkflowID: "w1", Status: execsync.ExecutionStatusCompleted},
		},
	}}
	h, _ := newExecutionHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows/w1/executions", nil)
	req.SetPathValue("id", "w1")
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data execsync.ExecutionHistory `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data.RecentExecutions, 1)
	assert.Equal(t, execsync.ExecutionStatusCompleted, resp.Data.RecentExecutions[0].Status)
}

func TestExecutionPendingState(t *testing.T) {
	svc := &stubService{}
	h, engine := newExecutionHandler(t, svc)

	engine.Queue().SetPending(context.Background(), []execsync.PendingHumanInput{
		{ExecutionID: "e1", AgentID: "a1", AgentName: "Reviewer", RequestedAt: time.Now()},
		{ExecutionID: "e2", AgentID: "a2", AgentName: "Planner", RequestedAt: time.Now()},
	})

	rec := httptest.NewRecorder()
	h.HandlePending(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pending-inputs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data pendingStateResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Data.Shown)
	assert.Equal(t, "e1", resp.Data.Shown.ExecutionID)
	assert.Equal(t, 1, resp.Data.QueuedLen)
	assert.ElementsMatch(t, []string{"a1", "a2"}, resp.Data.Awaiting)
}

func TestExecutionSubmitInput(t *testing.T) {
	svc := &stubService{}
	h, engine := newExecutionHandler(t, svc)

	engine.Queue().SetPending(context.Background(), []execsync.PendingHumanInput{
		{ExecutionID: "e1", AgentID: "a1", RequestedAt: time.Now()},
	})

	body := `{"text":"approved","option_id":"yes"}`
	rec := httptest.NewRecorder()
	h.HandleSubmitInput(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pending-inputs/submit", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e1"}, svc.submitted)

	// The modal is closed afterwards.
	_, shown := engine.Queue().Shown()
	assert.False(t, shown)
}

func TestExecutionSubmitInputRequiresContent(t *testing.T) {
	h, _ := newExecutionHandler(t, &stubService{})

	rec := httptest.NewRecorder()
	h.HandleSubmitInput(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pending-inputs/submit", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
