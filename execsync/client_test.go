package execsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/types"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(HTTPClientConfig{
		BaseURL:       srv.URL,
		APIKey:        "test-key",
		Timeout:       time.Second,
		PollRateLimit: 1000,
	}, zap.NewNop())
}

func TestHTTPClientListPendingHumanInputs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/projects/p1/pending-inputs", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(pendingInputsResponse{
			PendingInputs: []PendingHumanInput{
				{ExecutionID: "e1", AgentID: "a1", AgentName: "Reviewer"},
			},
		})
	}))

	pending, err := c.ListPendingHumanInputs(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e1", pending[0].ExecutionID)
	assert.Equal(t, "a1", pending[0].AgentID)
}

func TestHTTPClientGetExecutionHistory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workflows/w1/executions", r.URL.Path)
		json.NewEncoder(w).Encode(ExecutionHistory{
			RecentExecutions: []ExecutionRecord{
				{ExecutionID: "e1", WorkflowID: "w1", Status: ExecutionStatusCompleted},
			},
		})
	}))

	history, err := c.GetExecutionHistory(context.Background(), "w1")
	require.NoError(t, err)
	record, ok := history.Find("e1")
	require.True(t, ok)
	assert.True(t, record.Status.Terminal())
}

func TestHTTPClientStartExecution(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workflows/w1/executions", r.URL.Path)
		json.NewEncoder(w).Encode(startExecutionResponse{ExecutionID: "e1"})
	}))

	id, err := c.StartExecution(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "e1", id)
}

func TestHTTPClientStartExecutionEmptyID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(startExecutionResponse{})
	}))

	_, err := c.StartExecution(context.Background(), "w1")
	require.Error(t, err)
	assert.Equal(t, types.ErrExecutionNotFound, types.GetErrorCode(err))
}

func TestHTTPClientSubmitHumanInput(t *testing.T) {
	var got submitInputRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/executions/e1/input", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	err := c.SubmitHumanInput(context.Background(), "e1", "looks good", &SubmitOptions{
		OptionID: "approve",
	})
	require.NoError(t, err)
	assert.Equal(t, "looks good", got.Text)
	assert.Equal(t, "approve", got.OptionID)
}

func TestHTTPClientStopExecution(t *testing.T) {
	stopped := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/executions/e1/stop", r.URL.Path)
		stopped = true
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.StopExecution(context.Background(), "e1"))
	assert.True(t, stopped)
}

func TestHTTPClientStatusMapping(t *testing.T) {
	cases := []struct {
		status    int
		code      types.ErrorCode
		retryable bool
	}{
		{http.StatusNotFound, types.ErrExecutionNotFound, false},
		{http.StatusUnauthorized, types.ErrUnauthorized, false},
		{http.StatusForbidden, types.ErrForbidden, false},
		{http.StatusBadRequest, types.ErrInvalidRequest, false},
		{http.StatusGatewayTimeout, types.ErrUpstreamTimeout, true},
		{http.StatusInternalServerError, types.ErrServiceUnavailable, true},
	}
	for _, tc := range cases {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":"x","message":"nope"}}`, tc.status)
		}))
		err := c.StopExecution(context.Background(), "e1")
		require.Error(t, err)
		assert.Equal(t, tc.code, types.GetErrorCode(err), "status %d", tc.status)
		assert.Equal(t, tc.retryable, types.IsRetryable(err), "status %d", tc.status)
	}
}

func TestHTTPClientPollErrorsAreRetryable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.ListPendingHumanInputs(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, types.ErrPollFailed, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestHTTPClientUnreachableRuntime(t *testing.T) {
	c := NewHTTPClient(HTTPClientConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	}, zap.NewNop())

	err := c.StopExecution(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, types.ErrServiceUnavailable, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}
