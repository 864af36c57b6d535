package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/types"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"id": "w1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, types.NewError(types.ErrDuplicateEdge, "edge already exists"), zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrDuplicateEdge), resp.Error.Code)
	assert.Equal(t, "edge already exists", resp.Error.Message)
}

func TestErrorCodeStatusMapping(t *testing.T) {
	cases := []struct {
		code   types.ErrorCode
		status int
	}{
		{types.ErrSelfLoop, http.StatusBadRequest},
		{types.ErrEndNodeSaturated, http.StatusBadRequest},
		{types.ErrDelegateMisconnection, http.StatusBadRequest},
		{types.ErrWorkflowNotFound, http.StatusNotFound},
		{types.ErrNodeNotFound, http.StatusNotFound},
		{types.ErrUnauthorized, http.StatusUnauthorized},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{types.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{types.ErrSaveFailed, http.StatusInternalServerError},
		{types.ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, mapErrorCodeToHTTPStatus(tc.code), string(tc.code))
	}
}

func TestWriteErrorHonorsExplicitStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, types.NewError(types.ErrInvalidRequest, "nope").WithHTTPStatus(http.StatusTeapot), zap.NewNop())
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestWriteDomainErrorWrapsPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, assert.AnError, zap.NewNop())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrInternalError), resp.Error.Code)
}

func TestDecodeJSONBodyStrictMode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
	rec := httptest.NewRecorder()
	var p payload
	require.NoError(t, DecodeJSONBody(rec, req, &p, zap.NewNop()))
	assert.Equal(t, "ok", p.Name)

	// Unknown fields are rejected.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok","extra":1}`))
	rec = httptest.NewRecorder()
	require.Error(t, DecodeJSONBody(rec, req, &p, zap.NewNop()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed JSON is rejected.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	require.Error(t, DecodeJSONBody(rec, req, &p, zap.NewNop()))
}
