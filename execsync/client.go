package execsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/agentcanvas/types"
)

// HTTPClientConfig configures the runtime HTTP client.
type HTTPClientConfig struct {
	// BaseURL is the runtime's API root, e.g. "http://localhost:8080/api/v1".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKey, when set, is sent as a bearer token.
	APIKey string `yaml:"api_key" json:"api_key"`
	// Timeout bounds each request. Zero means 15 seconds.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// PollRateLimit caps read-side requests per second across both polling
	// loops. Zero means 10.
	PollRateLimit float64 `yaml:"poll_rate_limit" json:"poll_rate_limit"`
}

// HTTPClient is the ExecutionService implementation speaking to the remote
// runtime over JSON HTTP. Read-side calls share a rate limiter so two
// polling loops cannot pile up requests on a slow runtime.
type HTTPClient struct {
	cfg     HTTPClientConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewHTTPClient creates a runtime client from the given config.
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PollRateLimit <= 0 {
		cfg.PollRateLimit = 10
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.PollRateLimit), 1),
		logger:  logger.With(zap.String("component", "runtime_client")),
		tracer:  otel.Tracer("agentcanvas/execsync"),
	}
}

type pendingInputsResponse struct {
	PendingInputs []PendingHumanInput `json:"pending_inputs"`
}

// ListPendingHumanInputs fetches the pending human-input requests for a
// project.
func (c *HTTPClient) ListPendingHumanInputs(ctx context.Context, projectID string) ([]PendingHumanInput, error) {
	ctx, span := c.tracer.Start(ctx, "ListPendingHumanInputs",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var out pendingInputsResponse
	path := fmt.Sprintf("/projects/%s/pending-inputs", projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, types.NewError(types.ErrPollFailed, "list pending inputs failed").
			WithRetryable(true).WithCause(err)
	}
	return out.PendingInputs, nil
}

// GetExecutionHistory fetches the recent runs of a workflow.
func (c *HTTPClient) GetExecutionHistory(ctx context.Context, workflowID string) (ExecutionHistory, error) {
	ctx, span := c.tracer.Start(ctx, "GetExecutionHistory",
		trace.WithAttributes(attribute.String("workflow_id", workflowID)))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return ExecutionHistory{}, err
	}
	var out ExecutionHistory
	path := fmt.Sprintf("/workflows/%s/executions", workflowID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return ExecutionHistory{}, types.NewError(types.ErrPollFailed, "execution history fetch failed").
			WithRetryable(true).WithCause(err)
	}
	return out, nil
}

type startExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

// StartExecution launches a run of the workflow.
func (c *HTTPClient) StartExecution(ctx context.Context, workflowID string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "StartExecution",
		trace.WithAttributes(attribute.String("workflow_id", workflowID)))
	defer span.End()

	var out startExecutionResponse
	path := fmt.Sprintf("/workflows/%s/executions", workflowID)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return "", err
	}
	if out.ExecutionID == "" {
		return "", types.NewError(types.ErrExecutionNotFound, "runtime returned no execution id")
	}
	c.logger.Info("execution started",
		zap.String("workflow_id", workflowID),
		zap.String("execution_id", out.ExecutionID))
	return out.ExecutionID, nil
}

// StopExecution cancels a run.
func (c *HTTPClient) StopExecution(ctx context.Context, executionID string) error {
	ctx, span := c.tracer.Start(ctx, "StopExecution",
		trace.WithAttributes(attribute.String("execution_id", executionID)))
	defer span.End()

	path := fmt.Sprintf("/executions/%s/stop", executionID)
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

type submitInputRequest struct {
	Text     string         `json:"text"`
	OptionID string         `json:"option_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SubmitHumanInput answers a pending human-input request.
func (c *HTTPClient) SubmitHumanInput(ctx context.Context, executionID, text string, opts *SubmitOptions) error {
	ctx, span := c.tracer.Start(ctx, "SubmitHumanInput",
		trace.WithAttributes(attribute.String("execution_id", executionID)))
	defer span.End()

	body := submitInputRequest{Text: text}
	if opts != nil {
		body.OptionID = opts.OptionID
		body.Metadata = opts.Metadata
	}
	path := fmt.Sprintf("/executions/%s/input", executionID)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// do issues one JSON request and decodes the response into out, if non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return types.NewError(types.ErrInternalError, "request encoding failed").WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return types.NewError(types.ErrInternalError, "request build failed").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return types.NewError(types.ErrServiceUnavailable, "runtime unreachable").
			WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.ErrInternalError, "response decoding failed").WithCause(err)
	}
	return nil
}

type runtimeErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	var parsed runtimeErrorBody
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		msg = parsed.Error.Message
	}

	code := types.ErrInternalError
	retryable := false
	switch {
	case resp.StatusCode == http.StatusNotFound:
		code = types.ErrExecutionNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		code = types.ErrForbidden
	case resp.StatusCode == http.StatusGatewayTimeout:
		code = types.ErrUpstreamTimeout
		retryable = true
	case resp.StatusCode >= http.StatusInternalServerError:
		code = types.ErrServiceUnavailable
		retryable = true
	case resp.StatusCode == http.StatusBadRequest:
		code = types.ErrInvalidRequest
	}

	c.logger.Warn("runtime request failed",
		zap.Int("status", resp.StatusCode), zap.String("message", msg))
	return types.NewError(code, fmt.Sprintf("runtime error: status=%d msg=%s", resp.StatusCode, msg)).
		WithHTTPStatus(resp.StatusCode).WithRetryable(retryable)
}
