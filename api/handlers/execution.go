package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/execsync"
	"github.com/BaSui01/agentcanvas/types"
)

// ExecutionHandler serves execution lifecycle requests: start, stop,
// pending-input listing and human-input submission. Submissions go
// through the sync engine's queue so the recently-closed suppression
// applies uniformly.
type ExecutionHandler struct {
	engine *execsync.Engine
	svc    execsync.ExecutionService
	logger *zap.Logger
}

// NewExecutionHandler creates an execution handler.
func NewExecutionHandler(engine *execsync.Engine, svc execsync.ExecutionService, logger *zap.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		engine: engine,
		svc:    svc,
		logger: logger.With(zap.String("component", "execution_handler")),
	}
}

// HandleStart launches a run of the workflow and begins completion
// monitoring.
func (h *ExecutionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	if workflowID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow id is required", h.logger)
		return
	}

	executionID, err := h.engine.StartRun(r.Context(), workflowID)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"execution_id": executionID})
}

// HandleStop cancels a run and dismisses any input modal it had open.
func (h *ExecutionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	executionID := r.PathValue("id")
	if executionID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "execution id is required", h.logger)
		return
	}

	if err := h.engine.StopRun(r.Context(), executionID); err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"execution_id": executionID})
}

// HandleHistory returns the recent runs of a workflow.
func (h *ExecutionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	if workflowID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow id is required", h.logger)
		return
	}

	history, err := h.svc.GetExecutionHistory(r.Context(), workflowID)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, history)
}

type pendingStateResponse struct {
	Shown     *execsync.PendingHumanInput `json:"shown,omitempty"`
	QueuedLen int                         `json:"queued_len"`
	Awaiting  []string                    `json:"awaiting_agent_ids"`
}

// HandlePending returns the sync engine's current pending-input state:
// the visible request, queue depth, and the agent ids to highlight.
func (h *ExecutionHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	queue := h.engine.Queue()

	resp := pendingStateResponse{QueuedLen: queue.QueuedLen()}
	if shown, ok := queue.Shown(); ok {
		resp.Shown = &shown
	}
	for id := range queue.AwaitingAgentIDs() {
		resp.Awaiting = append(resp.Awaiting, id)
	}
	WriteSuccess(w, resp)
}

type submitInputBody struct {
	Text     string         `json:"text"`
	OptionID string         `json:"option_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HandleSubmitInput answers the currently shown human-input request.
func (h *ExecutionHandler) HandleSubmitInput(w http.ResponseWriter, r *http.Request) {
	var body submitInputBody
	if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
		return
	}
	if body.Text == "" && body.OptionID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "text or option_id is required", h.logger)
		return
	}

	var opts *execsync.SubmitOptions
	if body.OptionID != "" || body.Metadata != nil {
		opts = &execsync.SubmitOptions{OptionID: body.OptionID, Metadata: body.Metadata}
	}

	if err := h.engine.Queue().Submit(r.Context(), body.Text, opts); err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]bool{"submitted": true})
}
