package execsync

import (
	"context"
	"time"
)

// ExecutionStatus represents the remote status of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusAwaiting  ExecutionStatus = "awaiting_input"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusStopped   ExecutionStatus = "stopped"
)

// Terminal reports whether the status is final. Once terminal, no further
// polling can change it.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusStopped:
		return true
	}
	return false
}

// ConversationTurn is one message of the conversation leading up to a
// human-input request.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PendingHumanInput describes a paused execution awaiting a user response.
// AgentID references a graph node id by convention; the graph does not own
// these entries.
type PendingHumanInput struct {
	ExecutionID         string             `json:"execution_id"`
	AgentID             string             `json:"agent_id"`
	AgentName           string             `json:"agent_name"`
	Context             map[string]any     `json:"context,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversation_history,omitempty"`
	RequestedAt         time.Time          `json:"requested_at"`
}

// ExecutionRecord is one row of a workflow's execution history.
type ExecutionRecord struct {
	ExecutionID string          `json:"execution_id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     time.Time       `json:"ended_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// ExecutionHistory is the remote service's view of a workflow's runs,
// most recent first.
type ExecutionHistory struct {
	RecentExecutions []ExecutionRecord `json:"recent_executions"`
}

// Find returns the record for the given execution id, if present.
func (h ExecutionHistory) Find(executionID string) (ExecutionRecord, bool) {
	for _, r := range h.RecentExecutions {
		if r.ExecutionID == executionID {
			return r, true
		}
	}
	return ExecutionRecord{}, false
}

// SubmitOptions carries optional fields of a human-input submission.
type SubmitOptions struct {
	OptionID string         `json:"option_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExecutionService is the remote runtime boundary. The engine is a
// best-effort polling client of this interface, not a message bus.
type ExecutionService interface {
	// ListPendingHumanInputs returns the currently pending human-input
	// requests for a project.
	ListPendingHumanInputs(ctx context.Context, projectID string) ([]PendingHumanInput, error)

	// GetExecutionHistory returns the recent runs of a workflow.
	GetExecutionHistory(ctx context.Context, workflowID string) (ExecutionHistory, error)

	// StartExecution launches a run and returns its execution id.
	StartExecution(ctx context.Context, workflowID string) (string, error)

	// StopExecution cancels a run.
	StopExecution(ctx context.Context, executionID string) error

	// SubmitHumanInput answers a pending human-input request.
	SubmitHumanInput(ctx context.Context, executionID, text string, opts *SubmitOptions) error
}
