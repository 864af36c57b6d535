// Package api assembles the AgentCanvas editor HTTP API.
package api

import (
	"net/http"

	"github.com/BaSui01/agentcanvas/api/handlers"
)

// Handlers bundles the handler set the router mounts.
type Handlers struct {
	Workflow  *handlers.WorkflowHandler
	Execution *handlers.ExecutionHandler
	Events    *handlers.EventHub
	Health    *handlers.HealthHandler
}

// NewRouter builds the API route table.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.HandleHealth)
	mux.HandleFunc("GET /healthz", h.Health.HandleHealth)
	mux.HandleFunc("GET /ready", h.Health.HandleReady)

	mux.HandleFunc("GET /api/v1/workflows", h.Workflow.HandleList)
	mux.HandleFunc("GET /api/v1/workflows/{id}", h.Workflow.HandleGet)
	mux.HandleFunc("PUT /api/v1/workflows/{id}", h.Workflow.HandleSave)
	mux.HandleFunc("DELETE /api/v1/workflows/{id}", h.Workflow.HandleDelete)

	mux.HandleFunc("POST /api/v1/workflows/{id}/executions", h.Execution.HandleStart)
	mux.HandleFunc("GET /api/v1/workflows/{id}/executions", h.Execution.HandleHistory)
	mux.HandleFunc("POST /api/v1/executions/{id}/stop", h.Execution.HandleStop)
	mux.HandleFunc("GET /api/v1/pending-inputs", h.Execution.HandlePending)
	mux.HandleFunc("POST /api/v1/pending-inputs/submit", h.Execution.HandleSubmitInput)

	mux.HandleFunc("GET /api/v1/events", h.Events.HandleEvents)

	return mux
}
