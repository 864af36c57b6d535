package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/graph"
	"github.com/BaSui01/agentcanvas/persist"
	"github.com/BaSui01/agentcanvas/types"
)

// DocumentStore is the persistence surface the workflow handlers need.
// *persist.GormStore satisfies it.
type DocumentStore interface {
	persist.Store
	List(ctx context.Context) ([]graph.Document, error)
	Delete(ctx context.Context, workflowID string) error
}

// WorkflowHandler serves workflow document CRUD.
type WorkflowHandler struct {
	store  DocumentStore
	logger *zap.Logger
}

// NewWorkflowHandler creates a workflow handler.
func NewWorkflowHandler(store DocumentStore, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		store:  store,
		logger: logger.With(zap.String("component", "workflow_handler")),
	}
}

// HandleList returns id, name and update time of every stored workflow.
func (h *WorkflowHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, docs)
}

// HandleGet returns one workflow document. An unknown id yields an empty
// document: the editor opens it as a blank canvas.
func (h *WorkflowHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow id is required", h.logger)
		return
	}

	doc, err := h.store.Load(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, doc)
}

// HandleSave validates and stores a workflow document. The document is
// restored into a scratch graph first, so an invalid document never
// reaches the store.
func (h *WorkflowHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow id is required", h.logger)
		return
	}

	var doc graph.Document
	if err := DecodeJSONBody(w, r, &doc, h.logger); err != nil {
		return
	}

	if !doc.Empty() {
		scratch := graph.New()
		if err := scratch.Restore(doc); err != nil {
			WriteError(w, types.NewError(types.ErrInvalidRequest, "invalid workflow document").
				WithCause(err).WithHTTPStatus(http.StatusBadRequest), h.logger)
			return
		}
	}

	doc.ID = id
	if err := h.store.Save(r.Context(), id, doc); err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("workflow saved",
		zap.String("workflow_id", id),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("edges", len(doc.Edges)))
	WriteSuccess(w, map[string]string{"id": id})
}

// HandleDelete removes a stored workflow.
func (h *WorkflowHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow id is required", h.logger)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"id": id})
}
