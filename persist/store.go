// Package persist saves and loads workflow graph documents. The editor
// talks to a Store through the Autosaver, which debounces silent saves
// and shares the same serialization path with explicit ones.
package persist

import (
	"context"
	"sort"
	"sync"

	"github.com/BaSui01/agentcanvas/graph"
	"github.com/BaSui01/agentcanvas/types"
)

// Store persists workflow graph documents by workflow id.
//
// Load for an unknown workflow returns an empty document and no error: a
// blank canvas is a valid state, not a failure.
type Store interface {
	Save(ctx context.Context, workflowID string, doc graph.Document) error
	Load(ctx context.Context, workflowID string) (graph.Document, error)
	Close() error
}

// Hydrate loads the workflow's document into the graph. When the stored
// document is empty the graph is left alone, so a freshly created blank
// canvas is never clobbered by an equally blank remote copy.
func Hydrate(ctx context.Context, s Store, g *graph.Graph, workflowID string) error {
	doc, err := s.Load(ctx, workflowID)
	if err != nil {
		return err
	}
	if doc.Empty() {
		return nil
	}
	if err := g.Restore(doc); err != nil {
		return types.NewError(types.ErrLoadFailed, "stored document is invalid").WithCause(err)
	}
	return nil
}

// MemoryStore is the in-process Store used by tests and by hosts that
// manage persistence themselves.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]graph.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]graph.Document)}
}

// Save stores the document under the workflow id.
func (s *MemoryStore) Save(_ context.Context, workflowID string, doc graph.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[workflowID] = doc
	return nil
}

// Load returns the stored document, or an empty one for unknown ids.
func (s *MemoryStore) Load(_ context.Context, workflowID string) (graph.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[workflowID]
	if !ok {
		return graph.Document{ID: workflowID}, nil
	}
	return doc, nil
}

// List returns every stored document, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]graph.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]graph.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Delete removes a document. Unknown ids are a no-op.
func (s *MemoryStore) Delete(_ context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, workflowID)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
