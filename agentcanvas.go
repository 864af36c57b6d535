// Package agentcanvas provides a top-level convenience entry point for
// embedding the workflow editor core with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/agentcanvas"
//
//	s, err := agentcanvas.New(agentcanvas.WithCanvasSize(1600, 900))
//	s, err := agentcanvas.New(
//	    agentcanvas.WithWorkflowID("wf-123"),
//	    agentcanvas.WithStore(store),
//	)
//
// A Session bundles a graph, the editor engine driving it, and a
// debounced autosaver. Hosts that need the execution-sync engine or the
// HTTP API wire those directly from execsync and api.
package agentcanvas

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/editor"
	"github.com/BaSui01/agentcanvas/graph"
	"github.com/BaSui01/agentcanvas/persist"
)

// Session is one open workflow: its graph, editor state, and autosaver.
type Session struct {
	Graph    *graph.Graph
	Editor   *editor.Engine
	Saver    *persist.Autosaver
	store    persist.Store
	ownStore bool
}

type options struct {
	workflowID string
	width      float64
	height     float64
	debounce   time.Duration
	store      persist.Store
	logger     *zap.Logger
}

// Option configures the session created by [New].
type Option func(*options)

// WithWorkflowID sets the document id the session loads and saves under.
func WithWorkflowID(id string) Option {
	return func(o *options) { o.workflowID = id }
}

// WithCanvasSize sets the initial viewport size in screen pixels.
func WithCanvasSize(width, height float64) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithStore sets the document store. Defaults to an in-memory store.
func WithStore(s persist.Store) Option {
	return func(o *options) { o.store = s }
}

// WithDebounce overrides the autosave debounce window.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an editing session and hydrates it from the store. A
// workflow id with no stored document yields a blank canvas.
func New(opts ...Option) (*Session, error) {
	o := options{
		workflowID: "default",
		width:      1280,
		height:     720,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ownStore := false
	if o.store == nil {
		o.store = persist.NewMemoryStore()
		ownStore = true
	}

	g := graph.New()
	if err := persist.Hydrate(context.Background(), o.store, g, o.workflowID); err != nil {
		return nil, err
	}

	return &Session{
		Graph:    g,
		Editor:   editor.New(g, o.width, o.height, o.logger),
		Saver:    persist.NewAutosaver(o.store, g, o.workflowID, o.debounce, o.logger, nil),
		store:    o.store,
		ownStore: ownStore,
	}, nil
}

// Close flushes any pending save and releases a session-owned store.
func (s *Session) Close() error {
	err := s.Saver.Close()
	if s.ownStore {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
