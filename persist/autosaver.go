package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/graph"
	"github.com/BaSui01/agentcanvas/internal/metrics"
	"github.com/BaSui01/agentcanvas/types"
)

// DefaultDebounce is the quiet period after the last mutation before a
// silent autosave fires.
const DefaultDebounce = 800 * time.Millisecond

// Save modes, as recorded in metrics and passed to the result observer.
const (
	ModeSilent   = "silent"
	ModeExplicit = "explicit"
)

// Autosaver debounces graph mutations into Store saves. Silent saves log
// failures without interrupting editing; an explicit Flush additionally
// surfaces the result to the registered observer. Both modes run the same
// serialization path.
//
// Saves are serialized: the snapshot is taken right before the store call,
// so a burst of mutations coalesces into one save of the latest state and
// a slow save can never overwrite a newer one.
type Autosaver struct {
	store      Store
	g          *graph.Graph
	workflowID string
	debounce   time.Duration
	timeout    time.Duration
	logger     *zap.Logger
	collector  *metrics.Collector

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	saveMu sync.Mutex

	onResult func(mode string, err error)
}

// NewAutosaver creates an autosaver watching the graph. A zero debounce
// falls back to DefaultDebounce; collector may be nil.
func NewAutosaver(store Store, g *graph.Graph, workflowID string,
	debounce time.Duration, logger *zap.Logger, collector *metrics.Collector) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Autosaver{
		store:      store,
		g:          g,
		workflowID: workflowID,
		debounce:   debounce,
		timeout:    10 * time.Second,
		logger: logger.With(
			zap.String("component", "autosaver"),
			zap.String("workflow_id", workflowID)),
		collector: collector,
	}
	g.Watch(a.Schedule)
	return a
}

// OnResult registers the observer invoked after every save attempt with
// its mode and outcome. The UI raises a toast for explicit saves and
// ignores silent ones. Register before editing starts.
func (a *Autosaver) OnResult(fn func(mode string, err error)) { a.onResult = fn }

// Schedule (re)arms the debounce timer. Called on every graph mutation.
func (a *Autosaver) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.saveSilent)
}

// Flush saves immediately in explicit mode, cancelling any pending silent
// save, and returns the result in addition to notifying the observer.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return a.save(ctx, ModeExplicit)
}

// Close cancels the pending save, performs a final silent flush so the
// last edits are not lost, and detaches from the timer.
func (a *Autosaver) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	pending := a.timer != nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if !pending {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	return a.save(ctx, ModeSilent)
}

func (a *Autosaver) saveSilent() {
	a.mu.Lock()
	a.timer = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	// Silent failures are logged inside save; editing continues.
	_ = a.save(ctx, ModeSilent)
}

func (a *Autosaver) save(ctx context.Context, mode string) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	doc := a.g.Snapshot()
	doc.ID = a.workflowID
	doc.UpdatedAt = time.Now()

	err := a.store.Save(ctx, a.workflowID, doc)
	a.collector.IncSave(mode, err == nil)
	if err != nil {
		a.logger.Warn("graph save failed", zap.String("mode", mode), zap.Error(err))
		err = types.NewError(types.ErrSaveFailed, "graph save failed").
			WithRetryable(true).WithCause(err)
	} else {
		a.logger.Debug("graph saved",
			zap.String("mode", mode),
			zap.Int("nodes", len(doc.Nodes)),
			zap.Int("edges", len(doc.Edges)))
	}
	if a.onResult != nil {
		a.onResult(mode, err)
	}
	return err
}
