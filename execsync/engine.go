package execsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/internal/metrics"
)

// Config configures the sync engine.
type Config struct {
	// PollInterval is the human-input polling cadence.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	// RecentlyClosedTTL is the grace period suppressing just-answered
	// requests.
	RecentlyClosedTTL time.Duration `yaml:"recently_closed_ttl" json:"recently_closed_ttl"`
	// Monitor configures completion monitoring.
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// DefaultConfig returns the default sync-engine settings.
func DefaultConfig() Config {
	return Config{
		PollInterval:      DefaultPollInterval,
		RecentlyClosedTTL: DefaultRecentlyClosedTTL,
		Monitor:           DefaultMonitorConfig(),
	}
}

// Engine owns the pending-input queue and the lifecycles of both polling
// loops. Destroying the owning view calls Close, which cancels every
// timer deterministically.
type Engine struct {
	svc       ExecutionService
	queue     *InputQueue
	config    Config
	logger    *zap.Logger
	collector *metrics.Collector

	mu            sync.Mutex
	cancelPoll    context.CancelFunc
	cancelMonitor context.CancelFunc
	wg            sync.WaitGroup

	onRunFinished func(ExecutionRecord)
}

// NewEngine creates a sync engine over the given service. recentlyClosed
// may be shared across instances (redis) or local (memory); collector may
// be nil.
func NewEngine(svc ExecutionService, recentlyClosed TTLSet, config Config,
	logger *zap.Logger, collector *metrics.Collector) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	queue := NewInputQueue(svc, recentlyClosed, logger)
	queue.Metrics(collector)
	return &Engine{
		svc:       svc,
		queue:     queue,
		config:    config,
		logger:    logger.With(zap.String("component", "execsync")),
		collector: collector,
	}
}

// Queue returns the pending-input queue for UI wiring.
func (e *Engine) Queue() *InputQueue { return e.queue }

// OnRunFinished registers the observer fired exactly once per monitored
// run when it reaches a terminal status. Register before StartRun.
func (e *Engine) OnRunFinished(fn func(ExecutionRecord)) { e.onRunFinished = fn }

// StartPolling launches the human-input polling loop for a project,
// replacing any previous loop.
func (e *Engine) StartPolling(ctx context.Context, projectID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelPoll != nil {
		e.cancelPoll()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	e.cancelPoll = cancel

	poller := NewHumanInputPoller(e.svc, e.queue, projectID,
		e.config.PollInterval, e.logger, e.collector)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		poller.Run(pollCtx)
	}()
}

// StartRun launches an execution of the workflow and begins monitoring it
// for completion. Monitoring of a previously started run is cancelled:
// switching workflows never leaves an orphaned monitor behind.
func (e *Engine) StartRun(ctx context.Context, workflowID string) (string, error) {
	executionID, err := e.svc.StartExecution(ctx, workflowID)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelMonitor != nil {
		e.cancelMonitor()
	}
	monitorCtx, cancel := context.WithCancel(ctx)
	e.cancelMonitor = cancel

	monitor := NewCompletionMonitor(e.svc, workflowID, executionID,
		e.config.Monitor, e.logger, e.collector)
	if e.onRunFinished != nil {
		monitor.OnTerminal(e.onRunFinished)
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		monitor.Run(monitorCtx)
	}()

	e.logger.Info("execution started",
		zap.String("workflow_id", workflowID),
		zap.String("execution_id", executionID))
	return executionID, nil
}

// StopRun cancels the remote execution, stops monitoring it, and dismisses
// any input modal it had open.
func (e *Engine) StopRun(ctx context.Context, executionID string) error {
	e.mu.Lock()
	if e.cancelMonitor != nil {
		e.cancelMonitor()
		e.cancelMonitor = nil
	}
	e.mu.Unlock()

	if shown, ok := e.queue.Shown(); ok && shown.ExecutionID == executionID {
		e.queue.Cancel(ctx)
	}
	return e.svc.StopExecution(ctx, executionID)
}

// Close cancels both polling loops and waits for them to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.cancelPoll != nil {
		e.cancelPoll()
		e.cancelPoll = nil
	}
	if e.cancelMonitor != nil {
		e.cancelMonitor()
		e.cancelMonitor = nil
	}
	e.mu.Unlock()
	e.wg.Wait()
}
