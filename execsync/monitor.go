package execsync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/internal/metrics"
)

// Completion-monitor defaults: a poll every three seconds, bounded to one
// hundred attempts. Exhausting the bound stops the monitor without
// asserting anything about the run, which is presumed still active.
const (
	DefaultMonitorInterval    = 3 * time.Second
	DefaultMonitorMaxAttempts = 100
)

// MonitorConfig configures a CompletionMonitor.
type MonitorConfig struct {
	Interval    time.Duration `yaml:"interval" json:"interval"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
}

// DefaultMonitorConfig returns the default monitor settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:    DefaultMonitorInterval,
		MaxAttempts: DefaultMonitorMaxAttempts,
	}
}

// CompletionMonitor watches a single execution until it reaches a terminal
// status. On the terminal transition it fires onTerminal exactly once and
// stops itself; subsequent polls never re-fire it.
type CompletionMonitor struct {
	svc         ExecutionService
	workflowID  string
	executionID string
	config      MonitorConfig
	logger      *zap.Logger
	collector   *metrics.Collector

	onTerminal  func(ExecutionRecord)
	onExhausted func()
}

// NewCompletionMonitor creates a monitor for one execution of a workflow.
func NewCompletionMonitor(svc ExecutionService, workflowID, executionID string,
	config MonitorConfig, logger *zap.Logger, collector *metrics.Collector) *CompletionMonitor {
	if config.Interval <= 0 {
		config.Interval = DefaultMonitorInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMonitorMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionMonitor{
		svc:         svc,
		workflowID:  workflowID,
		executionID: executionID,
		config:      config,
		logger: logger.With(
			zap.String("component", "completion_monitor"),
			zap.String("execution_id", executionID)),
		collector: collector,
	}
}

// OnTerminal registers the one-shot observer for the terminal transition:
// the UI flips to the history view and raises a notification. Register
// before Run.
func (m *CompletionMonitor) OnTerminal(fn func(ExecutionRecord)) { m.onTerminal = fn }

// OnExhausted registers the observer fired when the attempt bound runs out
// without a terminal status. The UI must not claim the run finished.
func (m *CompletionMonitor) OnExhausted(fn func()) { m.onExhausted = fn }

// Run polls until a terminal status, exhaustion, or ctx cancellation,
// whichever comes first.
func (m *CompletionMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for attempts := 0; attempts < m.config.MaxAttempts; {
		select {
		case <-ctx.Done():
			m.logger.Debug("completion monitor cancelled")
			return
		case <-ticker.C:
			attempts++
			if m.checkOnce(ctx) {
				return
			}
		}
	}

	m.logger.Info("completion monitor exhausted its attempt bound",
		zap.Int("attempts", m.config.MaxAttempts))
	if m.onExhausted != nil {
		m.onExhausted()
	}
}

// checkOnce polls the history once; true means the monitor is done.
func (m *CompletionMonitor) checkOnce(ctx context.Context) bool {
	m.collector.IncPollTick("completion")

	history, err := m.svc.GetExecutionHistory(ctx, m.workflowID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		m.collector.IncPollFailure("completion")
		m.logger.Warn("history poll failed", zap.Error(err))
		return false
	}

	record, ok := history.Find(m.executionID)
	if !ok {
		// Not listed yet; the run may still be spinning up.
		return false
	}
	if !record.Status.Terminal() {
		return false
	}

	m.logger.Info("execution reached terminal status",
		zap.String("status", string(record.Status)))
	if m.onTerminal != nil {
		m.onTerminal(record)
	}
	return true
}
