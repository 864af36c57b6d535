package execsync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/internal/metrics"
)

// DefaultPollInterval is the human-input polling cadence.
const DefaultPollInterval = 3 * time.Second

// HumanInputPoller fetches the pending human-input requests for a project
// on a fixed interval and republishes them into an InputQueue.
//
// Poll failures are logged and the loop keeps its normal schedule; the
// queue simply retains its last published state until a poll succeeds.
type HumanInputPoller struct {
	svc       ExecutionService
	queue     *InputQueue
	projectID string
	interval  time.Duration
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewHumanInputPoller creates a poller. A zero interval falls back to
// DefaultPollInterval; collector may be nil.
func NewHumanInputPoller(svc ExecutionService, queue *InputQueue, projectID string,
	interval time.Duration, logger *zap.Logger, collector *metrics.Collector) *HumanInputPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HumanInputPoller{
		svc:       svc,
		queue:     queue,
		projectID: projectID,
		interval:  interval,
		logger:    logger.With(zap.String("component", "input_poller")),
		collector: collector,
	}
}

// Run polls until ctx is cancelled. It polls once immediately so a fresh
// view does not wait a full interval for its first state.
func (p *HumanInputPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("input poller stopped", zap.String("project_id", p.projectID))
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *HumanInputPoller) poll(ctx context.Context) {
	p.collector.IncPollTick("human_input")

	pending, err := p.svc.ListPendingHumanInputs(ctx, p.projectID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.collector.IncPollFailure("human_input")
		p.logger.Warn("pending-input poll failed",
			zap.String("project_id", p.projectID), zap.Error(err))
		return
	}

	p.queue.SetPending(ctx, pending)
	p.collector.SetInputQueueDepth(p.queue.QueuedLen())
}
