package execsync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/internal/metrics"
)

// RequestPhase is the lifecycle phase of a single pending-input request:
// None -> Requested -> Shown -> Submitted|Cancelled -> None.
type RequestPhase string

const (
	PhaseNone      RequestPhase = "none"
	PhaseRequested RequestPhase = "requested"
	PhaseShown     RequestPhase = "shown"
	PhaseSubmitted RequestPhase = "submitted"
	PhaseCancelled RequestPhase = "cancelled"
)

// InputQueue holds the pending human-input requests reported by the poll
// loop and decides which one the modal shows. At most one request is shown
// at a time; later arrivals queue behind it first-in-first-shown.
//
// The queue is written by the polling loop and read by the UI layer. The
// UI never mutates it directly; submitting or cancelling acknowledges the
// shown entry, and the next poll reflects the result.
type InputQueue struct {
	svc            ExecutionService
	recentlyClosed TTLSet
	logger         *zap.Logger
	collector      *metrics.Collector

	mu        sync.RWMutex
	queued    []PendingHumanInput
	shown     *PendingHumanInput
	modalOpen bool

	onShow func(PendingHumanInput)
	onHide func()
}

// NewInputQueue creates a queue over the given service and suppression set.
func NewInputQueue(svc ExecutionService, recentlyClosed TTLSet, logger *zap.Logger) *InputQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InputQueue{
		svc:            svc,
		recentlyClosed: recentlyClosed,
		logger:         logger.With(zap.String("component", "input_queue")),
	}
}

// Metrics attaches an optional collector; nil disables metric recording.
func (q *InputQueue) Metrics(c *metrics.Collector) { q.collector = c }

// OnShow registers the observer invoked when a request becomes visible
// (the modal should open or switch content). Register before polling
// starts.
func (q *InputQueue) OnShow(fn func(PendingHumanInput)) { q.onShow = fn }

// OnHide registers the observer invoked when no request is visible any
// more (the modal should close). Register before polling starts.
func (q *InputQueue) OnHide(fn func()) { q.onHide = fn }

// Shown returns the currently visible request, if any.
func (q *InputQueue) Shown() (PendingHumanInput, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.shown == nil {
		return PendingHumanInput{}, false
	}
	return *q.shown, true
}

// QueuedLen returns the number of requests waiting behind the shown one.
func (q *InputQueue) QueuedLen() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.queued)
}

// Phase returns the lifecycle phase of the given execution id as the queue
// sees it right now.
func (q *InputQueue) Phase(executionID string) RequestPhase {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.shown != nil && q.shown.ExecutionID == executionID {
		return PhaseShown
	}
	for _, p := range q.queued {
		if p.ExecutionID == executionID {
			return PhaseRequested
		}
	}
	return PhaseNone
}

// AwaitingAgentIDs returns the node ids of every agent with a pending
// request, shown or queued. The editor highlights these nodes.
func (q *InputQueue) AwaitingAgentIDs() map[string]bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make(map[string]bool, len(q.queued)+1)
	if q.shown != nil {
		out[q.shown.AgentID] = true
	}
	for _, p := range q.queued {
		out[p.AgentID] = true
	}
	return out
}

// SetPending republishes the queue from a poll result. Requests whose
// execution id sits in the recently-closed set are skipped, so a
// just-answered request listed by a stale poll cannot reopen the modal.
// If the visible request is no longer listed it has been superseded and
// the modal advances or closes.
func (q *InputQueue) SetPending(ctx context.Context, pending []PendingHumanInput) {
	listed := make(map[string]bool, len(pending))
	fresh := pending[:0:0]
	for _, p := range pending {
		suppressed, err := q.recentlyClosed.Contains(ctx, p.ExecutionID)
		if err != nil {
			q.logger.Warn("recently-closed lookup failed",
				zap.String("execution_id", p.ExecutionID), zap.Error(err))
		}
		if suppressed {
			q.collector.IncSuppressedReopen()
			continue
		}
		listed[p.ExecutionID] = true
		fresh = append(fresh, p)
	}

	q.mu.Lock()
	// The visible request survives only while the service still lists it.
	if q.shown != nil && !listed[q.shown.ExecutionID] {
		q.shown = nil
	}

	// Rebuild the waiting line in arrival order: entries we already knew
	// keep their place, genuinely new ones append behind.
	known := make(map[string]bool, len(q.queued))
	var next []PendingHumanInput
	for _, p := range q.queued {
		if listed[p.ExecutionID] && (q.shown == nil || p.ExecutionID != q.shown.ExecutionID) {
			next = append(next, p)
			known[p.ExecutionID] = true
		}
	}
	for _, p := range fresh {
		if known[p.ExecutionID] {
			continue
		}
		if q.shown != nil && p.ExecutionID == q.shown.ExecutionID {
			continue
		}
		next = append(next, p)
	}
	q.queued = next
	q.advanceLocked()
}

// Submit answers the visible request and suppresses its execution id for
// the grace period, then advances to the next queued request.
func (q *InputQueue) Submit(ctx context.Context, text string, opts *SubmitOptions) error {
	q.mu.RLock()
	shown := q.shown
	q.mu.RUnlock()
	if shown == nil {
		return nil
	}
	if err := q.svc.SubmitHumanInput(ctx, shown.ExecutionID, text, opts); err != nil {
		// The request stays shown; the user may retry.
		return err
	}
	q.closeShown(ctx, shown.ExecutionID)
	return nil
}

// Cancel dismisses the visible request without answering, typically
// because the run was stopped. The id is suppressed the same way a
// submitted one is, for the same stale-poll reason.
func (q *InputQueue) Cancel(ctx context.Context) {
	q.mu.RLock()
	shown := q.shown
	q.mu.RUnlock()
	if shown == nil {
		return
	}
	q.closeShown(ctx, shown.ExecutionID)
}

func (q *InputQueue) closeShown(ctx context.Context, executionID string) {
	if err := q.recentlyClosed.Add(ctx, executionID); err != nil {
		q.logger.Warn("recently-closed add failed",
			zap.String("execution_id", executionID), zap.Error(err))
	}
	q.mu.Lock()
	if q.shown != nil && q.shown.ExecutionID == executionID {
		q.shown = nil
	}
	q.advanceLocked()
}

// advanceLocked shows the first queued request if nothing is visible, or
// fires onHide when the whole queue drained while the modal was open.
// Called with mu held; releases it before invoking observers.
func (q *InputQueue) advanceLocked() {
	if q.shown != nil {
		q.mu.Unlock()
		return
	}
	if len(q.queued) == 0 {
		fire := q.modalOpen
		q.modalOpen = false
		q.mu.Unlock()
		if fire && q.onHide != nil {
			q.onHide()
		}
		return
	}
	head := q.queued[0]
	q.queued = q.queued[1:]
	q.shown = &head
	q.modalOpen = true
	q.mu.Unlock()
	if q.onShow != nil {
		q.onShow(head)
	}
}
