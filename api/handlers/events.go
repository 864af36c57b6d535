package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/execsync"
)

// Event types pushed on the websocket feed.
const (
	EventInputRequested = "input_requested"
	EventInputClosed    = "input_closed"
	EventRunFinished    = "run_finished"
)

// Event is one message on the editor event feed.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventHub fans sync-engine events out to connected websocket clients.
// Slow clients are dropped rather than allowed to block the feed.
type EventHub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[chan Event]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		logger:  logger.With(zap.String("component", "event_hub")),
		clients: make(map[chan Event]struct{}),
	}
}

// BindEngine subscribes the hub to the sync engine's observers. Call once
// during wiring, before polling starts.
func (h *EventHub) BindEngine(engine *execsync.Engine) {
	queue := engine.Queue()
	queue.OnShow(func(p execsync.PendingHumanInput) {
		h.Publish(Event{Type: EventInputRequested, Payload: p, Timestamp: time.Now()})
	})
	queue.OnHide(func() {
		h.Publish(Event{Type: EventInputClosed, Timestamp: time.Now()})
	})
	engine.OnRunFinished(func(r execsync.ExecutionRecord) {
		h.Publish(Event{Type: EventRunFinished, Payload: r, Timestamp: time.Now()})
	})
}

// Publish sends the event to every connected client.
func (h *EventHub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			// Client is not keeping up; closing its channel ends its writer.
			delete(h.clients, ch)
			close(ch)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// HandleEvents upgrades the request to a websocket and streams events
// until the client disconnects.
func (h *EventHub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "client too slow")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
