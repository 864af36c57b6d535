package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/execsync"
)

func TestEventHubStreamsToWebsocketClient(t *testing.T) {
	hub := NewEventHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleEvents))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	hub.Publish(Event{Type: EventInputRequested, Timestamp: time.Now()})

	var ev Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, EventInputRequested, ev.Type)
}

func TestEventHubDropsDisconnectedClients(t *testing.T) {
	hub := NewEventHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleEvents))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")
	// The next publishes flush the buffer; the dead client is dropped once
	// its channel fills.
	for i := 0; i < 64; i++ {
		hub.Publish(Event{Type: EventInputClosed, Timestamp: time.Now()})
	}

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestEventHubBindEngineForwardsQueueEvents(t *testing.T) {
	hub := NewEventHub(zap.NewNop())

	set := execsync.NewMemoryTTLSet(time.Second)
	defer set.Close()
	engine := execsync.NewEngine(&stubService{}, set, execsync.DefaultConfig(), zap.NewNop(), nil)
	defer engine.Close()
	hub.BindEngine(engine)

	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	engine.Queue().SetPending(context.Background(), []execsync.PendingHumanInput{
		{ExecutionID: "e1", AgentID: "a1", RequestedAt: time.Now()},
	})

	select {
	case ev := <-ch:
		assert.Equal(t, EventInputRequested, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published for queue show")
	}
}
