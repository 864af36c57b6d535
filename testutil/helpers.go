// Package testutil provides shared test helpers: bounded contexts,
// polling assertions, and graph fixtures.
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BaSui01/agentcanvas/graph"
)

// TestContext returns a context bounded to 30 seconds, cancelled on
// cleanup.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout returns a context with a custom bound.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already-cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// WaitFor polls the condition until it holds or the timeout elapses.
func WaitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

// WaitForChannel receives one value from ch or gives up after timeout.
func WaitForChannel[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

// MustJSON marshals v or panics. For building test fixtures.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// MustParseJSON unmarshals s into T or panics.
func MustParseJSON[T any](s string) T {
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

// LinearWorkflow builds a start -> assistant -> end graph, the smallest
// runnable workflow shape.
func LinearWorkflow(t *testing.T) (*graph.Graph, []graph.Node) {
	t.Helper()
	g := graph.New()

	start, err := g.AddNode(graph.NodeStart, graph.Position{X: 100, Y: 200})
	if err != nil {
		t.Fatalf("add start node: %v", err)
	}
	agent, err := g.AddNode(graph.NodeAssistant, graph.Position{X: 400, Y: 200})
	if err != nil {
		t.Fatalf("add assistant node: %v", err)
	}
	end, err := g.AddNode(graph.NodeEnd, graph.Position{X: 700, Y: 200})
	if err != nil {
		t.Fatalf("add end node: %v", err)
	}

	if _, err := g.AddEdge(start.ID, agent.ID); err != nil {
		t.Fatalf("connect start->assistant: %v", err)
	}
	if _, err := g.AddEdge(agent.ID, end.ID); err != nil {
		t.Fatalf("connect assistant->end: %v", err)
	}

	return g, []graph.Node{start, agent, end}
}

// DelegationWorkflow builds a group-chat-manager with a delegate pair
// attached, exercising both delegate edge kinds.
func DelegationWorkflow(t *testing.T) (*graph.Graph, []graph.Node) {
	t.Helper()
	g := graph.New()

	manager, err := g.AddNode(graph.NodeGroupChatManager, graph.Position{X: 400, Y: 200})
	if err != nil {
		t.Fatalf("add manager node: %v", err)
	}
	delegate, err := g.AddNode(graph.NodeDelegate, graph.Position{X: 400, Y: 500})
	if err != nil {
		t.Fatalf("add delegate node: %v", err)
	}

	if _, err := g.AddEdge(manager.ID, delegate.ID); err != nil {
		t.Fatalf("connect manager->delegate: %v", err)
	}
	if _, err := g.AddEdge(delegate.ID, manager.ID); err != nil {
		t.Fatalf("connect delegate->manager: %v", err)
	}

	return g, []graph.Node{manager, delegate}
}
