package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentcanvas/types"
)

func TestGraph_AddNode(t *testing.T) {
	g := New()

	n, err := g.AddNode(NodeAssistant, Position{X: 10, Y: 20})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, NodeAssistant, n.Type)
	assert.Equal(t, Position{X: 10, Y: 20}, n.Position)
	assert.Equal(t, 1, g.NodeCount())

	_, err = g.AddNode(NodeType("bogus"), Position{})
	assert.Equal(t, types.ErrInvalidNodeType, types.GetErrorCode(err))
	assert.Equal(t, 1, g.NodeCount())
}

func TestGraph_NodeDataIsNeverAliased(t *testing.T) {
	g := New()

	data := map[string]any{"name": "planner", "nested": map[string]any{"k": "v"}}
	n, err := g.AddNodeWithData(NodeAssistant, Position{}, data)
	require.NoError(t, err)

	// Mutating the caller's map must not leak into the model.
	data["name"] = "mutated"
	data["nested"].(map[string]any)["k"] = "mutated"

	stored, ok := g.Node(n.ID)
	require.True(t, ok)
	assert.Equal(t, "planner", stored.Data["name"])
	assert.Equal(t, "v", stored.Data["nested"].(map[string]any)["k"])

	// Mutating a returned copy must not leak either.
	stored.Data["name"] = "panel edit"
	again, _ := g.Node(n.ID)
	assert.Equal(t, "planner", again.Data["name"])
}

func TestGraph_UpdateNodeData(t *testing.T) {
	g := New()
	n, err := g.AddNodeWithData(NodeAssistant, Position{}, map[string]any{"name": "a", "model": "gpt"})
	require.NoError(t, err)

	patch := map[string]any{"name": "b", "prompt": "hello"}
	updated, err := g.UpdateNodeData(n.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Data["name"])
	assert.Equal(t, "gpt", updated.Data["model"])
	assert.Equal(t, "hello", updated.Data["prompt"])

	patch["prompt"] = "mutated"
	stored, _ := g.Node(n.ID)
	assert.Equal(t, "hello", stored.Data["prompt"])

	_, err = g.UpdateNodeData("missing", patch)
	assert.Equal(t, types.ErrNodeNotFound, types.GetErrorCode(err))
}

func TestGraph_MoveNode(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeStart, Position{})
	b, _ := g.AddNodeWithData(NodeAssistant, Position{X: 5}, map[string]any{"name": "b"})

	require.NoError(t, g.MoveNode(a.ID, Position{X: -120.5, Y: 44}))

	moved, _ := g.Node(a.ID)
	assert.Equal(t, Position{X: -120.5, Y: 44}, moved.Position)

	// Only the moved node changes; the other keeps position and data.
	other, _ := g.Node(b.ID)
	assert.Equal(t, Position{X: 5}, other.Position)
	assert.Equal(t, "b", other.Data["name"])

	err := g.MoveNode("missing", Position{})
	assert.Equal(t, types.ErrNodeNotFound, types.GetErrorCode(err))
}

func TestGraph_AddEdge(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeStart, Position{})
	b, _ := g.AddNode(NodeAssistant, Position{})

	e, err := g.AddEdge(a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID+"-"+b.ID, e.ID)
	assert.Equal(t, EdgeSequential, e.Kind)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_AddEdge_Rejections(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeStart, Position{})
	b, _ := g.AddNode(NodeAssistant, Position{})

	_, err := g.AddEdge(a.ID, a.ID)
	assert.Equal(t, types.ErrSelfLoop, types.GetErrorCode(err))

	_, err = g.AddEdge(a.ID, "missing")
	assert.Equal(t, types.ErrNodeNotFound, types.GetErrorCode(err))

	_, err = g.AddEdge(a.ID, b.ID)
	require.NoError(t, err)

	// Second identical connection: exactly one edge, DuplicateEdge rejection.
	_, err = g.AddEdge(a.ID, b.ID)
	assert.Equal(t, types.ErrDuplicateEdge, types.GetErrorCode(err))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_EndNodeSaturation(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeStart, Position{})
	b, _ := g.AddNode(NodeAssistant, Position{})
	c, _ := g.AddNode(NodeEnd, Position{})

	_, err := g.AddEdge(a.ID, b.ID)
	require.NoError(t, err)
	_, err = g.AddEdge(b.ID, c.ID)
	require.NoError(t, err)

	// A second incoming edge onto the end node is rejected.
	_, err = g.AddEdge(a.ID, c.ID)
	assert.Equal(t, types.ErrEndNodeSaturated, types.GetErrorCode(err))
	assert.Equal(t, 2, g.EdgeCount())

	// A fresh end node is unaffected by the other one's saturation.
	d, _ := g.AddNode(NodeEnd, Position{})
	_, err = g.AddEdge(b.ID, d.ID)
	assert.NoError(t, err)
}

func TestGraph_DelegateRules(t *testing.T) {
	g := New()
	mgr, _ := g.AddNode(NodeGroupChatManager, Position{})
	del, _ := g.AddNode(NodeDelegate, Position{})
	asst, _ := g.AddNode(NodeAssistant, Position{})

	e, err := g.AddEdge(mgr.ID, del.ID)
	require.NoError(t, err)
	assert.Equal(t, EdgeDelegate, e.Kind)

	e, err = g.AddEdge(del.ID, mgr.ID)
	require.NoError(t, err)
	assert.Equal(t, EdgeDelegateReturn, e.Kind)

	_, err = g.AddEdge(asst.ID, del.ID)
	assert.Equal(t, types.ErrDelegateMisconnection, types.GetErrorCode(err))
	_, err = g.AddEdge(del.ID, asst.ID)
	assert.Equal(t, types.ErrDelegateMisconnection, types.GetErrorCode(err))

	// After all of that, every edge touching the delegate ends at the manager.
	for _, e := range g.EdgesTouching(del.ID) {
		other := e.Source
		if other == del.ID {
			other = e.Target
		}
		assert.Equal(t, mgr.ID, other)
	}
}

func TestGraph_RemoveNodeCascades(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeStart, Position{})
	b, _ := g.AddNode(NodeAssistant, Position{})
	c, _ := g.AddNode(NodeEnd, Position{})
	ab, _ := g.AddEdge(a.ID, b.ID)
	bc, _ := g.AddEdge(b.ID, c.ID)

	removed, err := g.RemoveNode(b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ab.ID, bc.ID}, removed)
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())

	_, err = g.RemoveNode(b.ID)
	assert.Equal(t, types.ErrNodeNotFound, types.GetErrorCode(err))
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeStart, Position{})
	b, _ := g.AddNode(NodeAssistant, Position{})
	e, _ := g.AddEdge(a.ID, b.ID)

	require.NoError(t, g.RemoveEdge(e.ID))
	assert.Equal(t, 0, g.EdgeCount())

	err := g.RemoveEdge(e.ID)
	assert.Equal(t, types.ErrEdgeNotFound, types.GetErrorCode(err))
}

func TestGraph_UpdateEdgeMetaAndKind(t *testing.T) {
	g := New()
	a, _ := g.AddNode(NodeAssistant, Position{})
	b, _ := g.AddNode(NodeAssistant, Position{})
	e, _ := g.AddEdge(a.ID, b.ID)

	label := "on success"
	prio := 3
	updated, err := g.UpdateEdgeMeta(e.ID, EdgeMeta{Label: &label, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, "on success", updated.Label)
	assert.Equal(t, 3, updated.Priority)

	updated, err = g.UpdateEdgeKind(e.ID, EdgeConditional)
	require.NoError(t, err)
	assert.Equal(t, EdgeConditional, updated.Kind)

	_, err = g.UpdateEdgeKind(e.ID, EdgeDelegate)
	assert.Equal(t, types.ErrInvalidEdgeKind, types.GetErrorCode(err))
}

func TestGraph_UpdateEdgeKind_DelegateEdgeFrozen(t *testing.T) {
	g := New()
	mgr, _ := g.AddNode(NodeGroupChatManager, Position{})
	del, _ := g.AddNode(NodeDelegate, Position{})
	e, _ := g.AddEdge(mgr.ID, del.ID)

	_, err := g.UpdateEdgeKind(e.ID, EdgeSequential)
	assert.Equal(t, types.ErrInvalidEdgeKind, types.GetErrorCode(err))
}

func TestGraph_WatchFiresOnMutations(t *testing.T) {
	g := New()
	calls := 0
	g.Watch(func() { calls++ })

	a, _ := g.AddNode(NodeStart, Position{})      // 1
	b, _ := g.AddNode(NodeAssistant, Position{})  // 2
	e, _ := g.AddEdge(a.ID, b.ID)                 // 3
	_ = g.MoveNode(a.ID, Position{X: 1})          // 4
	_, _ = g.UpdateNodeData(b.ID, map[string]any{ // 5
		"name": "x",
	})
	_ = g.RemoveEdge(e.ID)   // 6
	_, _ = g.RemoveNode(a.ID) // 7

	assert.Equal(t, 7, calls)

	// Failed mutations must not fire watchers.
	_, _ = g.AddEdge(b.ID, b.ID)
	_ = g.MoveNode("missing", Position{})
	assert.Equal(t, 7, calls)
}

func TestGraph_Clear(t *testing.T) {
	g := New()
	calls := 0
	g.Watch(func() { calls++ })

	g.Clear() // empty graph: no-op, no notification
	assert.Equal(t, 0, calls)

	_, _ = g.AddNode(NodeStart, Position{})
	g.Clear()
	assert.True(t, g.Empty())
	assert.Equal(t, 2, calls)
}
