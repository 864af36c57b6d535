package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentcanvas/canvas"
	"github.com/BaSui01/agentcanvas/graph"
)

func TestDeriveRenderModel_Basics(t *testing.T) {
	e := newTestEngine(t)
	a := addNodeAt(t, e, graph.NodeStart, 4800, 5000)
	b := addNodeAt(t, e, graph.NodeAssistant, 5300, 5000)
	edge, err := e.Graph().AddEdge(a.ID, b.ID)
	require.NoError(t, err)
	e.SelectNode(b.ID)

	m := DeriveRenderModel(e, ExecutionView{})

	require.Len(t, m.Nodes, 2)
	require.Len(t, m.Edges, 1)
	assert.Equal(t, edge.ID, m.Edges[0].Edge.ID)
	assert.Nil(t, m.Pending)
	assert.Equal(t, PanelNode, m.OpenPanel)

	assert.False(t, m.Nodes[0].Selected)
	assert.True(t, m.Nodes[1].Selected)

	// Node screen placement follows the viewport transform.
	want := e.Viewport().ToScreen(graph.Position{X: 4800, Y: 5000})
	assert.Equal(t, want, m.Nodes[0].Screen)
}

func TestDeriveRenderModel_HighlightsAwaitingAgents(t *testing.T) {
	e := newTestEngine(t)
	a := addNodeAt(t, e, graph.NodeAssistant, 4800, 5000)
	b := addNodeAt(t, e, graph.NodeAssistant, 5300, 5000)

	m := DeriveRenderModel(e, ExecutionView{
		RunningExecutionID: "exec-1",
		AwaitingAgentIDs:   map[string]bool{a.ID: true},
	})

	assert.True(t, m.Nodes[0].AwaitingInput)
	assert.False(t, m.Nodes[1].AwaitingInput)
	_ = b
}

func TestDeriveRenderModel_PendingCurveDuringConnect(t *testing.T) {
	e := newTestEngine(t)
	a := addNodeAt(t, e, graph.NodeStart, 4800, 5000)

	e.PointerDown(PointerEvent{Point: screenAt(e, canvas.OutputAnchor(a)), Button: ButtonPrimary})
	cursor := screenAt(e, graph.Position{X: 5100, Y: 5100})
	e.PointerMove(cursor)

	m := DeriveRenderModel(e, ExecutionView{})
	require.NotNil(t, m.Pending)
	assert.Equal(t, screenAt(e, canvas.OutputAnchor(a)), m.Pending.From)
	assert.InDelta(t, cursor.X, m.Pending.To.X, 1e-9)
	assert.InDelta(t, cursor.Y, m.Pending.To.Y, 1e-9)

	e.PointerUp(screenAt(e, graph.Position{X: 4000, Y: 4000}))
	m = DeriveRenderModel(e, ExecutionView{})
	assert.Nil(t, m.Pending)
}

func TestDeriveRenderModel_IsPure(t *testing.T) {
	e := newTestEngine(t)
	addNodeAt(t, e, graph.NodeAssistant, 4800, 5000)

	m1 := DeriveRenderModel(e, ExecutionView{})
	m2 := DeriveRenderModel(e, ExecutionView{})
	assert.Equal(t, m1, m2, "unchanged state must derive equal models")
}

func TestDeriveRenderModel_ConfirmDeleteFlag(t *testing.T) {
	e := newTestEngine(t)
	n := addNodeAt(t, e, graph.NodeAssistant, 4800, 5000)

	e.RequestDeleteNode(n.ID)
	m := DeriveRenderModel(e, ExecutionView{})
	assert.True(t, m.ConfirmDelete)

	e.CancelDelete()
	m = DeriveRenderModel(e, ExecutionView{})
	assert.False(t, m.ConfirmDelete)
}
