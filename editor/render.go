package editor

import (
	"github.com/BaSui01/agentcanvas/canvas"
	"github.com/BaSui01/agentcanvas/graph"
)

// ExecutionView is the slice of remote execution state the renderer needs:
// which agents are waiting on human input (for node highlighting) and
// whether a run is active. It references node ids by convention only; the
// graph does not own it.
type ExecutionView struct {
	RunningExecutionID string
	AwaitingAgentIDs   map[string]bool
}

// NodeView is one node prepared for rendering.
type NodeView struct {
	Node          graph.Node
	Screen        canvas.Point
	Width, Height float64
	Selected      bool
	AwaitingInput bool
}

// EdgeView is one edge prepared for rendering, with its bezier control
// points converted to screen coordinates.
type EdgeView struct {
	Edge     graph.Edge
	Curve    [4]canvas.Point
	Selected bool
}

// PendingCurve is the temporary curve drawn during a connect gesture.
type PendingCurve struct {
	From canvas.Point
	To   canvas.Point
}

// RenderModel is everything the host needs to draw one frame. It is a pure
// function of engine state; deriving it never mutates anything.
type RenderModel struct {
	Zoom          float64
	Nodes         []NodeView
	Edges         []EdgeView
	Pending       *PendingCurve
	OpenPanel     Panel
	ConfirmDelete bool
}

// DeriveRenderModel projects the graph, viewport, and execution state into
// a render model. Call it after any event that may have changed state;
// repeated calls with unchanged state yield equal models.
func DeriveRenderModel(e *Engine, exec ExecutionView) RenderModel {
	v := e.Viewport()
	g := e.Graph()

	m := RenderModel{
		Zoom:          v.Zoom,
		OpenPanel:     e.OpenPanel(),
		ConfirmDelete: e.HasPendingDelete(),
	}

	for _, n := range g.Nodes() {
		w, h := canvas.NodeSize(n.Type)
		m.Nodes = append(m.Nodes, NodeView{
			Node:          n,
			Screen:        v.ToScreen(n.Position),
			Width:         w * v.Zoom,
			Height:        h * v.Zoom,
			Selected:      e.selectedNodeID == n.ID,
			AwaitingInput: exec.AwaitingAgentIDs[n.ID],
		})
	}

	for _, edge := range g.Edges() {
		src, ok := g.Node(edge.Source)
		if !ok {
			continue
		}
		tgt, ok := g.Node(edge.Target)
		if !ok {
			continue
		}
		p0, c1, c2, p1 := canvas.EdgeCurve(src, tgt, edge.Kind)
		m.Edges = append(m.Edges, EdgeView{
			Edge: edge,
			Curve: [4]canvas.Point{
				v.ToScreen(p0), v.ToScreen(c1), v.ToScreen(c2), v.ToScreen(p1),
			},
			Selected: e.selectedEdgeID == edge.ID,
		})
	}

	if e.state == StateConnectingEdge && e.connect != nil {
		if src, ok := g.Node(e.connect.sourceNodeID); ok {
			from := canvas.OutputAnchor(src)
			if e.connect.fromDelegate {
				from = canvas.DelegateAnchor(src)
			}
			m.Pending = &PendingCurve{
				From: v.ToScreen(from),
				To:   v.ToScreen(e.connect.cursor),
			}
		}
	}

	return m
}
