package editor

import (
	"math"

	"go.uber.org/zap"

	"github.com/BaSui01/agentcanvas/canvas"
	"github.com/BaSui01/agentcanvas/graph"
	"github.com/BaSui01/agentcanvas/types"
)

// Engine is the interaction state machine driving the workflow canvas. It
// owns the viewport and the selection, mutates the graph through
// policy-gated operations, and hands the renderer a pure view of its state.
type Engine struct {
	graph    *graph.Graph
	viewport canvas.Viewport

	// viewport pixel size, updated by the host on resize; used for
	// toolbar zoom and centering.
	width, height float64

	state   State
	pan     *panSession
	drag    *dragSession
	connect *connectSession

	selectedNodeID string
	selectedEdgeID string
	panel          Panel

	pendingDelete *deleteTarget

	logger *zap.Logger
}

// New creates an engine over the given graph with a reset viewport.
func New(g *graph.Graph, width, height float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		graph:    g,
		viewport: canvas.Reset(width, height),
		width:    width,
		height:   height,
		state:    StateIdle,
		logger:   logger.With(zap.String("component", "editor")),
	}
}

// Graph returns the underlying graph model.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Viewport returns the current viewport transform.
func (e *Engine) Viewport() canvas.Viewport { return e.viewport }

// State returns the current interaction state.
func (e *Engine) State() State { return e.state }

// SelectedNode returns the selected node id, if any.
func (e *Engine) SelectedNode() (string, bool) {
	return e.selectedNodeID, e.selectedNodeID != ""
}

// SelectedEdge returns the selected edge id, if any.
func (e *Engine) SelectedEdge() (string, bool) {
	return e.selectedEdgeID, e.selectedEdgeID != ""
}

// OpenPanel returns which side panel is open.
func (e *Engine) OpenPanel() Panel { return e.panel }

// Resize informs the engine of the viewport pixel size.
func (e *Engine) Resize(width, height float64) {
	e.width, e.height = width, height
}

// =============================================================================
// Pointer state machine
// =============================================================================

// PointerDown begins a gesture. Hit-testing runs topmost-first: connection
// handles, then node bodies, then edge curves, then empty canvas.
func (e *Engine) PointerDown(ev PointerEvent) {
	// A new gesture while connecting cancels the previous session first.
	if e.state == StateConnectingEdge {
		e.cancelConnect("superseded")
	}
	if e.state != StateIdle {
		return
	}

	logical := e.viewport.ToLogical(ev.Point)

	if ev.Button == ButtonMiddle {
		e.state = StatePanningCanvas
		e.pan = &panSession{last: ev.Point}
		return
	}

	if n, onDelegate, ok := e.handleAt(logical); ok {
		e.state = StateConnectingEdge
		e.connect = &connectSession{
			sourceNodeID: n.ID,
			fromDelegate: onDelegate,
			cursor:       logical,
		}
		return
	}

	if n, ok := e.nodeAt(logical); ok {
		e.state = StateDraggingNode
		e.drag = &dragSession{nodeID: n.ID, last: ev.Point, start: ev.Point}
		return
	}

	if edge, ok := e.edgeAt(logical); ok {
		e.SelectEdge(edge.ID)
		return
	}

	// Empty canvas: primary or middle button pans; any press clears the
	// selection.
	e.ClearSelection()
	if ev.Button == ButtonPrimary {
		e.state = StatePanningCanvas
		e.pan = &panSession{last: ev.Point}
	}
}

// PointerMove advances the active gesture.
func (e *Engine) PointerMove(p canvas.Point) {
	switch e.state {
	case StatePanningCanvas:
		e.viewport = e.viewport.Panned(p.X-e.pan.last.X, p.Y-e.pan.last.Y)
		e.pan.last = p

	case StateDraggingNode:
		dx := (p.X - e.drag.last.X) / e.viewport.Zoom
		dy := (p.Y - e.drag.last.Y) / e.viewport.Zoom
		e.drag.last = p
		if !e.drag.significant {
			if dist(p, e.drag.start) > dragThreshold {
				e.drag.significant = true
			}
		}
		n, ok := e.graph.Node(e.drag.nodeID)
		if !ok {
			// Node deleted out from under the drag; drop the gesture.
			e.logger.Warn("drag target vanished", zap.String("node_id", e.drag.nodeID))
			e.drag = nil
			e.state = StateIdle
			return
		}
		if err := e.graph.MoveNode(n.ID, graph.Position{X: n.Position.X + dx, Y: n.Position.Y + dy}); err != nil {
			e.logger.Warn("move failed", zap.String("node_id", n.ID), zap.Error(err))
		}

	case StateConnectingEdge:
		e.connect.cursor = e.viewport.ToLogical(p)
	}
}

// PointerUp completes the active gesture.
func (e *Engine) PointerUp(p canvas.Point) {
	switch e.state {
	case StatePanningCanvas:
		e.pan = nil
		e.state = StateIdle

	case StateDraggingNode:
		drag := e.drag
		e.drag = nil
		e.state = StateIdle
		// A non-significant drag is a click: select and open the panel.
		if !drag.significant {
			e.SelectNode(drag.nodeID)
		}

	case StateConnectingEdge:
		sess := e.connect
		e.connect = nil
		e.state = StateIdle

		logical := e.viewport.ToLogical(p)
		target, ok := e.nodeAt(logical)
		if !ok {
			e.logger.Debug("connection cancelled", zap.String("source", sess.sourceNodeID))
			return
		}
		edge, err := e.graph.AddEdge(sess.sourceNodeID, target.ID)
		if err != nil {
			// Policy rejections surface to the user as a notification;
			// the graph is untouched.
			e.logger.Info("connection rejected",
				zap.String("source", sess.sourceNodeID),
				zap.String("target", target.ID),
				zap.String("code", string(types.GetErrorCode(err))))
			return
		}
		e.logger.Debug("connection created",
			zap.String("edge_id", edge.ID),
			zap.String("kind", string(edge.Kind)))
	}
}

// Wheel zooms around the pointer position.
func (e *Engine) Wheel(delta float64, p canvas.Point) {
	factor := 1.0 + delta
	e.viewport = e.viewport.ZoomAround(e.viewport.Zoom*factor, p)
}

// ZoomIn zooms one step around the viewport center.
func (e *Engine) ZoomIn() {
	e.viewport = e.viewport.ZoomAroundCenter(e.viewport.Zoom*1.2, e.width, e.height)
}

// ZoomOut zooms one step out around the viewport center.
func (e *Engine) ZoomOut() {
	e.viewport = e.viewport.ZoomAroundCenter(e.viewport.Zoom/1.2, e.width, e.height)
}

// CenterView fits all nodes into the viewport, or recenters the nominal
// canvas center when the graph is empty.
func (e *Engine) CenterView() {
	e.viewport = canvas.FitNodes(e.graph.Nodes(), e.width, e.height)
}

// ResetViewport restores the default zoom and centering, as on workflow
// switch.
func (e *Engine) ResetViewport() {
	e.viewport = canvas.Reset(e.width, e.height)
}

// =============================================================================
// Selection and panels
// =============================================================================

// SelectNode selects a node, clearing any edge selection, and opens the
// node properties panel. Selecting a vanished node is a logged no-op.
func (e *Engine) SelectNode(id string) {
	if _, ok := e.graph.Node(id); !ok {
		e.logger.Warn("select on missing node", zap.String("node_id", id))
		return
	}
	e.selectedNodeID = id
	e.selectedEdgeID = ""
	e.panel = PanelNode
}

// SelectEdge selects an edge, clearing any node selection, and opens the
// connection panel.
func (e *Engine) SelectEdge(id string) {
	if _, ok := e.graph.Edge(id); !ok {
		e.logger.Warn("select on missing edge", zap.String("edge_id", id))
		return
	}
	e.selectedEdgeID = id
	e.selectedNodeID = ""
	e.panel = PanelEdge
}

// ClearSelection drops any selection and closes the open panel.
func (e *Engine) ClearSelection() {
	e.selectedNodeID = ""
	e.selectedEdgeID = ""
	e.panel = PanelNone
}

// UpdateSelectedNodeData applies a panel edit to the selected node. Acting
// on a node that vanished mid-edit is a logged no-op, never a crash.
func (e *Engine) UpdateSelectedNodeData(patch map[string]any) {
	if e.selectedNodeID == "" {
		return
	}
	if _, err := e.graph.UpdateNodeData(e.selectedNodeID, patch); err != nil {
		if types.IsStaleData(err) {
			e.logger.Warn("panel edit on missing node", zap.String("node_id", e.selectedNodeID))
			e.ClearSelection()
			return
		}
		e.logger.Error("panel edit failed", zap.Error(err))
	}
}

// UpdateSelectedEdgeMeta applies a connection-panel metadata edit.
func (e *Engine) UpdateSelectedEdgeMeta(meta graph.EdgeMeta) {
	if e.selectedEdgeID == "" {
		return
	}
	if _, err := e.graph.UpdateEdgeMeta(e.selectedEdgeID, meta); err != nil {
		if types.IsStaleData(err) {
			e.logger.Warn("panel edit on missing edge", zap.String("edge_id", e.selectedEdgeID))
			e.ClearSelection()
			return
		}
		e.logger.Error("edge edit failed", zap.Error(err))
	}
}

// UpdateSelectedEdgeKind changes the selected edge's kind among the
// user-selectable subset.
func (e *Engine) UpdateSelectedEdgeKind(kind graph.EdgeKind) error {
	if e.selectedEdgeID == "" {
		return types.NewError(types.ErrEdgeNotFound, "no edge selected")
	}
	_, err := e.graph.UpdateEdgeKind(e.selectedEdgeID, kind)
	return err
}

// =============================================================================
// Deletion with confirmation
// =============================================================================

// RequestDeleteNode stages a node deletion pending user confirmation.
func (e *Engine) RequestDeleteNode(id string) {
	e.pendingDelete = &deleteTarget{nodeID: id}
}

// RequestDeleteEdge stages an edge deletion pending user confirmation.
func (e *Engine) RequestDeleteEdge(id string) {
	e.pendingDelete = &deleteTarget{edgeID: id}
}

// HasPendingDelete reports whether a delete confirmation dialog should be
// showing.
func (e *Engine) HasPendingDelete() bool { return e.pendingDelete != nil }

// CancelDelete drops the staged deletion.
func (e *Engine) CancelDelete() { e.pendingDelete = nil }

// ConfirmDelete commits the staged deletion. Node deletion cascades to
// touching edges and closes any panel referencing the node or one of the
// cascaded edges; edge deletion closes the connection panel if it showed
// that edge. Deleting an already-gone element is a logged no-op.
func (e *Engine) ConfirmDelete() {
	target := e.pendingDelete
	e.pendingDelete = nil
	if target == nil {
		return
	}

	if target.nodeID != "" {
		removedEdges, err := e.graph.RemoveNode(target.nodeID)
		if err != nil {
			e.logger.Warn("delete on missing node", zap.String("node_id", target.nodeID))
			return
		}
		if e.selectedNodeID == target.nodeID {
			e.ClearSelection()
		}
		for _, eid := range removedEdges {
			if e.selectedEdgeID == eid {
				e.ClearSelection()
			}
		}
		e.logger.Info("node deleted",
			zap.String("node_id", target.nodeID),
			zap.Int("cascaded_edges", len(removedEdges)))
		return
	}

	if err := e.graph.RemoveEdge(target.edgeID); err != nil {
		e.logger.Warn("delete on missing edge", zap.String("edge_id", target.edgeID))
		return
	}
	if e.selectedEdgeID == target.edgeID {
		e.ClearSelection()
	}
	e.logger.Info("edge deleted", zap.String("edge_id", target.edgeID))
}

// =============================================================================
// Hit testing
// =============================================================================

// nodeAt returns the topmost node whose body contains the logical point.
// Later-created nodes render on top, so iteration runs in reverse creation
// order.
func (e *Engine) nodeAt(p graph.Position) (graph.Node, bool) {
	nodes := e.graph.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if canvas.NodeBounds(nodes[i]).Contains(p) {
			return nodes[i], true
		}
	}
	return graph.Node{}, false
}

// handleAt returns the topmost node whose output or delegate handle
// contains the logical point.
func (e *Engine) handleAt(p graph.Position) (n graph.Node, onDelegate bool, ok bool) {
	nodes := e.graph.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if canvas.HitsDelegateHandle(nodes[i], p) {
			return nodes[i], true, true
		}
		if canvas.HitsOutputHandle(nodes[i], p) {
			return nodes[i], false, true
		}
	}
	return graph.Node{}, false, false
}

// edgeAt returns the first edge whose curve passes within the hit
// tolerance of the logical point.
func (e *Engine) edgeAt(p graph.Position) (graph.Edge, bool) {
	for _, edge := range e.graph.Edges() {
		src, ok := e.graph.Node(edge.Source)
		if !ok {
			continue
		}
		tgt, ok := e.graph.Node(edge.Target)
		if !ok {
			continue
		}
		if canvas.HitTestEdge(src, tgt, edge.Kind, p, canvas.EdgeHitTolerance) {
			return edge, true
		}
	}
	return graph.Edge{}, false
}

func (e *Engine) cancelConnect(reason string) {
	if e.connect != nil {
		e.logger.Debug("connect session cancelled",
			zap.String("source", e.connect.sourceNodeID),
			zap.String("reason", reason))
	}
	e.connect = nil
	e.state = StateIdle
}

func dist(a, b canvas.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
