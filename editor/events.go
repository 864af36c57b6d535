package editor

import (
	"github.com/BaSui01/agentcanvas/canvas"
	"github.com/BaSui01/agentcanvas/graph"
)

// State identifies the interaction engine's current mode.
type State string

const (
	// StateIdle accepts new gestures.
	StateIdle State = "idle"
	// StatePanningCanvas tracks a canvas pan drag.
	StatePanningCanvas State = "panning_canvas"
	// StateDraggingNode tracks a node reposition drag.
	StateDraggingNode State = "dragging_node"
	// StateConnectingEdge tracks an in-progress connection gesture.
	StateConnectingEdge State = "connecting_edge"
)

// Button identifies which pointer button started a gesture.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent is a pointer sample in screen pixels.
type PointerEvent struct {
	Point  canvas.Point
	Button Button
}

// dragThreshold is the screen-pixel distance past which a pointerdown on a
// node counts as a drag rather than a click. Below it, pointerup selects
// the node and opens its panel; above it, the gesture only repositions.
const dragThreshold = 4.0

// Panel identifies which side panel is open.
type Panel string

const (
	PanelNone Panel = ""
	PanelNode Panel = "node"
	PanelEdge Panel = "edge"
)

// deleteTarget is a pending, unconfirmed delete request.
type deleteTarget struct {
	nodeID string
	edgeID string
}

// dragSession tracks an active node drag.
type dragSession struct {
	nodeID      string
	last        canvas.Point
	start       canvas.Point
	significant bool
}

// panSession tracks an active canvas pan.
type panSession struct {
	last canvas.Point
}

// connectSession tracks an active connection gesture. Only one session may
// exist at a time; starting another cancels this one first.
type connectSession struct {
	sourceNodeID string
	fromDelegate bool
	// cursor is the free end of the temporary curve, in logical
	// coordinates.
	cursor graph.Position
}
