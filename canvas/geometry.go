package canvas

import (
	"math"

	"github.com/BaSui01/agentcanvas/graph"
)

// Node render dimensions in logical units, keyed by node type. Control
// markers are compact; agent cards are wider.
const (
	agentNodeWidth   = 200.0
	agentNodeHeight  = 90.0
	markerNodeWidth  = 120.0
	markerNodeHeight = 56.0
	managerNodeWidth = 220.0
)

// Edge hit-testing tolerance in logical units. The visible stroke is a few
// pixels wide, far too narrow to target reliably, so selection tests
// against a wide invisible band around the curve.
const EdgeHitTolerance = 10.0

// Rect is an axis-aligned rectangle in logical coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the logical point lies inside the rectangle.
func (r Rect) Contains(p graph.Position) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// NodeSize returns the render dimensions of a node type in logical units.
func NodeSize(t graph.NodeType) (w, h float64) {
	switch t {
	case graph.NodeStart, graph.NodeEnd:
		return markerNodeWidth, markerNodeHeight
	case graph.NodeGroupChatManager:
		return managerNodeWidth, agentNodeHeight
	default:
		return agentNodeWidth, agentNodeHeight
	}
}

// NodeBounds returns the node's body rectangle in logical coordinates.
func NodeBounds(n graph.Node) Rect {
	w, h := NodeSize(n.Type)
	return Rect{X: n.Position.X, Y: n.Position.Y, W: w, H: h}
}

// OutputAnchor returns the logical point where outgoing edges leave the
// node: the middle of its right side.
func OutputAnchor(n graph.Node) graph.Position {
	w, h := NodeSize(n.Type)
	return graph.Position{X: n.Position.X + w, Y: n.Position.Y + h/2}
}

// InputAnchor returns the logical point where incoming edges meet the
// node: the middle of its left side.
func InputAnchor(n graph.Node) graph.Position {
	_, h := NodeSize(n.Type)
	return graph.Position{X: n.Position.X, Y: n.Position.Y + h/2}
}

// DelegateAnchor returns the logical point where delegate edges attach:
// the middle of the node's bottom side. Only group-chat managers and
// delegates render this handle.
func DelegateAnchor(n graph.Node) graph.Position {
	w, h := NodeSize(n.Type)
	return graph.Position{X: n.Position.X + w/2, Y: n.Position.Y + h}
}

// handleRadius is the logical hit radius of a connection handle.
const handleRadius = 12.0

// HitsOutputHandle reports whether the logical point falls on the node's
// output handle.
func HitsOutputHandle(n graph.Node, p graph.Position) bool {
	return distance(OutputAnchor(n), p) <= handleRadius
}

// HitsDelegateHandle reports whether the logical point falls on the node's
// delegate handle.
func HitsDelegateHandle(n graph.Node, p graph.Position) bool {
	switch n.Type {
	case graph.NodeGroupChatManager, graph.NodeDelegate:
		return distance(DelegateAnchor(n), p) <= handleRadius
	}
	return false
}

// EdgeCurve returns the four cubic bezier control points for an edge
// between two nodes. Delegate-class edges run bottom-anchor to
// bottom-anchor; everything else runs output to input with horizontal
// curvature proportional to the span.
func EdgeCurve(src, tgt graph.Node, kind graph.EdgeKind) (p0, c1, c2, p1 graph.Position) {
	if kind == graph.EdgeDelegate || kind == graph.EdgeDelegateReturn {
		p0 = DelegateAnchor(src)
		p1 = DelegateAnchor(tgt)
		drop := math.Max(40, math.Abs(p1.X-p0.X)/4)
		c1 = graph.Position{X: p0.X, Y: p0.Y + drop}
		c2 = graph.Position{X: p1.X, Y: p1.Y + drop}
		return
	}

	p0 = OutputAnchor(src)
	p1 = InputAnchor(tgt)
	curvature := math.Max(40, math.Abs(p1.X-p0.X)/2)
	c1 = graph.Position{X: p0.X + curvature, Y: p0.Y}
	c2 = graph.Position{X: p1.X - curvature, Y: p1.Y}
	return
}

// bezierPoint evaluates the cubic bezier at parameter t.
func bezierPoint(p0, c1, c2, p1 graph.Position, t float64) graph.Position {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return graph.Position{
		X: b0*p0.X + b1*c1.X + b2*c2.X + b3*p1.X,
		Y: b0*p0.Y + b1*c1.Y + b2*c2.Y + b3*p1.Y,
	}
}

// edgeHitSamples is the number of curve samples per hit test. At typical
// edge lengths this keeps the sampling error well under the tolerance.
const edgeHitSamples = 32

// HitTestEdge reports whether the logical point lies within tolerance of
// the edge curve between the two nodes.
func HitTestEdge(src, tgt graph.Node, kind graph.EdgeKind, p graph.Position, tolerance float64) bool {
	p0, c1, c2, p1 := EdgeCurve(src, tgt, kind)

	prev := p0
	for i := 1; i <= edgeHitSamples; i++ {
		t := float64(i) / edgeHitSamples
		cur := bezierPoint(p0, c1, c2, p1, t)
		if distanceToSegment(p, prev, cur) <= tolerance {
			return true
		}
		prev = cur
	}
	return false
}

func distance(a, b graph.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// distanceToSegment returns the distance from p to the segment [a, b].
func distanceToSegment(p, a, b graph.Position) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return distance(p, a)
	}
	t := (apx*abx + apy*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return distance(p, graph.Position{X: a.X + t*abx, Y: a.Y + t*aby})
}
