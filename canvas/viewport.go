package canvas

import (
	"github.com/BaSui01/agentcanvas/graph"
)

// Zoom bounds. Every zoom mutation clamps before any pan math runs, so the
// anchor-preservation solve never divides by an out-of-range zoom.
const (
	MinZoom     = 0.1
	MaxZoom     = 5.0
	DefaultZoom = 1.0
)

// Nominal canvas extent. Node coordinates may be negative relative to the
// center; the extent only seeds the initial viewport position.
const (
	CanvasExtent = 10000.0
	CenterOffset = CanvasExtent / 2
)

// Point is a point in screen pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport maps logical canvas coordinates to screen pixels via a zoom
// factor and a pan offset. The zero value is not useful; use New.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	Pan  Point   `json:"pan"`
}

// New returns a viewport at default zoom with no pan.
func New() Viewport {
	return Viewport{Zoom: DefaultZoom}
}

// ClampZoom confines z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// ToLogical converts a screen point to logical canvas coordinates.
func (v Viewport) ToLogical(p Point) graph.Position {
	return graph.Position{
		X: (p.X - v.Pan.X) / v.Zoom,
		Y: (p.Y - v.Pan.Y) / v.Zoom,
	}
}

// ToScreen converts a logical position to screen pixels.
func (v Viewport) ToScreen(l graph.Position) Point {
	return Point{
		X: l.X*v.Zoom + v.Pan.X,
		Y: l.Y*v.Zoom + v.Pan.Y,
	}
}

// Panned returns the viewport shifted by a screen-pixel delta.
func (v Viewport) Panned(dx, dy float64) Viewport {
	v.Pan.X += dx
	v.Pan.Y += dy
	return v
}

// ZoomAround changes the zoom so that the given screen anchor stays
// visually stationary: pan' = anchor - (anchor - pan) * (z'/z).
// Wheel zoom anchors at the pointer; toolbar zoom anchors at the viewport
// center (see ZoomAroundCenter).
func (v Viewport) ZoomAround(newZoom float64, anchor Point) Viewport {
	z := ClampZoom(newZoom)
	ratio := z / v.Zoom
	return Viewport{
		Zoom: z,
		Pan: Point{
			X: anchor.X - (anchor.X-v.Pan.X)*ratio,
			Y: anchor.Y - (anchor.Y-v.Pan.Y)*ratio,
		},
	}
}

// ZoomAroundCenter zooms while keeping the center of a viewport of the
// given pixel size stationary.
func (v Viewport) ZoomAroundCenter(newZoom float64, width, height float64) Viewport {
	return v.ZoomAround(newZoom, Point{X: width / 2, Y: height / 2})
}

// CenterOn pans so that the given logical position lands in the middle of
// a viewport of the given pixel size, preserving zoom.
func (v Viewport) CenterOn(l graph.Position, width, height float64) Viewport {
	v.Pan = Point{
		X: width/2 - l.X*v.Zoom,
		Y: height/2 - l.Y*v.Zoom,
	}
	return v
}

// Reset recenters the nominal canvas center at default zoom. Used on
// workflow switch and by the explicit "center view" command when the graph
// is empty.
func Reset(width, height float64) Viewport {
	return Viewport{Zoom: DefaultZoom}.CenterOn(
		graph.Position{X: CenterOffset, Y: CenterOffset}, width, height)
}

// FitNodes centers the bounding box of the given nodes and picks the
// largest in-bounds zoom that shows all of them with some margin.
func FitNodes(nodes []graph.Node, width, height float64) Viewport {
	if len(nodes) == 0 {
		return Reset(width, height)
	}

	minX, minY := nodes[0].Position.X, nodes[0].Position.Y
	maxX, maxY := minX, minY
	for _, n := range nodes[1:] {
		minX = min(minX, n.Position.X)
		minY = min(minY, n.Position.Y)
		maxX = max(maxX, n.Position.X)
		maxY = max(maxY, n.Position.Y)
	}
	for _, n := range nodes {
		w, h := NodeSize(n.Type)
		maxX = max(maxX, n.Position.X+w)
		maxY = max(maxY, n.Position.Y+h)
	}

	const margin = 80.0
	spanX := maxX - minX + 2*margin
	spanY := maxY - minY + 2*margin
	zoom := ClampZoom(min(width/spanX, height/spanY))
	if zoom > DefaultZoom {
		zoom = DefaultZoom
	}

	center := graph.Position{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	return Viewport{Zoom: zoom}.CenterOn(center, width, height)
}
