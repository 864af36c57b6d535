// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package canvas implements the infinite-canvas coordinate system: the
viewport transform between screen pixels and logical canvas coordinates,
zoom clamping with anchor-preserving pan adjustment, and the geometry used
to hit-test nodes, connection handles, and edge curves.

Logical coordinates are unbounded. A nominal extent with a center offset
exists only so freshly reset viewports land somewhere sensible; nothing
stops a node from being dragged to negative coordinates.
*/
package canvas
