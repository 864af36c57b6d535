// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package editor implements the pointer-driven interaction engine of the
workflow canvas: a single-threaded finite-state machine with states Idle,
PanningCanvas, DraggingNode, and ConnectingEdge.

Pointer events arrive in screen pixels and are converted to logical canvas
coordinates through the viewport transform. Graph mutations flow through
the connection policy; the engine never bypasses it. Rendering is a pure
function of engine state (DeriveRenderModel), so there is no hidden
reactive recomputation to order.

The engine is not safe for concurrent use. It is driven from one event
loop, which is what makes graph mutations totally ordered within a
gesture.
*/
package editor
