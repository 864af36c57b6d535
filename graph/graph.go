package graph

import (
	"github.com/BaSui01/agentcanvas/types"
)

// Graph is the mutable workflow graph model. It owns its nodes and edges
// exclusively and enforces the package invariants on every mutation.
//
// Graph is not safe for concurrent use. The editor mutates it from a single
// event loop; see the editor package.
type Graph struct {
	nodes     map[string]Node
	nodeOrder []string // creation order, used only for auto-layout
	edges     map[string]Edge
	edgeOrder []string
	watchers  []func()
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string]Edge),
	}
}

// Watch registers fn to run after every successful mutation. The model uses
// this to schedule debounced autosaves; fn must not mutate the graph.
func (g *Graph) Watch(fn func()) {
	g.watchers = append(g.watchers, fn)
}

func (g *Graph) notify() {
	for _, fn := range g.watchers {
		fn()
	}
}

// AddNode creates a node of the given type at the given logical position
// and returns a copy of it.
func (g *Graph) AddNode(t NodeType, pos Position) (Node, error) {
	return g.AddNodeWithData(t, pos, nil)
}

// AddNodeWithData creates a node with initial type-specific configuration.
// The data map is deep-cloned; the caller's reference is never retained.
func (g *Graph) AddNodeWithData(t NodeType, pos Position, data map[string]any) (Node, error) {
	if !t.Valid() {
		return Node{}, types.NewError(types.ErrInvalidNodeType, "unknown node type: "+string(t))
	}
	n := Node{
		ID:       newNodeID(),
		Type:     t,
		Position: pos,
		Data:     cloneData(data),
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	g.notify()
	return n.clone(), nil
}

// RemoveNode deletes a node and cascades to every edge touching it.
// Returns the ids of the removed edges so callers can close panels that
// referenced them.
func (g *Graph) RemoveNode(id string) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, types.NewError(types.ErrNodeNotFound, "node not found: "+id)
	}

	var removed []string
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.Source == id || e.Target == id {
			removed = append(removed, eid)
		}
	}
	for _, eid := range removed {
		delete(g.edges, eid)
	}
	if len(removed) > 0 {
		g.edgeOrder = filterIDs(g.edgeOrder, g.edges)
	}

	delete(g.nodes, id)
	g.nodeOrder = filterOut(g.nodeOrder, id)
	g.notify()
	return removed, nil
}

// UpdateNodeData merges patch into the node's data map. Both the patch and
// the merged result are deep-cloned, so neither side ever aliases model
// storage. Returns a copy of the updated node.
func (g *Graph) UpdateNodeData(id string, patch map[string]any) (Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, types.NewError(types.ErrNodeNotFound, "node not found: "+id)
	}
	merged := cloneData(n.Data)
	for k, v := range patch {
		merged[k] = cloneValue(v)
	}
	n.Data = merged
	g.nodes[id] = n
	g.notify()
	return n.clone(), nil
}

// MoveNode updates a node's logical position, its sole mutable geometric
// attribute.
func (g *Graph) MoveNode(id string, pos Position) error {
	n, ok := g.nodes[id]
	if !ok {
		return types.NewError(types.ErrNodeNotFound, "node not found: "+id)
	}
	n.Position = pos
	g.nodes[id] = n
	g.notify()
	return nil
}

// AddEdge connects source to target, running the connection policy to
// obtain the edge kind. The edge id is derived as "source-target".
func (g *Graph) AddEdge(sourceID, targetID string) (Edge, error) {
	if sourceID == targetID {
		return Edge{}, types.NewError(types.ErrSelfLoop, "a node cannot connect to itself")
	}
	src, ok := g.nodes[sourceID]
	if !ok {
		return Edge{}, types.NewError(types.ErrNodeNotFound, "source node not found: "+sourceID)
	}
	tgt, ok := g.nodes[targetID]
	if !ok {
		return Edge{}, types.NewError(types.ErrNodeNotFound, "target node not found: "+targetID)
	}
	if g.HasEdgeBetween(sourceID, targetID) {
		return Edge{}, types.NewError(types.ErrDuplicateEdge,
			"connection already exists: "+sourceID+" -> "+targetID)
	}

	kind, err := Classify(src.Type, tgt.Type, g.InDegree(targetID))
	if err != nil {
		return Edge{}, err
	}

	e := Edge{
		ID:     deriveEdgeID(sourceID, targetID),
		Source: sourceID,
		Target: targetID,
		Kind:   kind,
	}
	if _, dup := g.edges[e.ID]; dup {
		return Edge{}, types.NewError(types.ErrDuplicateEdge, "edge id already exists: "+e.ID)
	}
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	g.notify()
	return e, nil
}

// RemoveEdge deletes an edge by id.
func (g *Graph) RemoveEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return types.NewError(types.ErrEdgeNotFound, "edge not found: "+id)
	}
	delete(g.edges, id)
	g.edgeOrder = filterOut(g.edgeOrder, id)
	g.notify()
	return nil
}

// UpdateEdgeMeta applies an edge-local metadata patch.
func (g *Graph) UpdateEdgeMeta(id string, meta EdgeMeta) (Edge, error) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, types.NewError(types.ErrEdgeNotFound, "edge not found: "+id)
	}
	if meta.Label != nil {
		e.Label = *meta.Label
	}
	if meta.Description != nil {
		e.Description = *meta.Description
	}
	if meta.Condition != nil {
		e.Condition = *meta.Condition
	}
	if meta.Priority != nil {
		e.Priority = *meta.Priority
	}
	if meta.RetryCount != nil {
		e.RetryCount = *meta.RetryCount
	}
	if meta.TimeoutSeconds != nil {
		e.TimeoutSeconds = *meta.TimeoutSeconds
	}
	g.edges[id] = e
	g.notify()
	return e, nil
}

// UpdateEdgeKind changes the kind of a plain agent-to-agent edge. Only the
// selectable kinds may be assigned, and only to an edge whose current kind
// is itself selectable; delegate-class edges are never editable.
func (g *Graph) UpdateEdgeKind(id string, kind EdgeKind) (Edge, error) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, types.NewError(types.ErrEdgeNotFound, "edge not found: "+id)
	}
	if !kind.Selectable() {
		return Edge{}, types.NewError(types.ErrInvalidEdgeKind,
			"kind is not user-selectable: "+string(kind))
	}
	if !e.Kind.Selectable() {
		return Edge{}, types.NewError(types.ErrInvalidEdgeKind,
			"delegate connections cannot change kind")
	}
	e.Kind = kind
	g.edges[id] = e
	g.notify()
	return e, nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns copies of all nodes in creation order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Edges returns all edges in creation order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// InDegree returns the number of edges targeting the given node.
func (g *Graph) InDegree(id string) int {
	n := 0
	for _, e := range g.edges {
		if e.Target == id {
			n++
		}
	}
	return n
}

// OutDegree returns the number of edges originating at the given node.
func (g *Graph) OutDegree(id string) int {
	n := 0
	for _, e := range g.edges {
		if e.Source == id {
			n++
		}
	}
	return n
}

// HasEdgeBetween reports whether an edge exists for the ordered
// (source, target) pair.
func (g *Graph) HasEdgeBetween(sourceID, targetID string) bool {
	for _, e := range g.edges {
		if e.Source == sourceID && e.Target == targetID {
			return true
		}
	}
	return false
}

// EdgesTouching returns the edges whose source or target is the given node,
// in creation order.
func (g *Graph) EdgesTouching(id string) []Edge {
	var out []Edge
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes every node and edge.
func (g *Graph) Clear() {
	if len(g.nodes) == 0 && len(g.edges) == 0 {
		return
	}
	g.nodes = make(map[string]Node)
	g.edges = make(map[string]Edge)
	g.nodeOrder = nil
	g.edgeOrder = nil
	g.notify()
}

// Empty reports whether the graph has no nodes and no edges.
func (g *Graph) Empty() bool {
	return len(g.nodes) == 0 && len(g.edges) == 0
}

func filterOut(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func filterIDs(ids []string, keep map[string]Edge) []string {
	out := ids[:0]
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
