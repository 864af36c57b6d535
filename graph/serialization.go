package graph

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is the serialized wire shape of a workflow graph, as exchanged
// with the persistence layer and the hosting application.
type Document struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Empty reports whether the document carries no nodes and no edges. An
// empty load result is a deliberately blank canvas, not an error.
func (d Document) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Edges) == 0
}

// Snapshot serializes the current graph into a wire document. Node data is
// deep-cloned, so the snapshot stays stable while editing continues.
func (g *Graph) Snapshot() Document {
	return Document{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	}
}

// Restore replaces the graph contents with the document's, validating the
// same invariants the mutation operations enforce. On any violation the
// graph is left unchanged.
func (g *Graph) Restore(doc Document) error {
	nodes := make(map[string]Node, len(doc.Nodes))
	nodeOrder := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if !n.Type.Valid() {
			return fmt.Errorf("node %s: unknown type %q", n.ID, n.Type)
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		nodes[n.ID] = n.clone()
		nodeOrder = append(nodeOrder, n.ID)
	}

	edges := make(map[string]Edge, len(doc.Edges))
	edgeOrder := make([]string, 0, len(doc.Edges))
	pairs := make(map[string]bool, len(doc.Edges))
	inDegree := make(map[string]int, len(doc.Nodes))
	for _, e := range doc.Edges {
		if e.ID == "" {
			e.ID = deriveEdgeID(e.Source, e.Target)
		}
		if _, dup := edges[e.ID]; dup {
			return fmt.Errorf("duplicate edge id %s", e.ID)
		}
		src, ok := nodes[e.Source]
		if !ok {
			return fmt.Errorf("edge %s: unknown source %s", e.ID, e.Source)
		}
		tgt, ok := nodes[e.Target]
		if !ok {
			return fmt.Errorf("edge %s: unknown target %s", e.ID, e.Target)
		}
		if e.Source == e.Target {
			return fmt.Errorf("edge %s: self loop", e.ID)
		}
		pair := e.Source + "\x00" + e.Target
		if pairs[pair] {
			return fmt.Errorf("duplicate connection %s -> %s", e.Source, e.Target)
		}
		pairs[pair] = true
		if e.Kind == "" {
			kind, err := Classify(src.Type, tgt.Type, inDegree[e.Target])
			if err != nil {
				return fmt.Errorf("edge %s: %w", e.ID, err)
			}
			e.Kind = kind
		}
		if tgt.Type == NodeEnd && inDegree[e.Target] >= 1 {
			return fmt.Errorf("edge %s: end node %s already saturated", e.ID, e.Target)
		}
		if err := checkDelegateEndpoints(src.Type, tgt.Type); err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}
		inDegree[e.Target]++
		edges[e.ID] = e
		edgeOrder = append(edgeOrder, e.ID)
	}

	g.nodes = nodes
	g.nodeOrder = nodeOrder
	g.edges = edges
	g.edgeOrder = edgeOrder
	g.notify()
	return nil
}

func checkDelegateEndpoints(src, tgt NodeType) error {
	if src == NodeDelegate && tgt != NodeGroupChatManager {
		return fmt.Errorf("delegate may only connect to a group chat manager")
	}
	if tgt == NodeDelegate && src != NodeGroupChatManager {
		return fmt.Errorf("only a group chat manager may connect to a delegate")
	}
	return nil
}

// Export serializes the graph document to indented JSON.
func (d Document) Export() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Import parses a graph document from JSON.
func Import(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, err
	}
	return d, nil
}

// AutoLayout assigns grid positions, in creation order, to every node still
// sitting at the origin. Imported documents sometimes omit coordinates; the
// grid keeps them from stacking on top of each other.
func (g *Graph) AutoLayout(cellWidth, cellHeight float64, columns int) {
	if columns <= 0 {
		columns = 4
	}
	moved := false
	i := 0
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.Position != (Position{}) {
			continue
		}
		n.Position = Position{
			X: float64(i%columns) * cellWidth,
			Y: float64(i/columns) * cellHeight,
		}
		g.nodes[id] = n
		moved = true
		i++
	}
	if moved {
		g.notify()
	}
}
