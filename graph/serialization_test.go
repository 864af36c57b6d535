package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleGraph(t *testing.T) (*Graph, Node, Node, Node) {
	t.Helper()
	g := New()
	a, err := g.AddNodeWithData(NodeStart, Position{X: 0, Y: 0}, map[string]any{"name": "start"})
	require.NoError(t, err)
	b, err := g.AddNodeWithData(NodeAssistant, Position{X: 200, Y: 0}, map[string]any{
		"name":   "writer",
		"model":  "gpt-4o",
		"prompt": "write things",
	})
	require.NoError(t, err)
	c, err := g.AddNode(NodeEnd, Position{X: 400, Y: 0})
	require.NoError(t, err)
	_, err = g.AddEdge(a.ID, b.ID)
	require.NoError(t, err)
	_, err = g.AddEdge(b.ID, c.ID)
	require.NoError(t, err)
	return g, a, b, c
}

func TestSnapshotRestore(t *testing.T) {
	g, _, _, _ := buildSampleGraph(t)

	doc := g.Snapshot()
	assert.Len(t, doc.Nodes, 3)
	assert.Len(t, doc.Edges, 2)

	restored := New()
	require.NoError(t, restored.Restore(doc))
	assert.Equal(t, g.Nodes(), restored.Nodes())
	assert.Equal(t, g.Edges(), restored.Edges())
}

func TestSnapshot_IsolatedFromLaterEdits(t *testing.T) {
	g, a, _, _ := buildSampleGraph(t)

	doc := g.Snapshot()
	require.NoError(t, g.MoveNode(a.ID, Position{X: 999, Y: 999}))
	_, err := g.UpdateNodeData(a.ID, map[string]any{"name": "renamed"})
	require.NoError(t, err)

	assert.Equal(t, Position{X: 0, Y: 0}, doc.Nodes[0].Position)
	assert.Equal(t, "start", doc.Nodes[0].Data["name"])
}

func TestRestore_RejectsInvalidDocuments(t *testing.T) {
	base := func() Document {
		return Document{
			Nodes: []Node{
				{ID: "a", Type: NodeStart},
				{ID: "b", Type: NodeAssistant},
			},
			Edges: []Edge{{ID: "a-b", Source: "a", Target: "b", Kind: EdgeSequential}},
		}
	}

	t.Run("dangling edge", func(t *testing.T) {
		doc := base()
		doc.Edges = append(doc.Edges, Edge{ID: "x", Source: "a", Target: "ghost"})
		g := New()
		assert.Error(t, g.Restore(doc))
		assert.True(t, g.Empty(), "failed restore must leave the graph unchanged")
	})

	t.Run("duplicate node id", func(t *testing.T) {
		doc := base()
		doc.Nodes = append(doc.Nodes, Node{ID: "a", Type: NodeEnd})
		assert.Error(t, New().Restore(doc))
	})

	t.Run("duplicate pair", func(t *testing.T) {
		doc := base()
		doc.Edges = append(doc.Edges, Edge{ID: "other", Source: "a", Target: "b"})
		assert.Error(t, New().Restore(doc))
	})

	t.Run("saturated end node", func(t *testing.T) {
		doc := base()
		doc.Nodes = append(doc.Nodes, Node{ID: "end", Type: NodeEnd})
		doc.Edges = append(doc.Edges,
			Edge{ID: "a-end", Source: "a", Target: "end", Kind: EdgeSequential},
			Edge{ID: "b-end", Source: "b", Target: "end", Kind: EdgeSequential},
		)
		assert.Error(t, New().Restore(doc))
	})

	t.Run("delegate to assistant", func(t *testing.T) {
		doc := base()
		doc.Nodes = append(doc.Nodes, Node{ID: "d", Type: NodeDelegate})
		doc.Edges = append(doc.Edges, Edge{ID: "d-b", Source: "d", Target: "b", Kind: EdgeSequential})
		assert.Error(t, New().Restore(doc))
	})
}

func TestRestore_FillsMissingEdgeIDAndKind(t *testing.T) {
	doc := Document{
		Nodes: []Node{
			{ID: "m", Type: NodeGroupChatManager},
			{ID: "d", Type: NodeDelegate},
		},
		Edges: []Edge{{Source: "m", Target: "d"}},
	}
	g := New()
	require.NoError(t, g.Restore(doc))

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "m-d", edges[0].ID)
	assert.Equal(t, EdgeDelegate, edges[0].Kind)
}

func TestExportImport(t *testing.T) {
	g, _, b, _ := buildSampleGraph(t)
	doc := g.Snapshot()
	doc.Name = "review pipeline"

	raw, err := doc.Export()
	require.NoError(t, err)

	// Wire field names are part of the external contract.
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	edge := wire["edges"].([]any)[0].(map[string]any)
	assert.Contains(t, edge, "type")
	assert.Contains(t, edge, "source")
	assert.Contains(t, edge, "target")
	node := wire["nodes"].([]any)[0].(map[string]any)
	assert.Contains(t, node, "position")

	back, err := Import(raw)
	require.NoError(t, err)
	assert.Equal(t, "review pipeline", back.Name)
	require.Len(t, back.Nodes, 3)
	assert.Equal(t, b.Data["model"], back.Nodes[1].Data["model"])
}

func TestDocument_Empty(t *testing.T) {
	assert.True(t, Document{}.Empty())
	assert.False(t, Document{Nodes: []Node{{ID: "a", Type: NodeStart}}}.Empty())
}

func TestAutoLayout(t *testing.T) {
	g := New()
	var ids []string
	for i := 0; i < 5; i++ {
		n, _ := g.AddNode(NodeAssistant, Position{})
		ids = append(ids, n.ID)
	}
	anchored, _ := g.AddNode(NodeEnd, Position{X: 42, Y: 42})

	g.AutoLayout(180, 120, 2)

	seen := map[Position]bool{}
	for _, id := range ids {
		n, _ := g.Node(id)
		assert.False(t, seen[n.Position], "positions must not stack")
		seen[n.Position] = true
	}
	// Nodes that already had a position keep it.
	kept, _ := g.Node(anchored.ID)
	assert.Equal(t, Position{X: 42, Y: 42}, kept.Position)
}
