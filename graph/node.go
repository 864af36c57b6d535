package graph

import (
	"github.com/google/uuid"
)

// NodeType defines the type of a workflow node.
type NodeType string

const (
	// NodeStart marks the workflow entry point.
	NodeStart NodeType = "start"
	// NodeUserProxy relays messages between the user and the agents.
	NodeUserProxy NodeType = "user_proxy"
	// NodeAssistant is an LLM-backed agent.
	NodeAssistant NodeType = "assistant"
	// NodeGroupChatManager coordinates a group of agents and its delegates.
	NodeGroupChatManager NodeType = "group_chat_manager"
	// NodeDelegate is a sub-agent owned by a group-chat manager.
	NodeDelegate NodeType = "delegate"
	// NodeEnd marks a workflow exit point.
	NodeEnd NodeType = "end"
	// NodeMCPServer exposes external tools to the workflow.
	NodeMCPServer NodeType = "mcp_server"
)

// KnownNodeTypes lists every node type the editor understands, in the order
// they appear in the palette.
var KnownNodeTypes = []NodeType{
	NodeStart, NodeUserProxy, NodeAssistant, NodeGroupChatManager,
	NodeDelegate, NodeEnd, NodeMCPServer,
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeUserProxy, NodeAssistant, NodeGroupChatManager,
		NodeDelegate, NodeEnd, NodeMCPServer:
		return true
	}
	return false
}

// Position is a point in logical canvas space. Coordinates are unbounded;
// the canvas has no edge.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex in the workflow graph. Nodes are value types: the model
// hands out copies, never references into its own storage.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

// clone returns a deep copy of the node, including its data map.
func (n Node) clone() Node {
	n.Data = cloneData(n.Data)
	return n
}

// newNodeID generates an opaque unique node identifier.
func newNodeID() string {
	return uuid.NewString()
}

// cloneData deep-copies a node data map. Nested maps and slices are copied
// recursively; scalars are copied by value.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	default:
		return v
	}
}
