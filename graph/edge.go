package graph

// EdgeKind classifies how a connection routes control between two agents.
type EdgeKind string

const (
	// EdgeSequential passes control directly to the target.
	EdgeSequential EdgeKind = "sequential"
	// EdgeConditional passes control only when the edge condition holds.
	EdgeConditional EdgeKind = "conditional"
	// EdgeParallel fans control out alongside sibling parallel edges.
	EdgeParallel EdgeKind = "parallel"
	// EdgeDelegate hands a task from a group-chat manager to a delegate.
	EdgeDelegate EdgeKind = "delegate"
	// EdgeDelegateReturn returns a delegate's result to its manager.
	EdgeDelegateReturn EdgeKind = "delegate_return"
)

// selectableKinds are the kinds a user may set on a plain agent-to-agent
// edge after creation. Delegate-class kinds are never user-selectable.
var selectableKinds = map[EdgeKind]bool{
	EdgeSequential:  true,
	EdgeConditional: true,
	EdgeParallel:    true,
}

// Selectable reports whether the kind may be chosen via edge metadata
// editing.
func (k EdgeKind) Selectable() bool {
	return selectableKinds[k]
}

// Edge is a directed connection between two nodes, carrying routing
// metadata local to the connection.
type Edge struct {
	ID             string   `json:"id"`
	Source         string   `json:"source"`
	Target         string   `json:"target"`
	Kind           EdgeKind `json:"type"`
	Label          string   `json:"label,omitempty"`
	Description    string   `json:"description,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Priority       int      `json:"priority,omitempty"`
	RetryCount     int      `json:"retryCount,omitempty"`
	TimeoutSeconds int      `json:"timeout,omitempty"`
}

// EdgeMeta is a patch of edge-local metadata applied by the connection
// panel. Nil fields are left unchanged.
type EdgeMeta struct {
	Label          *string
	Description    *string
	Condition      *string
	Priority       *int
	RetryCount     *int
	TimeoutSeconds *int
}

// deriveEdgeID builds the deterministic default edge id.
func deriveEdgeID(sourceID, targetID string) string {
	return sourceID + "-" + targetID
}
