package graph

import (
	"github.com/BaSui01/agentcanvas/types"
)

// Classify decides whether an edge from sourceType to targetType is legal
// and, if so, which kind it gets. targetInDegree is the number of edges
// already pointing at the target, needed for the end-node saturation rule.
//
// The rules, in evaluation order:
//
//   - manager→delegate yields a delegate edge, delegate→manager yields a
//     delegate-return edge
//   - an end node accepts at most one incoming edge
//   - a delegate connects to nothing but a group-chat manager, in either
//     direction
//   - everything else is a plain sequential edge; conditional and parallel
//     are chosen afterwards via metadata editing, never inferred here
func Classify(sourceType, targetType NodeType, targetInDegree int) (EdgeKind, error) {
	if sourceType == NodeGroupChatManager && targetType == NodeDelegate {
		return EdgeDelegate, nil
	}
	if sourceType == NodeDelegate && targetType == NodeGroupChatManager {
		return EdgeDelegateReturn, nil
	}

	if targetType == NodeEnd && targetInDegree >= 1 {
		return "", types.NewError(types.ErrEndNodeSaturated,
			"end node already has an incoming connection")
	}

	if sourceType == NodeDelegate {
		return "", types.NewError(types.ErrDelegateMisconnection,
			"a delegate may only connect to a group chat manager")
	}
	if targetType == NodeDelegate {
		return "", types.NewError(types.ErrDelegateMisconnection,
			"only a group chat manager may connect to a delegate")
	}

	return EdgeSequential, nil
}

// CanConnect reports whether an edge from sourceType to targetType would be
// accepted, without committing anything. The interaction engine uses this
// to tint candidate drop targets during a connect gesture.
func CanConnect(sourceType, targetType NodeType, targetInDegree int) bool {
	_, err := Classify(sourceType, targetType, targetInDegree)
	return err == nil
}
