package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/agentcanvas/types"
)

func TestClassify_DelegatePairs(t *testing.T) {
	kind, err := Classify(NodeGroupChatManager, NodeDelegate, 0)
	assert.NoError(t, err)
	assert.Equal(t, EdgeDelegate, kind)

	kind, err = Classify(NodeDelegate, NodeGroupChatManager, 0)
	assert.NoError(t, err)
	assert.Equal(t, EdgeDelegateReturn, kind)
}

func TestClassify_EndSaturation(t *testing.T) {
	kind, err := Classify(NodeAssistant, NodeEnd, 0)
	assert.NoError(t, err)
	assert.Equal(t, EdgeSequential, kind)

	_, err = Classify(NodeAssistant, NodeEnd, 1)
	assert.Equal(t, types.ErrEndNodeSaturated, types.GetErrorCode(err))
}

func TestClassify_DelegateMisconnections(t *testing.T) {
	_, err := Classify(NodeDelegate, NodeAssistant, 0)
	assert.Equal(t, types.ErrDelegateMisconnection, types.GetErrorCode(err))

	_, err = Classify(NodeAssistant, NodeDelegate, 0)
	assert.Equal(t, types.ErrDelegateMisconnection, types.GetErrorCode(err))

	_, err = Classify(NodeDelegate, NodeEnd, 0)
	assert.Equal(t, types.ErrDelegateMisconnection, types.GetErrorCode(err))
}

func TestClassify_DefaultSequential(t *testing.T) {
	pairs := [][2]NodeType{
		{NodeStart, NodeUserProxy},
		{NodeUserProxy, NodeAssistant},
		{NodeAssistant, NodeAssistant},
		{NodeAssistant, NodeGroupChatManager},
		{NodeGroupChatManager, NodeAssistant},
		{NodeMCPServer, NodeAssistant},
		{NodeAssistant, NodeMCPServer},
	}
	for _, p := range pairs {
		kind, err := Classify(p[0], p[1], 0)
		assert.NoError(t, err, "%s -> %s", p[0], p[1])
		assert.Equal(t, EdgeSequential, kind, "%s -> %s", p[0], p[1])
	}
}

func TestCanConnect(t *testing.T) {
	assert.True(t, CanConnect(NodeGroupChatManager, NodeDelegate, 0))
	assert.False(t, CanConnect(NodeAssistant, NodeDelegate, 0))
	assert.False(t, CanConnect(NodeAssistant, NodeEnd, 1))
	assert.True(t, CanConnect(NodeAssistant, NodeEnd, 0))
}
