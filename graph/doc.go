// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package graph implements the in-memory workflow graph model: typed agent
nodes, directed edges with routing metadata, and the connection policy that
decides which edges are legal between which node types.

The model enforces its structural invariants on every mutation:

 1. node ids and edge ids are unique
 2. every edge's source and target resolve to existing nodes
 3. no duplicate edge exists for an ordered (source, target) pair
 4. an end node has in-degree at most one
 5. a delegate node connects only to group-chat-manager nodes
 6. only a group-chat-manager may originate an edge targeting a delegate

All accessors return copies. Node data maps are deep-cloned on the way in
and on the way out, so no caller ever holds a reference into the model.
*/
package graph
