// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts for the agentcanvas engine.

types is the lowest-level public package. It depends on nothing inside the
module and supplies the unified error taxonomy used by the graph model, the
interaction engine, the execution-sync engine, and the API layer, so that
every subsystem reports failures in the same structured shape.

Error handling follows three families:

  - validation errors (illegal connections, malformed requests) abort the
    operation and leave state unchanged
  - transient network errors (save/load/poll failures) are retryable and
    never fatal
  - stale-data errors (acting on a node or edge that no longer exists) are
    demoted to warnings and treated as no-ops
*/
package types
