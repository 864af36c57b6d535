// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package handlers implements the HTTP request handlers of the AgentCanvas
editor API.

Core types:

  - WorkflowHandler  — workflow document CRUD (list, get, save, delete)
  - ExecutionHandler — run start/stop, history, pending inputs, input submission
  - EventHub         — websocket fan-out of sync-engine events
  - HealthHandler    — liveness/readiness probes with pluggable checks
  - Response         — unified JSON envelope (success + data + error + timestamp)

All handlers follow the standard net/http interface. Errors are written
through the shared envelope with an ErrorCode-to-HTTP-status mapping.
*/
package handlers
