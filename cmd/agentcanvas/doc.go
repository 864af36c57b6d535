// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package main is the AgentCanvas server executable.

It loads YAML configuration with environment overrides, opens the
workflow document database, builds the execution-sync engine against the
remote runtime, and serves the editor API on one port and Prometheus
metrics on another.

# Core types

  - Server         — wires store, sync engine, and HTTP surface; owns shutdown
  - Middleware     — func(http.Handler) http.Handler
  - responseWriter — wraps http.ResponseWriter to capture the status code

# Commands

  - serve    — start the server (optionally with --config <path>)
  - version  — print build information (injected via ldflags)
  - health   — probe a running server's /health endpoint

The middleware chain is Recovery, RequestID, SecurityHeaders,
RequestLogger, Metrics, CORS, per-IP RateLimiter, and optionally JWTAuth
when auth is enabled in the config.
*/
package main
