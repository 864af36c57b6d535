// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

// Package server manages the editor API's HTTP server lifecycle:
// non-blocking start, graceful shutdown, and signal handling.
package server
