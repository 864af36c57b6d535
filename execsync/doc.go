// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

/*
Package execsync keeps the editor in sync with a remote execution runtime.

Two independent polling loops run against the external execution service:
the human-input poller republishes the list of pending human-input requests
on a fixed interval, and the completion monitor watches one execution until
it reaches a terminal status or a bounded number of attempts runs out.

The pending-input queue shows at most one request at a time; later requests
queue behind the visible one in arrival order. A time-windowed
recently-closed set suppresses requests that were just answered but still
appear in a stale poll result.

All loops stop deterministically when their context is cancelled; tearing
down the owning view leaves no orphaned timers.
*/
package execsync
