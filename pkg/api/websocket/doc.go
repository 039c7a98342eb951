// Package websocket provides real-time streaming of workflow coordination
// events.
//
// Clients connect to /api/v1/workflows/:id/ws to receive node state
// changes, routed commands and execution results for that workflow, and
// may push inbound event envelopes on the same connection.
package websocket
