// Package http provides the REST API for workflow registration, event
// injection, connection validation and execution status.
//
// The canvas client registers nodes+edges snapshots here and queries
// connection validity at edge-creation time.
package http
