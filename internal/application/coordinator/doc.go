// Package coordinator implements execution coordination for registered
// workflows.
//
// The coordinator:
//   - decodes inbound event envelopes into domain events
//   - routes domain events to capable nodes via the event bus
//   - serializes execution per workflow (at most one in-flight run)
//   - invokes the external signing capability and records history
//   - forwards successful results to downstream output nodes
//
// Every failure inside an execution is converted to a structured outcome
// at this boundary; callers never observe a raw error from a run.
package coordinator
