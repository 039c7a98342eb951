// Package events provides event delivery implementations.
//
// Implementations:
//   - memory: in-process bus keyed by node id, synchronous ordered dispatch
//   - redis: Redis Streams relay for inbound envelopes and outbound firehose
package events
