// Package domain defines the core types of the workflow coordination
// subsystem: nodes, edges, workflows, handle roles, routed commands,
// execution records and the inbound event envelope.
package domain
