// Package storage provides execution-record storage implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL
//   - memory: in-memory for testing and single-process deployments
package storage
