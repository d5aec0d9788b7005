// Package statemachine implements the deterministic KV machine that
// consensus commits are replicated into: Apply(cmd, state) -> state',
// plus periodic checkpointing so replicas can detect and recover from
// log divergence after a partition heals.
package statemachine

import "context"

// Backend is the narrow contract a storage implementation must satisfy
// to back the state machine. Every method must be safe for concurrent
// use; Machine serializes Apply calls itself but Snapshot may run
// concurrently with reads from pkg/api.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Increment adds delta to the integer stored at key (0 if absent,
	// parsed as a big-endian int64 otherwise) and returns the new value.
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	// Snapshot returns every key/value pair currently stored, for
	// checkpoint hashing and replica restore.
	Snapshot(ctx context.Context) (map[string][]byte, error)
}
