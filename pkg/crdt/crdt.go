// Package crdt implements the conflict-free replicated data types used to
// synchronize coordination state across nodes: LWW-Register, OR-Set,
// PN-Counter, MV-Register, RGA, and a composite lease-state register built
// from them.
package crdt

import "github.com/marmos91/rhc-coord/pkg/hlc"

// CRDT is implemented by every type in this package. Merge must be
// commutative, associative, and idempotent so that replicas converge
// regardless of delivery order.
type CRDT[T any] interface {
	Merge(other T)
	HappensBefore(other T) bool
}

// ActorId identifies the replica (node or consensus group) that produced a
// CRDT operation. Distinct from lease.LeaseId and consensus round numbers;
// this package has no dependency on either.
type ActorId string

// TimestampedValue pairs a value with the HLC timestamp of the operation
// that produced it.
type TimestampedValue[T any] struct {
	Value     T
	Timestamp hlc.Timestamp
}
