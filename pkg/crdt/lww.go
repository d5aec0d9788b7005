package crdt

import "github.com/marmos91/rhc-coord/pkg/hlc"

// entry is the internal representation of an LWWRegister's current value,
// carrying the writer's ActorId so ties can be broken deterministically.
type entry[T any] struct {
	value     T
	actor     ActorId
	timestamp hlc.Timestamp
}

// LWWRegister is a last-write-wins register: a single value tagged with an
// HLC timestamp and the writing actor. Concurrent writes are resolved by
// timestamp; writes that race with an identical timestamp (possible since
// HLC timestamps are not globally unique across distinct physical clocks
// that have never communicated) are resolved by comparing ActorId, so every
// replica converges on the same winner regardless of merge order.
type LWWRegister[T any] struct {
	current *entry[T]
}

// NewLWWRegister returns an empty register.
func NewLWWRegister[T any]() *LWWRegister[T] {
	return &LWWRegister[T]{}
}

// Set writes value if it is newer than the register's current value under
// the (timestamp, actor) order.
func (r *LWWRegister[T]) Set(value T, actor ActorId, ts hlc.Timestamp) {
	if r.current == nil || wins(ts, actor, r.current.timestamp, r.current.actor) {
		r.current = &entry[T]{value: value, actor: actor, timestamp: ts}
	}
}

// wins reports whether (ts, actor) should replace (otherTs, otherActor).
func wins(ts hlc.Timestamp, actor ActorId, otherTs hlc.Timestamp, otherActor ActorId) bool {
	if ts.After(otherTs) {
		return true
	}
	if otherTs.After(ts) {
		return false
	}
	return actor > otherActor
}

// Get returns the current value and whether the register is non-empty.
func (r *LWWRegister[T]) Get() (T, bool) {
	if r.current == nil {
		var zero T
		return zero, false
	}
	return r.current.value, true
}

// Timestamp returns the HLC timestamp of the current value, if any.
func (r *LWWRegister[T]) Timestamp() (hlc.Timestamp, bool) {
	if r.current == nil {
		return hlc.Timestamp{}, false
	}
	return r.current.timestamp, true
}

// Actor returns the writer of the current value, if any.
func (r *LWWRegister[T]) Actor() (ActorId, bool) {
	if r.current == nil {
		return "", false
	}
	return r.current.actor, true
}

// Merge folds other into r, keeping whichever value wins under Set's order.
func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) {
	if other.current == nil {
		return
	}
	r.Set(other.current.value, other.current.actor, other.current.timestamp)
}

// HappensBefore reports whether r's current value is causally older than
// other's.
func (r *LWWRegister[T]) HappensBefore(other *LWWRegister[T]) bool {
	if other.current == nil {
		return false
	}
	if r.current == nil {
		return true
	}
	return r.current.timestamp.Before(other.current.timestamp)
}

// Clone returns a deep-enough copy for use as a merge scratch value; T
// itself is copied by value, matching Go's usual shallow-copy semantics.
func (r *LWWRegister[T]) Clone() *LWWRegister[T] {
	if r.current == nil {
		return &LWWRegister[T]{}
	}
	cp := *r.current
	return &LWWRegister[T]{current: &cp}
}
