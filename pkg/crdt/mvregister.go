package crdt

import "github.com/marmos91/rhc-coord/pkg/hlc"

// versionKey identifies a single write by (actor, timestamp).
type versionKey struct {
	Actor     ActorId
	Timestamp hlc.Timestamp
}

// VersionedValue is one of an MVRegister's concurrent values.
type VersionedValue[T comparable] struct {
	Value      T
	Actor      ActorId
	Timestamp  hlc.Timestamp
	supersedes map[versionKey]struct{}
}

func (v VersionedValue[T]) key() versionKey {
	return versionKey{Actor: v.Actor, Timestamp: v.Timestamp}
}

// MVRegister is a multi-value register: it keeps every value written since
// the last value all current writers have observed, surfacing concurrent
// writes to the caller instead of silently picking a winner the way
// LWWRegister does.
type MVRegister[T comparable] struct {
	values map[versionKey]VersionedValue[T]
}

// NewMVRegister returns an empty register.
func NewMVRegister[T comparable]() *MVRegister[T] {
	return &MVRegister[T]{values: make(map[versionKey]VersionedValue[T])}
}

// Set writes value, superseding every value currently in the register (the
// writer has necessarily observed all of them first).
func (r *MVRegister[T]) Set(value T, actor ActorId, ts hlc.Timestamp) {
	supersedes := make(map[versionKey]struct{}, len(r.values))
	for k := range r.values {
		supersedes[k] = struct{}{}
	}
	r.values = map[versionKey]VersionedValue[T]{}
	vv := VersionedValue[T]{Value: value, Actor: actor, Timestamp: ts, supersedes: supersedes}
	r.values[vv.key()] = vv
}

// Get returns all concurrent values currently held.
func (r *MVRegister[T]) Get() []T {
	out := make([]T, 0, len(r.values))
	for _, v := range r.values {
		out = append(out, v.Value)
	}
	return out
}

// GetVersioned returns all concurrent values with their version metadata.
func (r *MVRegister[T]) GetVersioned() []VersionedValue[T] {
	out := make([]VersionedValue[T], 0, len(r.values))
	for _, v := range r.values {
		out = append(out, v)
	}
	return out
}

// IsEmpty reports whether the register holds no values.
func (r *MVRegister[T]) IsEmpty() bool {
	return len(r.values) == 0
}

// Merge unions both registers' value sets, then drops any value that is
// named in another surviving value's supersedes set.
func (r *MVRegister[T]) Merge(other *MVRegister[T]) {
	all := make(map[versionKey]VersionedValue[T], len(r.values)+len(other.values))
	for k, v := range r.values {
		all[k] = v
	}
	for k, v := range other.values {
		all[k] = v
	}

	toRemove := make(map[versionKey]struct{})
	for k1, v1 := range all {
		for k2, v2 := range all {
			if k1 == k2 {
				continue
			}
			if _, superseded := v2.supersedes[k1]; superseded {
				toRemove[k1] = struct{}{}
			}
		}
	}
	for k := range toRemove {
		delete(all, k)
	}
	r.values = all
}

// HappensBefore does not apply to a multi-valued register; always false.
func (r *MVRegister[T]) HappensBefore(other *MVRegister[T]) bool {
	return false
}
