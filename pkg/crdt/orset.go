package crdt

import "github.com/marmos91/rhc-coord/pkg/hlc"

// Tag uniquely identifies one add operation: the (actor, timestamp) pair
// that produced it. Two adds of the same element by different actors, or by
// the same actor at different timestamps, carry distinct tags.
type Tag struct {
	Actor     ActorId
	Timestamp hlc.Timestamp
}

// ORSet is an observed-remove set: an element is a member if it has at
// least one live add-tag. Remove only clears the tags the caller has
// actually observed, so an add concurrent with a remove (one whose tag the
// remover never saw) survives the remove — this is what distinguishes an
// OR-Set from a naive last-writer-wins set.
type ORSet[T comparable] struct {
	elements map[T]map[Tag]struct{}
}

// NewORSet returns an empty set.
func NewORSet[T comparable]() *ORSet[T] {
	return &ORSet[T]{elements: make(map[T]map[Tag]struct{})}
}

// Add records a new tag for element, making it a member if it wasn't
// already.
func (s *ORSet[T]) Add(element T, actor ActorId, ts hlc.Timestamp) {
	tags, ok := s.elements[element]
	if !ok {
		tags = make(map[Tag]struct{})
		s.elements[element] = tags
	}
	tags[Tag{Actor: actor, Timestamp: ts}] = struct{}{}
}

// ObservedTags returns the tag set this replica currently has for element,
// to be passed to Remove. Returns nil if the element is not a member.
func (s *ORSet[T]) ObservedTags(element T) map[Tag]struct{} {
	tags, ok := s.elements[element]
	if !ok {
		return nil
	}
	cp := make(map[Tag]struct{}, len(tags))
	for tag := range tags {
		cp[tag] = struct{}{}
	}
	return cp
}

// Remove clears only the tags in observed from element's live tag set. Tags
// added concurrently — ones not present in observed — are left intact, so
// the element remains a member if such a tag exists. Passing the full
// result of ObservedTags models "remove what I've seen"; passing a smaller
// set models a remove based on stale knowledge.
func (s *ORSet[T]) Remove(element T, observed map[Tag]struct{}) {
	tags, ok := s.elements[element]
	if !ok {
		return
	}
	for tag := range observed {
		delete(tags, tag)
	}
	if len(tags) == 0 {
		delete(s.elements, element)
	}
}

// Contains reports whether element currently has at least one live tag.
func (s *ORSet[T]) Contains(element T) bool {
	tags, ok := s.elements[element]
	return ok && len(tags) > 0
}

// Elements returns the current members of the set.
func (s *ORSet[T]) Elements() []T {
	out := make([]T, 0, len(s.elements))
	for e := range s.elements {
		out = append(out, e)
	}
	return out
}

// Tags returns the live tag set for element.
func (s *ORSet[T]) Tags(element T) map[Tag]struct{} {
	return s.ObservedTags(element)
}

// Merge unions tag sets per element with other. An element remains a
// member after merge iff either replica has a live tag for it.
func (s *ORSet[T]) Merge(other *ORSet[T]) {
	for element, otherTags := range other.elements {
		tags, ok := s.elements[element]
		if !ok {
			tags = make(map[Tag]struct{}, len(otherTags))
			s.elements[element] = tags
		}
		for tag := range otherTags {
			tags[tag] = struct{}{}
		}
	}
}

// HappensBefore is not meaningful for an OR-Set: membership is the union of
// concurrent operations, not a single causal line. Always false, matching
// the reference semantics of a set-valued CRDT.
func (s *ORSet[T]) HappensBefore(other *ORSet[T]) bool {
	return false
}
