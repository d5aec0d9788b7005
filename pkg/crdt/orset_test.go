package crdt

import (
	"testing"

	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/stretchr/testify/assert"
)

func TestORSetAddAndRemoveBasic(t *testing.T) {
	s := NewORSet[string]()
	s.Add("file.txt", "a", hlc.Timestamp{Physical: 1})
	assert.True(t, s.Contains("file.txt"))

	observed := s.ObservedTags("file.txt")
	s.Remove("file.txt", observed)
	assert.False(t, s.Contains("file.txt"))
}

func TestORSetMergeDisjointElements(t *testing.T) {
	s1 := NewORSet[string]()
	s2 := NewORSet[string]()
	s1.Add("a.txt", "n1", hlc.Timestamp{Physical: 1})
	s2.Add("b.txt", "n2", hlc.Timestamp{Physical: 2})

	s1.Merge(s2)
	assert.True(t, s1.Contains("a.txt"))
	assert.True(t, s1.Contains("b.txt"))
}

// TestORSetConcurrentAddSurvivesRemove is the conformance test for the
// observed-remove property: a remove based on a stale observation must not
// delete a tag added concurrently by another replica.
func TestORSetConcurrentAddSurvivesRemove(t *testing.T) {
	replicaA := NewORSet[string]()
	replicaA.Add("shared", "a", hlc.Timestamp{Physical: 1})

	// Replica B starts from the same state, observes the tag, and issues a
	// remove based on that observation.
	replicaB := NewORSet[string]()
	replicaB.Merge(replicaA)
	observedByB := replicaB.ObservedTags("shared")

	// Concurrently, replica A adds a second, independent tag for the same
	// element that B has not observed.
	replicaA.Add("shared", "a", hlc.Timestamp{Physical: 2})

	// B applies its remove, clearing only the tag it actually observed.
	replicaB.Remove("shared", observedByB)
	assert.False(t, replicaB.Contains("shared"), "B's own view loses the element it removed")

	// Now merge A's (unaware) state into B.
	replicaB.Merge(replicaA)
	assert.True(t, replicaB.Contains("shared"), "the concurrently-added tag must survive the remove")
}

func TestORSetRemoveWithPartialObservationLeavesOtherTagsLive(t *testing.T) {
	s := NewORSet[string]()
	s.Add("shared", "a", hlc.Timestamp{Physical: 1})
	s.Add("shared", "b", hlc.Timestamp{Physical: 2})

	// Remove only tag from actor "a".
	partial := map[Tag]struct{}{{Actor: "a", Timestamp: hlc.Timestamp{Physical: 1}}: {}}
	s.Remove("shared", partial)

	assert.True(t, s.Contains("shared"), "tag from actor b is still live")
}

func TestORSetMergeIdempotent(t *testing.T) {
	s1 := NewORSet[string]()
	s1.Add("x", "a", hlc.Timestamp{Physical: 1})
	s2 := s1
	s1.Merge(s2)
	assert.ElementsMatch(t, []string{"x"}, s1.Elements())
}
