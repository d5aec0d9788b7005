// Package consensus implements majority agreement over an ordered log of
// opaque values within a group of n participants tolerating f Byzantine
// failures, using threshold signatures for compact per-round commit
// proofs.
//
// Import graph: coorderr, crypto, hlc, wire <- consensus.
package consensus

import (
	"github.com/marmos91/rhc-coord/pkg/crypto"
	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/marmos91/rhc-coord/pkg/wire"
)

// Validator checks a proposed value for consistency with already
// committed state before a node will sign it. A lease operation, for
// example, must not contradict an entry already committed for the same
// scope in an earlier round. Supplied by the caller (pkg/node) so this
// package stays free of a dependency on pkg/lease.
type Validator interface {
	Validate(round uint64, value []byte) error
}

// Applier applies a committed value to downstream state once a round
// finalizes. Supplied by the caller (pkg/lease's state, pkg/statemachine).
type Applier interface {
	Apply(round uint64, value []byte) error
}

// Broadcaster delivers this node's outgoing round messages to every
// other member. Supplied by the caller (cmd/coordd wires pkg/transport's
// HTTPBroadcaster) so this package stays free of any networking
// dependency.
type Broadcaster interface {
	BroadcastPropose(wire.Propose) error
	BroadcastShare(wire.ThresholdShare) error
}

// proposal is the locally stored record of a round's proposed value.
type proposal struct {
	round    uint64
	value    []byte
	proposer string
	ts       hlc.Timestamp
}

// roundState tracks everything this node knows about a single round.
type roundState struct {
	proposal  *proposal
	shares    map[string]crypto.ShareSignature
	committed *wire.Commit
	published bool
}

func newRoundState() *roundState {
	return &roundState{shares: make(map[string]crypto.ShareSignature)}
}

// Accusation records evidence that a participant signed two distinct
// values at the same round.
type Accusation struct {
	Round    uint64
	NodeID   string
	ValueA   []byte
	ValueB   []byte
	Reporter string
}

// EvidenceLog accumulates equivocation accusations for operator review.
// It never evicts entries automatically; the caller decides retention.
type EvidenceLog struct {
	entries []Accusation
}

func (e *EvidenceLog) record(a Accusation) {
	e.entries = append(e.entries, a)
}

// Entries returns every accusation recorded so far, oldest first.
func (e *EvidenceLog) Entries() []Accusation {
	out := make([]Accusation, len(e.entries))
	copy(out, e.entries)
	return out
}
