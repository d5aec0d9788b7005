// Package wire defines the on-the-wire payloads exchanged between
// consensus group members and encodes them with XDR, the same codec the
// rest of this project's lineage uses for its binary protocols.
package wire

// Propose is broadcast by a round's leader to start a new round.
type Propose struct {
	Round    uint64
	Value    []byte
	Proposer string
	Ts       uint64
}

// ThresholdShare is a single node's signature share over a proposal.
type ThresholdShare struct {
	Round  uint64
	NodeID string
	Share  []byte
	Ts     uint64
}

// Commit is the aggregated, publish-once commit proof for a round.
type Commit struct {
	Round               uint64
	Value               []byte
	AggregatedSignature []byte
	Signers             []string
	Ts                  uint64
}

// ViewChange requests a new leader when the current one stalls.
type ViewChange struct {
	OldView uint64
	NewView uint64
	Reason  string
	NodeID  string
}

// Accusation carries equivocation evidence: two distinct values a node
// signed at the same round.
type Accusation struct {
	Round     uint64
	NodeID    string
	ValueA    []byte
	ValueB    []byte
	ShareA    []byte
	ShareB    []byte
	Reporter  string
	Ts        uint64
}

// KVCommandKind discriminates the deterministic KV state machine's
// command types.
type KVCommandKind int32

const (
	KVSet KVCommandKind = iota
	KVDelete
	KVIncrement
)

// KVCommand is the opaque value a consensus round's Commit carries when
// it targets the KV state machine.
type KVCommand struct {
	Kind  KVCommandKind
	Key   string
	Value []byte
	Delta int64
}

// ScopeKind mirrors pkg/lease.ScopeKind on the wire so this package does
// not need to import pkg/lease.
type ScopeKind int32

const (
	ScopeFile ScopeKind = iota
	ScopeDirectory
	ScopeBlock
)

// WireScope is the on-the-wire encoding of a lease scope.
type WireScope struct {
	Kind      ScopeKind
	Path      string
	Recursive bool
	BlockID   string
}

// FenceRequest is the first step of the lease migration protocol: a
// proposer asking the CG owning a scope to fence the outgoing holder.
type FenceRequest struct {
	Scope    WireScope
	FenceTs  uint64
	Proposer string
}

// GrantRequest is the migration protocol's final step: a proposer asking
// the CG to commit a new lease grant after the fence has committed.
type GrantRequest struct {
	Scope      WireScope
	Holder     string
	DurationMs uint64
	FenceTs    uint64
}

// RoundCommandKind discriminates the payload a consensus round commits,
// so the applier on the receiving end knows which struct Payload decodes
// into without inspecting its bytes.
type RoundCommandKind int32

const (
	RoundKV RoundCommandKind = iota
	RoundFence
	RoundGrant
)

// RoundCommand is the envelope every value proposed to a consensus round
// carries: Payload is one of KVCommand, FenceRequest or GrantRequest,
// itself XDR-encoded, selected by Kind.
type RoundCommand struct {
	Kind    RoundCommandKind
	Payload []byte
}

// SyncOperation is one lease-state register update carried by a
// SyncBatch: the replicated equivalent of a single GrantLease or
// FenceLease call against pkg/crdt.LeaseStateCRDT.
type SyncOperation struct {
	ScopeKey  string
	Holder    string
	LeaseID   string
	GrantedAt uint64
	ExpiresAt uint64
	IsActive  bool
	HasFence  bool
	FenceTs   uint64
}

// SyncBatch lets a node catch a replica up on lease-state entries it
// missed, outside the consensus round path: a periodic or
// on-reconnect push of a source node's LeaseStateCRDT register values
// for scope (or every scope it holds, when Scope is empty).
type SyncBatch struct {
	Source     string
	Scope      string
	Operations []SyncOperation
	Checkpoint uint64
	Ts         uint64
}
