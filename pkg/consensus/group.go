package consensus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/rhc-coord/pkg/coorderr"
	"github.com/marmos91/rhc-coord/pkg/crypto"
	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/marmos91/rhc-coord/pkg/wire"
)

// commitPollInterval bounds how often Commit checks whether its round has
// finalized while waiting on remote shares to arrive via OnShare.
const commitPollInterval = 5 * time.Millisecond

// shardCount partitions round state across independent mutexes so that
// signing/aggregating on one round never contends with another. Rounds
// hash to a shard by round % shardCount.
const shardCount = 16

type shard struct {
	mu     sync.Mutex
	rounds map[uint64]*roundState
}

// Group is one node's view of a Byzantine fault tolerant consensus
// group: n participants, threshold τ = 2f+1, producing one aggregated
// commit proof per round.
type Group struct {
	self      string
	members   []string
	quorum    int
	threshold *crypto.ThresholdGroup
	share     crypto.Share
	clock     *hlc.HLC
	validator Validator
	applier   Applier

	currentRound atomic.Uint64 // highest round finalized by this node
	nextRound    atomic.Uint64 // next round number this node will propose
	shards       [shardCount]*shard

	mu          sync.Mutex
	signedHash  map[string][32]byte // "round:node" -> hash this node signed at round
	evidence    EvidenceLog
	currentView atomic.Uint64
	viewVotes   map[uint64]map[string]struct{}

	// shareIDs maps each member's node id to the threshold-scheme ID
	// their crypto.Share was derived under, so recovered signatures can
	// be matched back to the correct Lagrange coefficient. Assumes
	// shares were minted in the same sorted member order NewGroup uses
	// (see crypto.GenerateShares).
	shareIDs map[string]crypto.ShareID

	broadcaster Broadcaster
}

// UseBroadcaster wires b as the transport Propose and ThresholdShare
// messages are sent over. Must be called before Commit; OnPropose,
// OnShare and Finalize work without one (a node that never proposes, only
// reacts to messages delivered to it externally, has no need for it).
func (g *Group) UseBroadcaster(b Broadcaster) {
	g.broadcaster = b
}

// NewGroup returns a Group of len(members) participants with quorum τ,
// using threshold for share signing/aggregation and clock for round
// timestamps. self must appear in members. validator and applier may be
// nil; a nil validator accepts every well-formed value, a nil applier
// makes Finalize a no-op beyond bookkeeping.
func NewGroup(self string, members []string, quorum int, threshold *crypto.ThresholdGroup, share crypto.Share, clock *hlc.HLC, validator Validator, applier Applier) (*Group, error) {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)

	found := false
	for _, m := range sorted {
		if m == self {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("consensus group: self %q is not a member", self)
	}
	if quorum < 1 || quorum > len(sorted) {
		return nil, fmt.Errorf("consensus group: invalid quorum %d for %d members", quorum, len(sorted))
	}

	shareIDs := make(map[string]crypto.ShareID, len(sorted))
	for i, m := range sorted {
		id, err := crypto.ShareIDFromIndex(i + 1)
		if err != nil {
			return nil, fmt.Errorf("consensus group: %w", err)
		}
		shareIDs[m] = id
	}

	g := &Group{
		self:       self,
		members:    sorted,
		quorum:     quorum,
		threshold:  threshold,
		share:      share,
		clock:      clock,
		validator:  validator,
		applier:    applier,
		signedHash: make(map[string][32]byte),
		viewVotes:  make(map[uint64]map[string]struct{}),
		shareIDs:   shareIDs,
	}
	for i := range g.shards {
		g.shards[i] = &shard{rounds: make(map[uint64]*roundState)}
	}
	return g, nil
}

func (g *Group) shardFor(round uint64) *shard {
	return g.shards[round%shardCount]
}

func (g *Group) isMember(nodeID string) bool {
	for _, m := range g.members {
		if m == nodeID {
			return true
		}
	}
	return false
}

// CurrentRound returns the highest round this node has finalized.
func (g *Group) CurrentRound() uint64 {
	return g.currentRound.Load()
}

// Self returns this node's member id.
func (g *Group) Self() string {
	return g.self
}

// Members returns the group's member ids in sorted order (NewGroup sorts
// the list it receives).
func (g *Group) Members() []string {
	out := make([]string, len(g.members))
	copy(out, g.members)
	return out
}

// Quorum returns the number of matching shares a round needs to finalize.
func (g *Group) Quorum() int {
	return g.quorum
}

// Propose starts a new round for value and returns the Propose message
// to broadcast along with this node's own signature share on it, which
// must also be broadcast (the leader signs its own proposal immediately,
// per the algorithm's step 2).
func (g *Group) Propose(value []byte) (wire.Propose, wire.ThresholdShare, error) {
	round := g.nextRound.Add(1)
	now := g.clock.Now()

	p := wire.Propose{Round: round, Value: value, Proposer: g.self, Ts: now.Physical}

	share, err := g.OnPropose(p)
	if err != nil {
		return wire.Propose{}, wire.ThresholdShare{}, err
	}
	return p, *share, nil
}

// Commit proposes value, broadcasts it and this node's own share via the
// wired Broadcaster, then blocks until the round finalizes or ctx is
// cancelled. It satisfies pkg/lease's Committer interface, letting the
// lease manager drive migrations without depending on this package.
func (g *Group) Commit(ctx context.Context, value []byte) (hlc.Timestamp, error) {
	if g.broadcaster == nil {
		return hlc.Timestamp{}, fmt.Errorf("consensus group: no broadcaster wired, cannot propose")
	}

	p, share, err := g.Propose(value)
	if err != nil {
		return hlc.Timestamp{}, err
	}
	if err := g.broadcaster.BroadcastPropose(p); err != nil {
		return hlc.Timestamp{}, fmt.Errorf("broadcast proposal for round %d: %w", p.Round, err)
	}
	if err := g.broadcaster.BroadcastShare(share); err != nil {
		return hlc.Timestamp{}, fmt.Errorf("broadcast own share for round %d: %w", p.Round, err)
	}

	ticker := time.NewTicker(commitPollInterval)
	defer ticker.Stop()
	for {
		shard := g.shardFor(p.Round)
		shard.mu.Lock()
		rs, ok := shard.rounds[p.Round]
		var committed *wire.Commit
		if ok {
			committed = rs.committed
		}
		shard.mu.Unlock()
		if committed != nil {
			return hlc.Timestamp{Physical: committed.Ts}, nil
		}

		select {
		case <-ctx.Done():
			return hlc.Timestamp{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// OnPropose validates and records a proposal for round, then returns
// this node's own signature share over it. Returns nil, nil if the
// proposal is stale (round <= currentRound, the highest round already
// finalized) and should simply be ignored, not treated as an error.
// currentRound only advances on Finalize, so a node's own just-minted
// proposal (numbered via the separate nextRound counter) is never
// mistaken for a stale one here.
func (g *Group) OnPropose(p wire.Propose) (*wire.ThresholdShare, error) {
	if p.Round <= g.currentRound.Load() {
		return nil, nil
	}
	if !g.isMember(p.Proposer) {
		return nil, coorderr.NewUnauthorized(p.Proposer, "")
	}
	if g.validator != nil {
		if err := g.validator.Validate(p.Round, p.Value); err != nil {
			return nil, err
		}
	}

	hash := crypto.RoundHash(p.Round, p.Value)

	if accused := g.checkEquivocation(p.Round, p.Proposer, hash, p.Value, nil); accused {
		return nil, coorderr.NewByzantineFault(p.Proposer, fmt.Sprintf("proposer %q equivocated at round %d", p.Proposer, p.Round))
	}

	shard := g.shardFor(p.Round)
	shard.mu.Lock()
	rs, ok := shard.rounds[p.Round]
	if !ok {
		rs = newRoundState()
		shard.rounds[p.Round] = rs
	}
	if rs.proposal == nil {
		rs.proposal = &proposal{round: p.Round, value: p.Value, proposer: p.Proposer, ts: hlc.Timestamp{Physical: p.Ts}}
	}
	shard.mu.Unlock()

	shareSig := g.share.Sign(hash[:])
	shard.mu.Lock()
	rs.shares[g.self] = shareSig
	shard.mu.Unlock()

	return &wire.ThresholdShare{Round: p.Round, NodeID: g.self, Share: shareSig.Sig.Serialize(), Ts: g.clock.Now().Physical}, nil
}

// checkEquivocation records the hash nodeID is about to sign/propose at
// round and reports whether it conflicts with a hash already recorded
// for that node at that round.
func (g *Group) checkEquivocation(round uint64, nodeID string, hash [32]byte, valueA, valueB []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := fmt.Sprintf("%d:%s", round, nodeID)
	prior, seen := g.signedHash[key]
	if !seen {
		g.signedHash[key] = hash
		return false
	}
	if prior == hash {
		return false
	}
	g.evidence.record(Accusation{Round: round, NodeID: nodeID, ValueA: valueA, ValueB: valueB, Reporter: g.self})
	return true
}

// OnShare folds a remote signature share into round's aggregator. Once
// >= τ distinct shares have accumulated and no commit has been published
// for this round yet, it aggregates and returns the Commit to broadcast.
// A share that arrives before its round's proposal is kept and counts
// toward quorum on a later OnShare once the proposal is recorded.
// Returns nil, nil when there is nothing new to broadcast.
func (g *Group) OnShare(s wire.ThresholdShare) (*wire.Commit, error) {
	shard := g.shardFor(s.Round)
	shard.mu.Lock()
	rs, ok := shard.rounds[s.Round]
	if !ok {
		rs = newRoundState()
		shard.rounds[s.Round] = rs
	}

	id, ok := g.shareIDs[s.NodeID]
	if !ok {
		shard.mu.Unlock()
		return nil, coorderr.NewUnauthorized(s.NodeID, "")
	}
	var sig crypto.ShareSignature
	if err := sig.Sig.Deserialize(s.Share); err != nil {
		shard.mu.Unlock()
		return nil, fmt.Errorf("deserialize share from %q at round %d: %w", s.NodeID, s.Round, err)
	}
	sig.ID = id
	rs.shares[s.NodeID] = sig

	if rs.proposal == nil || rs.published || len(rs.shares) < g.quorum {
		shard.mu.Unlock()
		return nil, nil
	}

	signers := make([]string, 0, len(rs.shares))
	sigs := make([]crypto.ShareSignature, 0, len(rs.shares))
	for node, sh := range rs.shares {
		signers = append(signers, node)
		sigs = append(sigs, sh)
	}
	sort.Strings(signers)
	value := rs.proposal.value
	round := s.Round
	shard.mu.Unlock()

	agg, err := crypto.Recover(sigs)
	if err != nil {
		return nil, fmt.Errorf("aggregate round %d: %w", round, err)
	}

	commit := wire.Commit{
		Round:               round,
		Value:               value,
		AggregatedSignature: agg.Bytes(),
		Signers:             signers,
		Ts:                  g.clock.Now().Physical,
	}

	shard.mu.Lock()
	if rs.published {
		shard.mu.Unlock()
		return nil, nil
	}
	rs.published = true
	shard.mu.Unlock()

	if _, err := g.Finalize(commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// Finalize records commit as the result for its round, verifying its
// aggregated signature against the group's threshold public key.
// Finalize is idempotent: a repeat Commit for an already-finalized round
// is a no-op that returns false, nil.
func (g *Group) Finalize(commit wire.Commit) (bool, error) {
	shard := g.shardFor(commit.Round)
	shard.mu.Lock()
	rs, ok := shard.rounds[commit.Round]
	if !ok {
		rs = newRoundState()
		shard.rounds[commit.Round] = rs
	}
	if rs.committed != nil {
		shard.mu.Unlock()
		return false, nil
	}
	shard.mu.Unlock()

	hash := crypto.RoundHash(commit.Round, commit.Value)
	agg, err := crypto.ParseAggregatedSignature(commit.AggregatedSignature)
	if err != nil {
		return false, fmt.Errorf("parse commit signature for round %d: %w", commit.Round, err)
	}
	if !g.threshold.Verify(agg, hash[:]) {
		return false, coorderr.NewByzantineFault(fmt.Sprintf("round-%d", commit.Round), fmt.Sprintf("commit signature for round %d does not verify", commit.Round))
	}

	shard.mu.Lock()
	if rs.committed != nil {
		shard.mu.Unlock()
		return false, nil
	}
	rs.committed = &commit
	shard.mu.Unlock()

	for {
		cur := g.currentRound.Load()
		if commit.Round <= cur {
			break
		}
		if g.currentRound.CompareAndSwap(cur, commit.Round) {
			break
		}
	}
	for {
		cur := g.nextRound.Load()
		if commit.Round < cur {
			break
		}
		if g.nextRound.CompareAndSwap(cur, commit.Round+1) {
			break
		}
	}

	if g.applier != nil {
		if err := g.applier.Apply(commit.Round, commit.Value); err != nil {
			return true, fmt.Errorf("apply committed value for round %d: %w", commit.Round, err)
		}
	}
	return true, nil
}

// CommittedValue returns the value committed for round, if finalized.
func (g *Group) CommittedValue(round uint64) ([]byte, bool) {
	shard := g.shardFor(round)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	rs, ok := shard.rounds[round]
	if !ok || rs.committed == nil {
		return nil, false
	}
	return rs.committed.Value, true
}

// Evidence returns every equivocation accusation this node has recorded.
func (g *Group) Evidence() []Accusation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evidence.Entries()
}
