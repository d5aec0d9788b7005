package consensus

import "github.com/marmos91/rhc-coord/pkg/wire"

// CurrentView returns the view this node currently believes is active.
// View changes do not affect safety (signing keys on round, not view);
// they only affect which member is treated as the proposer to trust.
func (g *Group) CurrentView() uint64 {
	return g.currentView.Load()
}

// LeaderForView returns the member expected to propose under view,
// chosen deterministically by round-robin over the sorted member list.
func (g *Group) LeaderForView(view uint64) string {
	return g.members[view%uint64(len(g.members))]
}

// IsLeader reports whether self is the leader for the current view.
func (g *Group) IsLeader() bool {
	return g.LeaderForView(g.CurrentView()) == g.self
}

// ProposeViewChange builds a ViewChange message requesting a move off
// the current view, for broadcast when the current leader appears
// stalled (no proposal within an election timeout the caller tracks).
func (g *Group) ProposeViewChange(reason string) wire.ViewChange {
	oldView := g.CurrentView()
	return wire.ViewChange{OldView: oldView, NewView: oldView + 1, Reason: reason, NodeID: g.self}
}

// OnViewChange records a vote for vc.NewView. Once a quorum of distinct
// members have voted for the same new view, it adopts that view and
// returns true. Votes for a view older than or equal to the current one
// are ignored.
func (g *Group) OnViewChange(vc wire.ViewChange) bool {
	if vc.NewView <= g.CurrentView() {
		return false
	}
	if !g.isMember(vc.NodeID) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	votes, ok := g.viewVotes[vc.NewView]
	if !ok {
		votes = make(map[string]struct{})
		g.viewVotes[vc.NewView] = votes
	}
	votes[vc.NodeID] = struct{}{}

	if len(votes) < g.quorum {
		return false
	}
	for {
		cur := g.currentView.Load()
		if vc.NewView <= cur {
			return true
		}
		if g.currentView.CompareAndSwap(cur, vc.NewView) {
			delete(g.viewVotes, vc.NewView)
			return true
		}
	}
}
