package crdt

import "github.com/marmos91/rhc-coord/pkg/hlc"

// LeaseEntry is the payload replicated by LeaseStateCRDT for a single lease
// scope. LeaseID is an opaque string (pkg/lease mints it from a UUID) so
// this package stays free of a dependency on pkg/lease.
type LeaseEntry struct {
	Holder    ActorId
	LeaseID   string
	GrantedAt hlc.Timestamp
	ExpiresAt hlc.Timestamp
	IsActive  bool
	FenceTS   *hlc.Timestamp
}

// LeaseStateCRDT replicates the authoritative lease-state table across a
// consensus group: one LWW-Register per scope key, each holding the most
// recent LeaseEntry written for that scope. It converges the same way its
// constituent registers do.
type LeaseStateCRDT struct {
	actor    ActorId
	registry map[string]*LWWRegister[LeaseEntry]
}

// NewLeaseStateCRDT returns an empty lease-state table attributed to actor.
func NewLeaseStateCRDT(actor ActorId) *LeaseStateCRDT {
	return &LeaseStateCRDT{actor: actor, registry: make(map[string]*LWWRegister[LeaseEntry])}
}

func (c *LeaseStateCRDT) registerFor(scopeKey string) *LWWRegister[LeaseEntry] {
	reg, ok := c.registry[scopeKey]
	if !ok {
		reg = NewLWWRegister[LeaseEntry]()
		c.registry[scopeKey] = reg
	}
	return reg
}

// GrantLease records a newly granted lease for scopeKey.
func (c *LeaseStateCRDT) GrantLease(scopeKey string, entry LeaseEntry) {
	c.registerFor(scopeKey).Set(entry, c.actor, entry.GrantedAt)
}

// FenceLease marks the current entry for scopeKey fenced as of fenceTS,
// cutting off its validity without waiting for natural expiry. A no-op if
// no lease is recorded for scopeKey.
func (c *LeaseStateCRDT) FenceLease(scopeKey string, fenceTS hlc.Timestamp) {
	reg, ok := c.registry[scopeKey]
	if !ok {
		return
	}
	entry, ok := reg.Get()
	if !ok {
		return
	}
	entry.FenceTS = &fenceTS
	entry.IsActive = false
	reg.Set(entry, c.actor, fenceTS)
}

// ReleaseLease marks the current entry for scopeKey inactive as of
// releasedAt, without stamping a fence. Used when a holder gives up a
// lease voluntarily rather than being fenced out by a migration. A
// no-op if no lease is recorded for scopeKey.
func (c *LeaseStateCRDT) ReleaseLease(scopeKey string, releasedAt hlc.Timestamp) {
	reg, ok := c.registry[scopeKey]
	if !ok {
		return
	}
	entry, ok := reg.Get()
	if !ok {
		return
	}
	entry.IsActive = false
	reg.Set(entry, c.actor, releasedAt)
}

// IsLeaseValid returns the lease entry for scopeKey if it is neither fenced
// nor expired as of checkTS.
func (c *LeaseStateCRDT) IsLeaseValid(scopeKey string, checkTS hlc.Timestamp) (LeaseEntry, bool) {
	reg, ok := c.registry[scopeKey]
	if !ok {
		return LeaseEntry{}, false
	}
	entry, ok := reg.Get()
	if !ok {
		return LeaseEntry{}, false
	}
	if entry.FenceTS != nil && checkTS.After(*entry.FenceTS) {
		return LeaseEntry{}, false
	}
	if checkTS.After(entry.ExpiresAt) {
		return LeaseEntry{}, false
	}
	return entry, true
}

// ActiveLeases returns every scope key whose current entry is active and
// not yet expired as of now.
func (c *LeaseStateCRDT) ActiveLeases(now hlc.Timestamp) map[string]LeaseEntry {
	out := make(map[string]LeaseEntry)
	for scopeKey, reg := range c.registry {
		entry, ok := reg.Get()
		if !ok {
			continue
		}
		if entry.IsActive && entry.ExpiresAt.After(now) {
			out[scopeKey] = entry
		}
	}
	return out
}

// Entries returns every scope key's current entry regardless of
// activity or expiry, for replicating the full table to another node
// (see SyncBatch). Use IsLeaseValid/ActiveLeases for queries that care
// about validity.
func (c *LeaseStateCRDT) Entries() map[string]LeaseEntry {
	out := make(map[string]LeaseEntry, len(c.registry))
	for scopeKey, reg := range c.registry {
		if entry, ok := reg.Get(); ok {
			out[scopeKey] = entry
		}
	}
	return out
}

// Merge folds other's per-scope registers into c's.
func (c *LeaseStateCRDT) Merge(other *LeaseStateCRDT) {
	for scopeKey, otherReg := range other.registry {
		c.registerFor(scopeKey).Merge(otherReg)
	}
}

// HappensBefore does not apply to the composite table as a whole; always
// false. Use IsLeaseValid/ActiveLeases for scope-level causal queries.
func (c *LeaseStateCRDT) HappensBefore(other *LeaseStateCRDT) bool {
	return false
}
