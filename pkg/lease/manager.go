package lease

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/marmos91/rhc-coord/pkg/hlc"
)

// Manager owns the authoritative lease set for every scope this node's
// consensus group is responsible for. Reads (IsValid, CanWrite) take the
// read lock and are the hot path; every mutating operation takes the
// write lock.
//
// Every grant, renewal, fence and release is mirrored into state, the
// replicated LeaseStateCRDT, so a replica that only ever consumes
// SyncBatch messages converges on the same effective lease set as the
// authoritative side.
type Manager struct {
	self  crdt.ActorId
	clock *hlc.HLC

	mu        sync.RWMutex
	byScope   map[string]*Lease
	byID      map[uuid.UUID]*Lease
	latencies map[string]*latencyTracker
	state     *crdt.LeaseStateCRDT
}

// ManagerStats summarizes the manager's current lease set.
type ManagerStats struct {
	TotalLeases  int
	ActiveLeases int
}

// NewManager returns an empty Manager attributed to self, driven by clock.
func NewManager(self crdt.ActorId, clock *hlc.HLC) *Manager {
	return &Manager{
		self:      self,
		clock:     clock,
		byScope:   make(map[string]*Lease),
		byID:      make(map[uuid.UUID]*Lease),
		latencies: make(map[string]*latencyTracker),
		state:     crdt.NewLeaseStateCRDT(self),
	}
}

// Acquire grants a new lease over scope to holder, failing if a more- or
// equally-specific valid lease is already held by someone else.
func (m *Manager) Acquire(scope Scope, holder crdt.ActorId, duration time.Duration) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if existing, ok := m.effectiveLocked(scope, now); ok && existing.Holder != holder {
		return nil, errConflict(scope.Key(), existing.Holder)
	}

	l := New(scope, holder, now, duration)
	m.store(l)
	return l, nil
}

// Renew extends leaseID's expiry. Only the current holder may renew, and
// an already-expired lease cannot be renewed.
func (m *Manager) Renew(leaseID uuid.UUID, caller crdt.ActorId, duration time.Duration) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[leaseID]
	if !ok {
		return nil, errNotFound(leaseID.String())
	}
	now := m.clock.Now()
	if l.IsExpired(now) {
		return nil, errExpired(leaseID.String())
	}
	if l.Holder != caller {
		return nil, errUnauthorized(leaseID.String(), caller)
	}
	l.Renew(now, duration)
	m.state.GrantLease(l.Scope.Key(), l.toCRDTEntry())
	return l, nil
}

// Release removes leaseID's entry atomically. Holder-only.
func (m *Manager) Release(leaseID uuid.UUID, caller crdt.ActorId) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[leaseID]
	if !ok {
		return errNotFound(leaseID.String())
	}
	if l.Holder != caller {
		return errUnauthorized(leaseID.String(), caller)
	}
	delete(m.byID, leaseID)
	if current, ok := m.byScope[l.Scope.Key()]; ok && current.ID == leaseID {
		delete(m.byScope, l.Scope.Key())
	}
	m.state.ReleaseLease(l.Scope.Key(), m.clock.Now())
	return nil
}

// Delegate creates a child lease over subScope, clamped to the parent's
// remaining lifetime. parentID must identify a currently valid lease.
func (m *Manager) Delegate(parentID uuid.UUID, subScope Scope, holder crdt.ActorId) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.byID[parentID]
	if !ok {
		return nil, errNotFound(parentID.String())
	}
	now := m.clock.Now()
	if !parent.IsValid(now) {
		return nil, errExpired(parentID.String())
	}
	child := parent.Delegate(subScope, holder, now)
	m.store(child)
	return child, nil
}

// Fence stamps fenceTS on the current entry for scope, if any, cutting
// off its validity at fenceTS. Used by the migration protocol to retire
// an outgoing holder before a new grant commits.
func (m *Manager) Fence(scope Scope, fenceTS hlc.Timestamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byScope[scope.Key()]
	if !ok {
		return errNotFound(scope.Key())
	}
	l.Fence(fenceTS)
	m.state.FenceLease(scope.Key(), fenceTS)
	return nil
}

// IsValid returns the effective lease for scope at time at, if one is
// neither expired nor fenced.
func (m *Manager) IsValid(scope Scope, at hlc.Timestamp) (*Lease, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.effectiveLocked(scope, at)
}

// FindCovering returns the most specific valid lease covering path at
// time at, if any.
func (m *Manager) FindCovering(path string, at hlc.Timestamp) (*Lease, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mostSpecificCoveringLocked(path, at)
}

// Now returns the manager's clock's current timestamp.
func (m *Manager) Now() hlc.Timestamp {
	return m.clock.Now()
}

// CanWrite reports whether self holds the most-specific covering,
// unexpired, unfenced lease for path.
func (m *Manager) CanWrite(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	best, ok := m.mostSpecificCoveringLocked(path, now)
	return ok && best.Holder == m.self
}

// Stats returns a point-in-time snapshot of lease counts.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	stats := ManagerStats{TotalLeases: len(m.byID)}
	for _, l := range m.byID {
		if l.IsValid(now) {
			stats.ActiveLeases++
		}
	}
	return stats
}

// Snapshot returns a copy of every lease this manager currently tracks,
// valid or not. Used by the operator status API; callers must not mutate
// the returned leases.
func (m *Manager) Snapshot() []*Lease {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Lease, 0, len(m.byID))
	for _, l := range m.byID {
		out = append(out, l)
	}
	return out
}

func (m *Manager) store(l *Lease) {
	m.byID[l.ID] = l
	m.byScope[l.Scope.Key()] = l
	m.state.GrantLease(l.Scope.Key(), l.toCRDTEntry())
}

func (m *Manager) effectiveLocked(scope Scope, at hlc.Timestamp) (*Lease, bool) {
	l, ok := m.byScope[scope.Key()]
	if !ok || !l.IsValid(at) {
		return nil, false
	}
	return l, true
}

// mostSpecificCoveringLocked scans every tracked lease whose scope covers
// path and returns the most specific valid one. The scan is linear in
// the number of tracked scopes; coordination leases are expected to
// number in the hundreds per node, not the millions, so this trades a
// small constant cost for a much simpler data structure than an interval
// tree.
func (m *Manager) mostSpecificCoveringLocked(path string, now hlc.Timestamp) (*Lease, bool) {
	var best *Lease
	for _, l := range m.byScope {
		if !l.IsValid(now) || !l.Scope.Covers(path) {
			continue
		}
		if best == nil || l.Scope.IsMoreSpecificThan(best.Scope) {
			best = l
		}
	}
	return best, best != nil
}
