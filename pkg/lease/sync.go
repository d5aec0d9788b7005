package lease

import (
	"github.com/google/uuid"
	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/marmos91/rhc-coord/pkg/wire"
)

// ExportSyncBatch snapshots this manager's replicated lease-state table
// into a SyncBatch a replica can apply with ApplySyncBatch. scope
// restricts the export to a single scope key; an empty scope exports
// every entry this node currently holds state for.
func (m *Manager) ExportSyncBatch(scope string) wire.SyncBatch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.state.Entries()
	ops := make([]wire.SyncOperation, 0, len(entries))
	for scopeKey, entry := range entries {
		if scope != "" && scopeKey != scope {
			continue
		}
		ops = append(ops, toWireOperation(scopeKey, entry))
	}

	now := m.clock.Now()
	return wire.SyncBatch{
		Source:     string(m.self),
		Scope:      scope,
		Operations: ops,
		Checkpoint: uint64(now.Logical),
		Ts:         now.Physical,
	}
}

// ApplySyncBatch merges a remote SyncBatch into this manager's replicated
// lease-state table and, for every entry that is still active or has been
// fenced, mirrors it into the plain byScope/byID maps the read path (IsValid, FindCovering,
// CanWrite) consults. It never overrides a register with a write that
// is not newer under LeaseStateCRDT's (timestamp, actor) order, so
// applying the same batch twice, or batches out of order, converges.
func (m *Manager) ApplySyncBatch(batch wire.SyncBatch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remote := crdt.NewLeaseStateCRDT(crdt.ActorId(batch.Source))
	for _, op := range batch.Operations {
		remote.GrantLease(op.ScopeKey, fromWireOperation(op))
	}
	m.state.Merge(remote)

	merged := m.state.Entries()
	for _, op := range batch.Operations {
		entry, ok := merged[op.ScopeKey]
		if !ok {
			continue
		}
		m.reconcileLocked(op.ScopeKey, entry)
	}
}

// reconcileLocked brings byScope/byID in line with a post-merge
// LeaseStateCRDT entry: removed when the entry is inactive without a
// fence (a release), upserted with a locally-reconstructed Lease
// otherwise, so a fenced lease stays visible until its fence timestamp.
// Callers must hold mu.
func (m *Manager) reconcileLocked(scopeKey string, entry crdt.LeaseEntry) {
	existing, had := m.byScope[scopeKey]

	if !entry.IsActive && entry.FenceTS == nil {
		if had {
			delete(m.byScope, scopeKey)
			delete(m.byID, existing.ID)
		}
		return
	}

	id, err := uuid.Parse(entry.LeaseID)
	if err != nil {
		return
	}
	if had && existing.ID != id {
		delete(m.byID, existing.ID)
	}
	l := &Lease{
		ID:        id,
		Scope:     scopeFromKey(scopeKey, had, existing),
		Holder:    entry.Holder,
		GrantedAt: entry.GrantedAt,
		ExpiresAt: entry.ExpiresAt,
		FenceTS:   entry.FenceTS,
	}
	m.byScope[scopeKey] = l
	m.byID[id] = l
}

// scopeFromKey recovers the Scope a reconciled Lease should carry. A
// replica that already tracked this scope keeps its richer Scope value
// (Path/Recursive/BlockID); one seeing the scope for the first time
// falls back to a block scope keyed by the opaque scope key itself,
// since LeaseStateCRDT only replicates the key, not the Scope struct.
func scopeFromKey(scopeKey string, had bool, existing *Lease) Scope {
	if had {
		return existing.Scope
	}
	return BlockScope(scopeKey)
}

func toWireOperation(scopeKey string, entry crdt.LeaseEntry) wire.SyncOperation {
	op := wire.SyncOperation{
		ScopeKey:  scopeKey,
		Holder:    string(entry.Holder),
		LeaseID:   entry.LeaseID,
		GrantedAt: entry.GrantedAt.Physical,
		ExpiresAt: entry.ExpiresAt.Physical,
		IsActive:  entry.IsActive,
	}
	if entry.FenceTS != nil {
		op.HasFence = true
		op.FenceTs = entry.FenceTS.Physical
	}
	return op
}

func fromWireOperation(op wire.SyncOperation) crdt.LeaseEntry {
	entry := crdt.LeaseEntry{
		Holder:    crdt.ActorId(op.Holder),
		LeaseID:   op.LeaseID,
		GrantedAt: hlc.Timestamp{Physical: op.GrantedAt},
		ExpiresAt: hlc.Timestamp{Physical: op.ExpiresAt},
		IsActive:  op.IsActive,
	}
	if op.HasFence {
		fenceTS := hlc.Timestamp{Physical: op.FenceTs}
		entry.FenceTS = &fenceTS
	}
	return entry
}
