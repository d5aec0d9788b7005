package lease

import (
	"github.com/marmos91/rhc-coord/pkg/coorderr"
	"github.com/marmos91/rhc-coord/pkg/crdt"
)

// errConflict reports that scope already has a more- or equally-specific
// valid lease held by existing.
func errConflict(scopeKey string, existing crdt.ActorId) error {
	return coorderr.NewLeaseConflict(scopeKey, string(existing))
}

// errExpired reports that a lease has expired and can no longer be
// renewed or relied upon.
func errExpired(leaseID string) error {
	return coorderr.NewLeaseExpired(leaseID)
}

// errUnauthorized reports that caller is not the holder of record.
func errUnauthorized(leaseID string, caller crdt.ActorId) error {
	return coorderr.NewUnauthorized(leaseID, string(caller))
}

// errNotFound reports that no lease exists with the given id.
func errNotFound(leaseID string) error {
	return coorderr.NewNotFound(leaseID, "lease")
}

// errNoLease reports the transient window between a fence commit and the
// subsequent grant commit, during which writes to scope must fail rather
// than proceed against a stale or absent holder. Modeled as a
// LeaseConflict: the caller should retry after the migration completes
// rather than treat it as a hard failure.
func errNoLease(scopeKey string) error {
	return coorderr.NewLeaseConflict(scopeKey, "none (migration in progress)")
}
