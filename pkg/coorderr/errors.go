// Package coorderr provides the error taxonomy shared by the lease manager
// and consensus group. This is a leaf package with no internal dependencies,
// designed to be imported by pkg/lease and pkg/consensus without causing
// circular imports.
//
// Import graph: coorderr <- lease <- node
//               coorderr <- consensus <- node
package coorderr

import "fmt"

// Code identifies the kind of coordination failure that occurred. The eight
// kinds are non-overlapping: a caller can always determine the correct
// recovery action from Code alone, without parsing Message.
type Code int

const (
	// LeaseConflict indicates a lease acquisition lost to an existing,
	// equally or more specific lease.
	LeaseConflict Code = iota + 1

	// LeaseExpired indicates an operation was attempted against a lease
	// whose expires_at has already passed.
	LeaseExpired

	// Unauthorized indicates the caller is not the holder of the lease or
	// delegation it is trying to act on.
	Unauthorized

	// NotFound indicates the referenced lease, round, or key does not exist.
	NotFound

	// InsufficientShares indicates a threshold signature could not be
	// aggregated because fewer than tau shares were collected.
	InsufficientShares

	// ClockDriftExceeded indicates a remote HLC timestamp fell further than
	// MaxClockDrift ahead of the local physical clock.
	ClockDriftExceeded

	// NetworkPartition indicates the caller's view of the consensus group
	// cannot reach the threshold of reachable members required to proceed.
	NetworkPartition

	// ByzantineFault indicates equivocation or an invalid signature was
	// observed from a peer.
	ByzantineFault
)

func (c Code) String() string {
	switch c {
	case LeaseConflict:
		return "LeaseConflict"
	case LeaseExpired:
		return "LeaseExpired"
	case Unauthorized:
		return "Unauthorized"
	case NotFound:
		return "NotFound"
	case InsufficientShares:
		return "InsufficientShares"
	case ClockDriftExceeded:
		return "ClockDriftExceeded"
	case NetworkPartition:
		return "NetworkPartition"
	case ByzantineFault:
		return "ByzantineFault"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the concrete error type returned across the coordination core.
// Subject identifies the lease ID, round number, or key the error concerns;
// it is empty when not applicable.
type Error struct {
	Code    Code
	Message string
	Subject string
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes Error compatible with errors.Is against sentinels built from the
// same Code, regardless of Message/Subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, subject string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Subject: subject}
}

func NewLeaseConflict(subject string, existing string) *Error {
	return New(LeaseConflict, subject, "lease held by a more specific or equal scope: %s", existing)
}

func NewLeaseExpired(subject string) *Error {
	return New(LeaseExpired, subject, "lease has expired")
}

func NewUnauthorized(subject string, holder string) *Error {
	return New(Unauthorized, subject, "caller is not the lease holder (held by %s)", holder)
}

func NewNotFound(subject string, kind string) *Error {
	return New(NotFound, subject, "%s not found", kind)
}

func NewInsufficientShares(subject string, have, need int) *Error {
	return New(InsufficientShares, subject, "have %d shares, need %d", have, need)
}

func NewClockDriftExceeded(subject string, remotePhysical, localPhysical, maxDriftMs uint64) *Error {
	return New(ClockDriftExceeded, subject, "remote physical %d exceeds local physical %d by more than %dms",
		remotePhysical, localPhysical, maxDriftMs)
}

func NewNetworkPartition(subject string, reachable, required int) *Error {
	return New(NetworkPartition, subject, "only %d of %d required members reachable", reachable, required)
}

func NewByzantineFault(subject string, reason string) *Error {
	return New(ByzantineFault, subject, "%s", reason)
}

// Is* helpers let callers branch on error kind without importing Code directly.

func IsLeaseConflict(err error) bool     { return hasCode(err, LeaseConflict) }
func IsLeaseExpired(err error) bool      { return hasCode(err, LeaseExpired) }
func IsUnauthorized(err error) bool      { return hasCode(err, Unauthorized) }
func IsNotFound(err error) bool          { return hasCode(err, NotFound) }
func IsInsufficientShares(err error) bool { return hasCode(err, InsufficientShares) }
func IsClockDriftExceeded(err error) bool { return hasCode(err, ClockDriftExceeded) }
func IsNetworkPartition(err error) bool  { return hasCode(err, NetworkPartition) }
func IsByzantineFault(err error) bool    { return hasCode(err, ByzantineFault) }

func hasCode(err error, code Code) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code == code
}
