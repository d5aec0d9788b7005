// Package lease maintains the authoritative lease set for scopes a
// consensus group owns: it answers "may I write path P at time T?" and
// implements renewal, release, delegation, fencing, and latency-driven
// migration.
//
// Import graph: coorderr <- lease.
package lease

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/marmos91/rhc-coord/pkg/hlc"
)

// DefaultDuration is the lease lifetime used when a caller does not
// request a specific duration. Renewal is recommended no later than 5s
// before expiry; the constant below is advisory, not protocol-enforced.
const (
	DefaultDuration        = 30 * time.Second
	RecommendedRenewMargin = 5 * time.Second
)

// ScopeKind discriminates the three shapes a lease can cover.
type ScopeKind int

const (
	// ScopeFile covers exactly one path.
	ScopeFile ScopeKind = iota
	// ScopeDirectory covers a path and, if Recursive, everything beneath it.
	ScopeDirectory
	// ScopeBlock covers an opaque block identifier unrelated to any path.
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeDirectory:
		return "directory"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Scope identifies what a lease covers: a file, a directory (optionally
// recursive), or an opaque block. Exactly one of Path or BlockID is
// meaningful, selected by Kind.
type Scope struct {
	Kind      ScopeKind
	Path      string
	Recursive bool
	BlockID   string
}

// FileScope returns a scope covering exactly path.
func FileScope(path string) Scope {
	return Scope{Kind: ScopeFile, Path: path}
}

// DirectoryScope returns a scope covering path, and everything beneath it
// when recursive is true.
func DirectoryScope(path string, recursive bool) Scope {
	return Scope{Kind: ScopeDirectory, Path: path, Recursive: recursive}
}

// BlockScope returns a scope covering the given opaque block id.
func BlockScope(blockID string) Scope {
	return Scope{Kind: ScopeBlock, BlockID: blockID}
}

// Key returns the stable string used to index this scope in the lease
// table and in the replicated LeaseStateCRDT.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeFile:
		return "file:" + s.Path
	case ScopeDirectory:
		return fmt.Sprintf("dir:%s:recursive=%t", s.Path, s.Recursive)
	case ScopeBlock:
		return "block:" + s.BlockID
	default:
		return "unknown"
	}
}

// Covers reports whether s covers path. Block scopes never cover a path.
func (s Scope) Covers(path string) bool {
	switch s.Kind {
	case ScopeFile:
		return s.Path == path
	case ScopeDirectory:
		if s.Recursive {
			return path == s.Path || strings.HasPrefix(path, s.Path+"/")
		}
		return parentOf(path) == s.Path
	default:
		return false
	}
}

// IsMoreSpecificThan reports whether s should win over other when both
// cover the same path: more path components wins; any File/Directory
// scope beats a Block scope (blocks are never path-comparable).
func (s Scope) IsMoreSpecificThan(other Scope) bool {
	if s.Kind == ScopeBlock {
		return false
	}
	if other.Kind == ScopeBlock {
		return true
	}
	return strings.Count(s.Path, "/") > strings.Count(other.Path, "/")
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// Lease grants write authority over a scope to a single holder for a
// bounded window of HLC time.
type Lease struct {
	ID           uuid.UUID
	Scope        Scope
	Holder       crdt.ActorId
	GrantedAt    hlc.Timestamp
	ExpiresAt    hlc.Timestamp
	RenewalCount uint32
	ParentLease  *uuid.UUID
	FenceTS      *hlc.Timestamp
}

// New constructs a fresh, unrenewed lease for scope granted to holder at
// grantedAt, expiring after duration of physical time.
func New(scope Scope, holder crdt.ActorId, grantedAt hlc.Timestamp, duration time.Duration) *Lease {
	return &Lease{
		ID:        uuid.New(),
		Scope:     scope,
		Holder:    holder,
		GrantedAt: grantedAt,
		ExpiresAt: hlc.Timestamp{Physical: grantedAt.Physical + uint64(duration.Milliseconds())},
	}
}

// IsExpired reports whether the lease has expired as of now.
func (l *Lease) IsExpired(now hlc.Timestamp) bool {
	return !now.Before(l.ExpiresAt)
}

// IsFenced reports whether now is strictly past a fence stamped on this
// lease: a read at the fence timestamp itself still sees the lease
// valid, only reads after it don't.
func (l *Lease) IsFenced(now hlc.Timestamp) bool {
	return l.FenceTS != nil && now.After(*l.FenceTS)
}

// IsValid reports whether the lease may be relied upon at time now:
// neither expired nor fenced.
func (l *Lease) IsValid(now hlc.Timestamp) bool {
	return !l.IsExpired(now) && !l.IsFenced(now)
}

// TimeRemaining returns how much physical time is left before expiry, or
// zero if already expired.
func (l *Lease) TimeRemaining(now hlc.Timestamp) time.Duration {
	if l.IsExpired(now) {
		return 0
	}
	return time.Duration(l.ExpiresAt.Physical-now.Physical) * time.Millisecond
}

// Renew extends the lease's expiry from now by duration and bumps its
// renewal count. Callers must check IsValid/holder identity first.
func (l *Lease) Renew(now hlc.Timestamp, duration time.Duration) {
	l.ExpiresAt = hlc.Timestamp{Physical: now.Physical + uint64(duration.Milliseconds())}
	l.RenewalCount++
}

// Delegate creates a child lease over subScope held by holder, clamped so
// it cannot outlive the parent.
func (l *Lease) Delegate(subScope Scope, holder crdt.ActorId, now hlc.Timestamp) *Lease {
	remaining := l.TimeRemaining(now)
	child := New(subScope, holder, now, remaining)
	parentID := l.ID
	child.ParentLease = &parentID
	return child
}

// Fence stamps fenceTS on the lease, cutting off its validity for any
// check performed strictly after fenceTS; a check at fenceTS itself
// still observes the lease as valid.
func (l *Lease) Fence(fenceTS hlc.Timestamp) {
	l.FenceTS = &fenceTS
}

// toCRDTEntry converts this lease into the payload replicated by
// LeaseStateCRDT, so the Manager can mirror every mutation into the
// replicated table alongside its own authoritative map.
func (l *Lease) toCRDTEntry() crdt.LeaseEntry {
	return crdt.LeaseEntry{
		Holder:    l.Holder,
		LeaseID:   l.ID.String(),
		GrantedAt: l.GrantedAt,
		ExpiresAt: l.ExpiresAt,
		IsActive:  true,
		FenceTS:   l.FenceTS,
	}
}
