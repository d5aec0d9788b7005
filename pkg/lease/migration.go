package lease

import (
	"context"
	"time"

	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/marmos91/rhc-coord/pkg/hlc"
)

// maxRecentSamples bounds how many recent write-latency samples a
// latencyTracker retains per scope.
const maxRecentSamples = 10

// latencyTracker accumulates write-latency observations for a single
// scope, used to decide whether a non-holder should request migration.
type latencyTracker struct {
	count   uint64
	totalMs uint64
	recent  []uint64
}

func newLatencyTracker() *latencyTracker {
	return &latencyTracker{recent: make([]uint64, 0, maxRecentSamples)}
}

func (t *latencyTracker) record(latencyMs uint64) {
	t.count++
	t.totalMs += latencyMs
	t.recent = append(t.recent, latencyMs)
	if len(t.recent) > maxRecentSamples {
		t.recent = t.recent[1:]
	}
}

func (t *latencyTracker) recentAverageMs() float64 {
	if len(t.recent) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range t.recent {
		sum += v
	}
	return float64(sum) / float64(len(t.recent))
}

// RecordWriteLatency records a single observed write latency (in
// milliseconds) for scope, to be weighed by ShouldMigrate.
func (m *Manager) RecordWriteLatency(scope Scope, latencyMs uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scope.Key()
	t, ok := m.latencies[key]
	if !ok {
		t = newLatencyTracker()
		m.latencies[key] = t
	}
	t.record(latencyMs)
}

// ShouldMigrate reports whether the average of the most recent write
// latencies recorded against scope is far enough above
// localLatencyFloorMs, over enough recent samples, to justify requesting
// a migration. The required sample count adapts to how much slower the
// remote writes are: the more extreme the slowdown, the fewer samples are
// required before acting.
func (m *Manager) ShouldMigrate(scope Scope, localLatencyFloorMs float64) bool {
	if localLatencyFloorMs <= 0 {
		return false
	}

	m.mu.RLock()
	t, ok := m.latencies[scope.Key()]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	factor := t.recentAverageMs() / localLatencyFloorMs
	required := requiredSamples(factor)
	if required == 0 {
		return false
	}
	return len(t.recent) >= required
}

// requiredSamples implements the adaptive sample-count table: the
// steeper the latency factor k, the fewer recent samples are
// required before a migration is justified. Returns 0 if k is below the
// minimum migration threshold (k < 2).
func requiredSamples(k float64) int {
	switch {
	case k >= 10:
		return 3
	case k >= 5:
		return 5
	case k >= 2:
		return 10
	default:
		return 0
	}
}

// Committer proposes a value to the consensus group owning a scope and
// blocks until it commits, returning the commit's HLC timestamp. It is
// satisfied by *consensus.Group; kept as a narrow interface here so
// pkg/lease does not depend on pkg/consensus.
type Committer interface {
	Commit(ctx context.Context, value []byte) (hlc.Timestamp, error)
}

// MigrateIn runs the three-step fence -> commit -> grant protocol to pull
// scope's lease onto self. fenceValue and grantValue are the opaque
// consensus payloads the caller has already encoded (via pkg/wire) for
// the fence and grant operations respectively; committer submits both to
// the CG that owns scope.
//
// Between the fence committing and the grant committing, CanWrite and
// IsValid correctly report no valid holder for scope: callers must
// surface that window as a transient NoLease condition rather than a
// hard failure.
func (m *Manager) MigrateIn(ctx context.Context, scope Scope, self crdt.ActorId, duration time.Duration, committer Committer, fenceValue, grantValue []byte) (*Lease, error) {
	fenceTS, err := committer.Commit(ctx, fenceValue)
	if err != nil {
		return nil, err
	}
	if err := m.Fence(scope, fenceTS); err != nil {
		return nil, err
	}

	grantTS, err := committer.Commit(ctx, grantValue)
	if err != nil {
		return nil, errNoLease(scope.Key())
	}
	if !grantTS.After(fenceTS) {
		return nil, errNoLease(scope.Key())
	}

	return m.Acquire(scope, self, duration)
}
