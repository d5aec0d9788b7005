package lease

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/rhc-coord/pkg/coorderr"
	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(physicalMs uint64) *Manager {
	clock := hlc.NewWithClock(func() uint64 { return physicalMs })
	return NewManager("node1", clock)
}

func TestScopeCoversFileDirectoryRecursiveAndNonRecursive(t *testing.T) {
	file := FileScope("/data/file.txt")
	assert.True(t, file.Covers("/data/file.txt"))
	assert.False(t, file.Covers("/data/other.txt"))

	recursive := DirectoryScope("/data", true)
	assert.True(t, recursive.Covers("/data/file.txt"))
	assert.True(t, recursive.Covers("/data/subdir/file.txt"))
	assert.False(t, recursive.Covers("/other/file.txt"))

	nonRecursive := DirectoryScope("/data", false)
	assert.True(t, nonRecursive.Covers("/data/file.txt"))
	assert.False(t, nonRecursive.Covers("/data/subdir/file.txt"))
}

func TestScopeSpecificityOrdering(t *testing.T) {
	dir := DirectoryScope("/data", true)
	file := FileScope("/data/sub/file.txt")
	assert.True(t, file.IsMoreSpecificThan(dir))
	assert.False(t, dir.IsMoreSpecificThan(file))

	block := BlockScope("block-1")
	assert.True(t, file.IsMoreSpecificThan(block))
	assert.False(t, block.IsMoreSpecificThan(file))
}

func TestAcquireRejectsConflictingHolder(t *testing.T) {
	m := newTestManager(1000)
	scope := FileScope("/data/file.txt")

	_, err := m.Acquire(scope, "node1", DefaultDuration)
	require.NoError(t, err)

	_, err = m.Acquire(scope, "node2", DefaultDuration)
	require.Error(t, err)
	assert.True(t, coorderr.IsLeaseConflict(err))
}

func TestAcquireSameHolderIsIdempotentInEffect(t *testing.T) {
	m := newTestManager(1000)
	scope := FileScope("/data/file.txt")

	l1, err := m.Acquire(scope, "node1", DefaultDuration)
	require.NoError(t, err)
	assert.True(t, m.CanWrite("/data/file.txt"))
	_ = l1
}

func TestRenewOnlyHolderExtendsExpiry(t *testing.T) {
	m := newTestManager(1000)
	l, err := m.Acquire(FileScope("/data/file.txt"), "node1", DefaultDuration)
	require.NoError(t, err)

	_, err = m.Renew(l.ID, "node2", DefaultDuration)
	require.Error(t, err)
	assert.True(t, coorderr.IsUnauthorized(err))

	renewed, err := m.Renew(l.ID, "node1", DefaultDuration)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), renewed.RenewalCount)
}

func TestRenewExpiredLeaseFails(t *testing.T) {
	clock := hlc.NewWithClock(func() uint64 { return 1000 })
	m := NewManager("node1", clock)
	l, err := m.Acquire(FileScope("/data/file.txt"), "node1", time.Millisecond)
	require.NoError(t, err)

	clock2 := hlc.NewWithClock(func() uint64 { return 5000 })
	m.clock = clock2

	_, err = m.Renew(l.ID, "node1", DefaultDuration)
	require.Error(t, err)
	assert.True(t, coorderr.IsLeaseExpired(err))
}

func TestReleaseIsHolderOnly(t *testing.T) {
	m := newTestManager(1000)
	l, err := m.Acquire(FileScope("/data/file.txt"), "node1", DefaultDuration)
	require.NoError(t, err)

	err = m.Release(l.ID, "node2")
	require.Error(t, err)
	assert.True(t, coorderr.IsUnauthorized(err))

	require.NoError(t, m.Release(l.ID, "node1"))
	_, ok := m.IsValid(FileScope("/data/file.txt"), m.Now())
	assert.False(t, ok)
}

func TestDelegateClampsToParentExpiry(t *testing.T) {
	m := newTestManager(1000)
	parent, err := m.Acquire(DirectoryScope("/data", true), "node1", 10*time.Second)
	require.NoError(t, err)

	child, err := m.Delegate(parent.ID, FileScope("/data/file.txt"), "node2")
	require.NoError(t, err)
	assert.LessOrEqual(t, child.ExpiresAt.Physical, parent.ExpiresAt.Physical)
	assert.Equal(t, parent.ID, *child.ParentLease)
}

func TestFenceInvalidatesLeaseAfterFenceTimestamp(t *testing.T) {
	m := newTestManager(1000)
	_, err := m.Acquire(FileScope("/data/file.txt"), "node1", 30*time.Second)
	require.NoError(t, err)

	fenceTS := hlc.Timestamp{Physical: 2000}
	require.NoError(t, m.Fence(FileScope("/data/file.txt"), fenceTS))

	_, ok := m.IsValid(FileScope("/data/file.txt"), hlc.Timestamp{Physical: 1500})
	assert.True(t, ok)

	_, ok = m.IsValid(FileScope("/data/file.txt"), hlc.Timestamp{Physical: 2500})
	assert.False(t, ok)
}

func TestCanWriteReflectsSpecificityWins(t *testing.T) {
	m := newTestManager(1000)
	_, err := m.Acquire(DirectoryScope("/data", true), "other", 30*time.Second)
	require.NoError(t, err)
	_, err = m.Acquire(FileScope("/data/file.txt"), "node1", 30*time.Second)
	require.NoError(t, err)

	assert.True(t, m.CanWrite("/data/file.txt"))
	assert.False(t, m.CanWrite("/data/other.txt"))
}

type fakeCommitter struct {
	ts  []hlc.Timestamp
	err error
	i   int
}

func (f *fakeCommitter) Commit(ctx context.Context, value []byte) (hlc.Timestamp, error) {
	if f.err != nil {
		return hlc.Timestamp{}, f.err
	}
	ts := f.ts[f.i]
	f.i++
	return ts, nil
}

func TestMigrateInFencesThenGrants(t *testing.T) {
	clock := hlc.NewWithClock(func() uint64 { return 1000 })
	m := NewManager("node-new", clock)
	_, err := m.Acquire(FileScope("/data/file.txt"), "node-old", 30*time.Second)
	require.NoError(t, err)

	committer := &fakeCommitter{ts: []hlc.Timestamp{clock.Now(), clock.Now()}}
	l, err := m.MigrateIn(context.Background(), FileScope("/data/file.txt"), "node-new", 30*time.Second, committer, []byte("fence"), []byte("grant"))
	require.NoError(t, err)
	assert.Equal(t, "node-new", string(l.Holder))
	assert.True(t, m.CanWrite("/data/file.txt"))
}

func TestShouldMigrateAdaptsSampleCountToLatencyFactor(t *testing.T) {
	m := newTestManager(1000)
	scope := FileScope("/data/hot.txt")

	for i := 0; i < 2; i++ {
		m.RecordWriteLatency(scope, 100)
	}
	assert.False(t, m.ShouldMigrate(scope, 10), "2 samples at 10x should not yet trigger the 3-sample threshold")

	m.RecordWriteLatency(scope, 100)
	assert.True(t, m.ShouldMigrate(scope, 10), "3 samples at 10x should trigger migration")
}

func TestShouldMigrateBelowThresholdFactorNeverTriggers(t *testing.T) {
	m := newTestManager(1000)
	scope := FileScope("/data/mild.txt")
	for i := 0; i < 20; i++ {
		m.RecordWriteLatency(scope, 15)
	}
	assert.False(t, m.ShouldMigrate(scope, 10), "1.5x is below the minimum migration factor of 2")
}
