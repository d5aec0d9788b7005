package hlc

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marmos91/rhc-coord/pkg/coorderr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampOrdering(t *testing.T) {
	a := Timestamp{Physical: 100, Logical: 5}
	b := Timestamp{Physical: 100, Logical: 6}
	c := Timestamp{Physical: 101, Logical: 0}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, c.After(a))
	assert.False(t, a.Before(a))
}

func TestTimestampString(t *testing.T) {
	ts := Timestamp{Physical: 42, Logical: 7}
	assert.Equal(t, "42:7", ts.String())
}

func TestZeroTimestamp(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, Timestamp{Physical: 1}.IsZero())
}

func TestNowMonotonicAdvancement(t *testing.T) {
	physical := uint64(1000)
	clk := NewWithClock(func() uint64 { return physical })

	first := clk.Now()
	assert.Equal(t, uint64(1000), first.Physical)
	assert.Equal(t, uint32(0), first.Logical)

	second := clk.Now()
	assert.Equal(t, uint64(1000), second.Physical)
	assert.Equal(t, uint32(1), second.Logical, "logical must increment when physical clock stalls")

	physical = 1001
	third := clk.Now()
	assert.Equal(t, uint64(1001), third.Physical)
	assert.Equal(t, uint32(0), third.Logical, "logical resets when physical advances")
}

func TestUpdateWithFutureTimestamp(t *testing.T) {
	physical := uint64(1000)
	clk := NewWithClock(func() uint64 { return physical })
	clk.Now()

	remote := Timestamp{Physical: 2000, Logical: 3}
	result, err := clk.Update(remote)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), result.Physical)
	assert.Equal(t, uint32(4), result.Logical)
}

func TestUpdateWithPastTimestampMaintainsMonotonicity(t *testing.T) {
	physical := uint64(5000)
	clk := NewWithClock(func() uint64 { return physical })
	local := clk.Now()

	remote := Timestamp{Physical: 1000, Logical: 99}
	result, err := clk.Update(remote)
	require.NoError(t, err)
	assert.True(t, result.After(local))
	assert.Equal(t, local.Physical, result.Physical)
}

func TestUpdateSamePhysicalTimeTakesMaxLogicalPlusOne(t *testing.T) {
	physical := uint64(3000)
	clk := NewWithClock(func() uint64 { return physical })
	local := clk.Now()
	require.Equal(t, uint32(0), local.Logical)

	remote := Timestamp{Physical: 3000, Logical: 10}
	result, err := clk.Update(remote)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), result.Physical)
	assert.Equal(t, uint32(11), result.Logical)
}

func TestUpdateClockDriftExceeded(t *testing.T) {
	physical := uint64(1000)
	clk := NewWithClock(func() uint64 { return physical })

	remote := Timestamp{Physical: physical + uint64(MaxClockDrift.Milliseconds()) + 1, Logical: 0}
	_, err := clk.Update(remote)
	require.Error(t, err)
	assert.True(t, coorderr.IsClockDriftExceeded(err))
}

func TestUpdateAtExactDriftBoundaryIsAccepted(t *testing.T) {
	physical := uint64(1000)
	clk := NewWithClock(func() uint64 { return physical })

	remote := Timestamp{Physical: physical + uint64(MaxClockDrift.Milliseconds()), Logical: 0}
	_, err := clk.Update(remote)
	require.NoError(t, err)
}

func TestLastTracksMostRecentTimestamp(t *testing.T) {
	physical := uint64(1000)
	clk := NewWithClock(func() uint64 { return physical })

	assert.True(t, clk.Last().IsZero())
	ts := clk.Now()
	assert.Equal(t, ts, clk.Last())
}

func TestAsTime(t *testing.T) {
	ts := Timestamp{Physical: 1_700_000_000_000, Logical: 0}
	assert.Equal(t, time.UnixMilli(1_700_000_000_000), ts.AsTime())
}

func TestConcurrentNodesProduceUniqueTimestamps(t *testing.T) {
	const nodes = 10
	const perNode = 100

	results := make([][]Timestamp, nodes)
	var wg sync.WaitGroup
	for n := 0; n < nodes; n++ {
		n := n
		clk := New()
		results[n] = make([]Timestamp, perNode)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perNode; i++ {
				results[n][i] = clk.Now()
			}
		}()
	}
	wg.Wait()

	for n := 0; n < nodes; n++ {
		seen := make(map[Timestamp]bool, perNode)
		for _, ts := range results[n] {
			assert.False(t, seen[ts], "duplicate timestamp on node %d: %v", n, ts)
			seen[ts] = true
		}
	}
}

func TestSingleNodeConcurrentThreadsNoDuplicates(t *testing.T) {
	const goroutines = 20
	const perGoroutine = 200

	clk := New()
	var mu sync.Mutex
	var all []Timestamp
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Timestamp, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				local[i] = clk.Now()
			}
			mu.Lock()
			all = append(all, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Before(all[i]), "timestamps must be strictly increasing once sorted")
	}
}

func TestUpdateConcurrentCallersStayMonotone(t *testing.T) {
	var physical atomic.Uint64
	physical.Store(1000)
	clk := NewWithClock(physical.Load)

	var wg sync.WaitGroup
	results := make(chan Timestamp, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			remote := Timestamp{Physical: 1000, Logical: uint32(i)}
			ts, err := clk.Update(remote)
			require.NoError(t, err)
			results <- ts
		}(i)
	}
	wg.Wait()
	close(results)

	seen := make(map[Timestamp]bool)
	for ts := range results {
		assert.False(t, seen[ts])
		seen[ts] = true
	}
}
