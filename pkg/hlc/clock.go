// Package hlc implements a hybrid logical clock: a (physical, logical) pair
// that provides strict monotonicity on a single node and causality tracking
// across nodes, without requiring synchronized wall clocks.
package hlc

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/marmos91/rhc-coord/pkg/coorderr"
)

// MaxClockDrift bounds how far a remote timestamp's physical component may
// lead the local physical clock before Update refuses it.
const MaxClockDrift = 60 * time.Second

// Timestamp is a single hybrid logical clock reading. Physical is
// milliseconds since the Unix epoch; Logical disambiguates events that share
// a physical millisecond.
type Timestamp struct {
	Physical uint64
	Logical  uint32
}

// Zero is the timestamp before which no real event can occur.
var Zero = Timestamp{}

// IsZero reports whether t is the zero timestamp.
func (t Timestamp) IsZero() bool {
	return t.Physical == 0 && t.Logical == 0
}

// Before reports whether t happened strictly before other under the
// lexicographic (physical, logical) order.
func (t Timestamp) Before(other Timestamp) bool {
	if t.Physical != other.Physical {
		return t.Physical < other.Physical
	}
	return t.Logical < other.Logical
}

// After reports whether t happened strictly after other.
func (t Timestamp) After(other Timestamp) bool {
	return other.Before(t)
}

// AsTime converts the physical component to a time.Time, discarding the
// logical component.
func (t Timestamp) AsTime() time.Time {
	return time.UnixMilli(int64(t.Physical))
}

// IsWithinDrift reports whether t's physical component does not exceed
// nowMs by more than MaxClockDrift.
func (t Timestamp) IsWithinDrift(nowMs uint64) bool {
	if t.Physical <= nowMs {
		return true
	}
	return t.Physical-nowMs <= uint64(MaxClockDrift.Milliseconds())
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d:%d", t.Physical, t.Logical)
}

// Clock is an injectable source of physical milliseconds, allowing tests to
// supply a deterministic clock function in place of wall time.
type Clock func() uint64

func systemClock() uint64 {
	return uint64(time.Now().UnixMilli())
}

// HLC is a single node's hybrid logical clock. The zero value is not usable;
// construct with New or NewWithClock.
type HLC struct {
	lastPhysical atomic.Uint64
	lastLogical  atomic.Uint64
	clock        Clock
}

// New returns an HLC driven by the system wall clock.
func New() *HLC {
	return NewWithClock(systemClock)
}

// NewWithClock returns an HLC driven by the supplied clock function. Tests
// use this to pin physical time to deterministic values.
func NewWithClock(clock Clock) *HLC {
	return &HLC{clock: clock}
}

func (h *HLC) physicalNow() uint64 {
	return h.clock()
}

// Now advances the clock and returns a new timestamp strictly greater than
// every timestamp previously returned by Now or accepted by Update on this
// node.
func (h *HLC) Now() Timestamp {
	for {
		physicalNow := h.physicalNow()
		lastPhysical := h.lastPhysical.Load()

		if physicalNow > lastPhysical {
			if h.lastPhysical.CompareAndSwap(lastPhysical, physicalNow) {
				h.lastLogical.Store(0)
				return Timestamp{Physical: physicalNow, Logical: 0}
			}
			continue
		}

		newLogical := h.lastLogical.Add(1)
		// physicalNow did not advance past lastPhysical; if another
		// goroutine moved lastPhysical forward between our load and here,
		// restart rather than return a timestamp under a stale physical.
		if h.lastPhysical.Load() != lastPhysical {
			continue
		}
		return Timestamp{Physical: lastPhysical, Logical: uint32(newLogical)}
	}
}

// Update merges a remote timestamp into this clock's state, returning the
// new local timestamp for the receive event. It returns a ClockDriftExceeded
// error if remote's physical component leads the local physical clock by
// more than MaxClockDrift, without advancing any internal state.
func (h *HLC) Update(remote Timestamp) (Timestamp, error) {
	physicalNow := h.physicalNow()
	if !remote.IsWithinDrift(physicalNow) {
		return Timestamp{}, coorderr.NewClockDriftExceeded("", remote.Physical, physicalNow, uint64(MaxClockDrift.Milliseconds()))
	}

	for {
		lastPhysical := h.lastPhysical.Load()
		lastLogical := h.lastLogical.Load()

		maxPhysical := physicalNow
		if remote.Physical > maxPhysical {
			maxPhysical = remote.Physical
		}
		if lastPhysical > maxPhysical {
			maxPhysical = lastPhysical
		}

		var newLogical uint64
		switch {
		case maxPhysical == physicalNow && maxPhysical == remote.Physical && maxPhysical == lastPhysical:
			newLogical = max64(uint64(remote.Logical), lastLogical) + 1
		case maxPhysical == physicalNow && maxPhysical == remote.Physical:
			newLogical = uint64(remote.Logical) + 1
		case maxPhysical == physicalNow:
			newLogical = 0
		case maxPhysical == remote.Physical:
			newLogical = uint64(remote.Logical) + 1
		default:
			newLogical = lastLogical + 1
		}

		if h.lastPhysical.CompareAndSwap(lastPhysical, maxPhysical) {
			finalLogical := newLogical
			if maxPhysical == lastPhysical {
				// Physical component did not change; another update may
				// have bumped the logical counter between our load and
				// this CAS, so stay monotone relative to it too.
				current := h.lastLogical.Load()
				finalLogical = max64(newLogical, current+1)
			}
			h.lastLogical.Store(finalLogical)
			return Timestamp{Physical: maxPhysical, Logical: uint32(finalLogical)}, nil
		}
		// Another goroutine raced the CAS; retry with fresh state.
	}
}

// Last returns the most recent timestamp issued by Now or Update, without
// advancing the clock.
func (h *HLC) Last() Timestamp {
	for {
		physical := h.lastPhysical.Load()
		logical := h.lastLogical.Load()
		if h.lastPhysical.Load() == physical {
			return Timestamp{Physical: physical, Logical: uint32(logical)}
		}
	}
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
