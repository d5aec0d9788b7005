package crdt

// PNCounter is a positive-negative counter: each actor maintains its own
// monotonically increasing positive and negative accumulators, and the
// counter's value is the sum of positive accumulators minus the sum of
// negative accumulators across all actors. Merge takes the per-actor
// pointwise maximum, which is idempotent, commutative, and associative
// because each actor's own accumulator only ever grows.
type PNCounter struct {
	positive map[ActorId]uint64
	negative map[ActorId]uint64
}

// NewPNCounter returns a zero-valued counter.
func NewPNCounter() *PNCounter {
	return &PNCounter{
		positive: make(map[ActorId]uint64),
		negative: make(map[ActorId]uint64),
	}
}

// Increment adds amount to actor's positive accumulator.
func (c *PNCounter) Increment(actor ActorId, amount uint64) {
	c.positive[actor] += amount
}

// Decrement adds amount to actor's negative accumulator.
func (c *PNCounter) Decrement(actor ActorId, amount uint64) {
	c.negative[actor] += amount
}

// Value returns the counter's current value.
func (c *PNCounter) Value() int64 {
	var pos, neg uint64
	for _, v := range c.positive {
		pos += v
	}
	for _, v := range c.negative {
		neg += v
	}
	return int64(pos) - int64(neg)
}

// PositiveCount returns actor's positive accumulator.
func (c *PNCounter) PositiveCount(actor ActorId) uint64 {
	return c.positive[actor]
}

// NegativeCount returns actor's negative accumulator.
func (c *PNCounter) NegativeCount(actor ActorId) uint64 {
	return c.negative[actor]
}

// Merge takes the pointwise maximum of each actor's accumulators with other.
func (c *PNCounter) Merge(other *PNCounter) {
	for actor, v := range other.positive {
		if v > c.positive[actor] {
			c.positive[actor] = v
		}
	}
	for actor, v := range other.negative {
		if v > c.negative[actor] {
			c.negative[actor] = v
		}
	}
}

// HappensBefore does not apply to a counter's scalar value; always false.
func (c *PNCounter) HappensBefore(other *PNCounter) bool {
	return false
}
