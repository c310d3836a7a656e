package datatypes

import (
	"math"

	"library/crdtsim/communication"
	"library/crdtsim/crdt"

	"github.com/pkg/errors"
)

// GCounter is a state-based grow-only counter. Every replica owns one entry
// of the clock and only ever advances its own; merge takes the per-entry max.
type GCounter struct {
	name   string
	counts communication.VClock
}

var _ crdt.Crdt[*GCounter, uint64] = (*GCounter)(nil)

// initialize counter replica
func NewGCounter(name string) *GCounter {
	return &GCounter{
		name:   name,
		counts: communication.InitVClock([]string{name}),
	}
}

// Increment adds delta to the entry of this replica. Negative deltas and
// deltas that would take the value past math.MaxUint64 are rejected and
// leave the state untouched.
func (c *GCounter) Increment(delta int) error {
	if delta < 0 {
		return errors.Wrapf(crdt.ErrInvalidArgument, "gcounter %s: negative increment %d", c.name, delta)
	}
	return c.add(uint64(delta), math.MaxUint64)
}

// add advances the own entry by delta as long as the local value stays
// within limit. The own entry never exceeds the value, so it cannot wrap.
func (c *GCounter) add(delta, limit uint64) error {
	if sum := c.counts.Sum(); sum > limit || delta > limit-sum {
		return errors.Wrapf(crdt.ErrInvalidArgument, "gcounter %s: increment %d overflows value %d", c.name, delta, sum)
	}
	c.counts.Add(c.name, delta)
	return nil
}

func (c *GCounter) Merge(other *GCounter) {
	c.counts.Merge(other.counts)
}

func (c *GCounter) Query() uint64 {
	return c.counts.Sum()
}

func (c *GCounter) Name() string {
	return c.name
}

func (c *GCounter) Clone() *GCounter {
	return &GCounter{
		name:   c.name,
		counts: c.counts.Copy(),
	}
}

// Counts returns a copy of the per-replica entries.
func (c *GCounter) Counts() map[string]uint64 {
	return c.counts.Copy().GetMap()
}

// Compare reports how other relates to the callee in the merge order.
func (c *GCounter) Compare(other *GCounter) communication.Condition {
	return c.counts.Compare(other.counts)
}

func (c *GCounter) String() string {
	return c.name + c.counts.String()
}
