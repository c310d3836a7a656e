package datatypes

import (
	"math"

	"library/crdtsim/communication"
	"library/crdtsim/crdt"

	"github.com/pkg/errors"
)

// Bounds of each side, so that any positive minus negative fits an int64.
const (
	maxPositive = math.MaxInt64
	maxNegative = math.MaxInt64 + 1
)

// PNCounter supports increments and decrements by keeping two grow-only
// counters, one for each sign.
type PNCounter struct {
	name     string
	positive *GCounter
	negative *GCounter
}

var _ crdt.Crdt[*PNCounter, int64] = (*PNCounter)(nil)

// initialize counter
func NewPNCounter(name string) *PNCounter {
	return &PNCounter{
		name:     name,
		positive: NewGCounter(name),
		negative: NewGCounter(name),
	}
}

// Increment routes non-negative deltas to the positive counter and the
// magnitude of negative ones to the negative counter. It fails with
// crdt.ErrInvalidArgument, leaving the state untouched, once a side would
// no longer keep Query within int64.
func (c *PNCounter) Increment(delta int) error {
	var err error
	if delta >= 0 {
		err = c.positive.add(uint64(delta), maxPositive)
	} else {
		// -(delta+1) cannot overflow for math.MinInt
		err = c.negative.add(uint64(-(delta+1))+1, maxNegative)
	}
	return errors.Wrapf(err, "pncounter %s", c.name)
}

func (c *PNCounter) Merge(other *PNCounter) {
	c.positive.Merge(other.positive)
	c.negative.Merge(other.negative)
}

func (c *PNCounter) Query() int64 {
	return int64(c.positive.Query() - c.negative.Query())
}

// Compare reports how other relates to the callee in the merge order. Both
// sides must agree, otherwise the states are concurrent.
func (c *PNCounter) Compare(other *PNCounter) communication.Condition {
	p, n := c.positive.Compare(other.positive), c.negative.Compare(other.negative)
	switch {
	case p == n, n == communication.Equal:
		return p
	case p == communication.Equal:
		return n
	}
	return communication.Concurrent
}

func (c *PNCounter) Name() string {
	return c.name
}

func (c *PNCounter) Clone() *PNCounter {
	return &PNCounter{
		name:     c.name,
		positive: c.positive.Clone(),
		negative: c.negative.Clone(),
	}
}

// Positive returns the counter of increments.
func (c *PNCounter) Positive() *GCounter {
	return c.positive
}

// Negative returns the counter of decrement magnitudes.
func (c *PNCounter) Negative() *GCounter {
	return c.negative
}

func (c *PNCounter) String() string {
	return c.name + "{+" + c.positive.counts.String() + " -" + c.negative.counts.String() + "}"
}
