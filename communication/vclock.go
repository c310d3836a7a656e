package communication

import (
	"bytes"
	"fmt"
	"math"

	"library/crdtsim/utils"
)

// Condition constants define how to compare a vector clock against another,
// and may be ORed together when being provided to the Compare method.
type Condition int

// Constants define comparison conditions between pairs of vector
// clocks
const (
	Equal Condition = 1 << iota
	Ancestor
	Descendant
	Concurrent
)

func (c Condition) String() string {
	switch c {
	case Equal:
		return "equal"
	case Ancestor:
		return "ancestor"
	case Descendant:
		return "descendant"
	case Concurrent:
		return "concurrent"
	}
	return fmt.Sprintf("Condition(%d)", int(c))
}

// VClock are maps of string to uint64 where the string is the
// id of the replica, and the uint64 is the value it accumulated
type VClock map[string]uint64

// New returns a new vector clock
func NewVClock() VClock {
	return VClock{}
}

func InitVClock(ids []string) VClock {
	vc := NewVClock()
	for _, i := range ids {
		vc[i] = 0
	}
	return vc
}

// Copy returns a copy of the clock
func (vc VClock) Copy() VClock {
	cp := make(map[string]uint64, len(vc))
	for key, value := range vc {
		cp[key] = value
	}
	return cp
}

// GetMap returns the map typed vector clock
func (vc VClock) GetMap() map[string]uint64 {
	return map[string]uint64(vc)
}

// Add advances the entry of id by delta, creating it at zero first.
// Callers bound delta so the entry cannot wrap.
func (vc VClock) Add(id string, delta uint64) {
	vc[id] = vc[id] + delta
}

// Sum returns the total of all entries, saturating at math.MaxUint64
func (vc VClock) Sum() (sum uint64) {
	for _, ticks := range vc {
		if ticks > math.MaxUint64-sum {
			return math.MaxUint64
		}
		sum += ticks
	}
	return sum
}

// Merge takes the max of all clock values in other and updates the
// values of the callee
func (vc VClock) Merge(other VClock) {
	for id := range other {
		if cur, ok := vc[id]; !ok || cur < other[id] {
			vc[id] = other[id]
		}
	}
}

// String returns a string encoding of a vector clock, ordered by id
func (vc VClock) String() string {
	ids := utils.SortedKeys(vc)

	var buffer bytes.Buffer
	buffer.WriteString("{")
	for i := range ids {
		buffer.WriteString(fmt.Sprintf("\"%s\":%d", ids[i], vc[ids[i]]))
		if i+1 < len(ids) {
			buffer.WriteString(", ")
		}
	}
	buffer.WriteString("}")
	return buffer.String()
}

// Compare takes another clock and determines if it is Equal,
// Ancestor, Descendant, or Concurrent with the callee's clock.
// Missing entries count as zero.
func (vc VClock) Compare(other VClock) Condition {
	otherIs := Equal

	step := func(mine, theirs uint64) bool {
		if theirs > mine {
			if otherIs == Ancestor {
				return false
			}
			otherIs = Descendant
		} else if theirs < mine {
			if otherIs == Descendant {
				return false
			}
			otherIs = Ancestor
		}
		return true
	}

	for id, theirs := range other {
		if !step(vc[id], theirs) {
			return Concurrent
		}
	}

	for id, mine := range vc {
		if _, found := other[id]; found {
			continue
		}
		if !step(mine, 0) {
			return Concurrent
		}
	}

	return otherIs
}
