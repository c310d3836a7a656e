package communication

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVClockMerge(t *testing.T) {
	a := VClock{"A": 1, "B": 1, "D": 4}
	b := VClock{"A": 2, "C": 3}

	a.Merge(b)
	assert.Equal(t, VClock{"A": 2, "B": 1, "C": 3, "D": 4}, a)

	b.Merge(a)
	assert.Equal(t, Equal, a.Compare(b))

	// merging again changes nothing
	before := a.Copy()
	a.Merge(b)
	a.Merge(a)
	assert.Equal(t, before, a)
}

func TestVClockCompare(t *testing.T) {
	cases := []struct {
		mine, other VClock
		want        Condition
	}{
		{VClock{}, VClock{}, Equal},
		{VClock{"A": 0}, VClock{}, Equal},
		{VClock{"A": 1}, VClock{"A": 1}, Equal},
		{VClock{"A": 1}, VClock{"A": 2}, Descendant},
		{VClock{"A": 1}, VClock{"A": 1, "B": 1}, Descendant},
		{VClock{"A": 2, "B": 1}, VClock{"A": 1}, Ancestor},
		{VClock{"A": 2}, VClock{"B": 1}, Concurrent},
		{VClock{"A": 2, "B": 0}, VClock{"A": 1, "B": 1}, Concurrent},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.mine.Compare(c.other), "%v vs %v", c.mine, c.other)
	}

	assert.Equal(t, "descendant", Descendant.String())
	assert.Equal(t, "Condition(3)", Condition(3).String())
}

func TestVClockAddAndSum(t *testing.T) {
	vc := InitVClock([]string{"A", "B"})
	assert.Equal(t, uint64(0), vc.Sum())

	vc.Add("A", 5)
	vc.Add("B", 1)
	vc.Add("C", 2)

	assert.Equal(t, uint64(8), vc.Sum())
	assert.Equal(t, `{"A":5, "B":1, "C":2}`, vc.String())
}

func TestVClockSumSaturates(t *testing.T) {
	vc := VClock{"A": math.MaxUint64 - 1, "B": 1}
	assert.Equal(t, uint64(math.MaxUint64), vc.Sum())

	// joining two full entries stays at the top instead of wrapping
	vc.Merge(VClock{"C": math.MaxUint64})
	assert.Equal(t, uint64(math.MaxUint64), vc.Sum())
}

func TestVClockCopyIsIndependent(t *testing.T) {
	vc := VClock{"A": 1}
	cp := vc.Copy()
	cp.Add("A", 6)

	assert.Equal(t, uint64(1), vc["A"])
	assert.Equal(t, uint64(7), cp.GetMap()["A"])
}
