package network

import (
	"testing"

	"library/crdtsim/crdt"
	"library/crdtsim/datatypes"
	"library/crdtsim/replica"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestP2PGCounterScenario(t *testing.T) {
	logger, buf := testLogger()
	n := NewP2PNetwork[*datatypes.GCounter, uint64](logger, nil)
	c := gcounters("A", "B", "C")
	a, b, _ := n.Add(c[0]), n.Add(c[1]), n.Add(c[2])
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 1, n.CountPartitions())

	require.NoError(t, c[0].Increment(1))
	require.NoError(t, c[1].Increment(2))
	require.NoError(t, c[2].Increment(3))
	assert.Equal(t, 3, n.CountPartitions())

	n.Broadcast(a)
	assert.Equal(t, uint64(1), c[0].Query())
	assert.Equal(t, uint64(3), c[1].Query())
	assert.Equal(t, uint64(4), c[2].Query())
	assert.Equal(t, 3, n.CountPartitions())

	n.BroadcastAll()
	for _, r := range c {
		assert.Equal(t, uint64(6), r.Query(), r.Name())
	}
	assert.Equal(t, 1, n.CountPartitions())

	n.Disconnect(b)
	require.NoError(t, c[0].Increment(10))
	n.BroadcastAll()
	assert.Equal(t, uint64(16), c[0].Query())
	assert.Equal(t, uint64(6), c[1].Query())
	assert.Equal(t, uint64(16), c[2].Query())
	assert.Equal(t, 2, n.CountPartitions())

	require.NoError(t, c[1].Increment(3))
	assert.Equal(t, 2, n.CountPartitions())

	n.Reconnect(b)
	n.BroadcastAll()
	assert.Equal(t, 1, n.CountPartitions())
	assert.Equal(t, uint64(19), c[0].Query())

	assert.Contains(t, buf.String(), `msg="disconnect replica from the network" replica=B slot=1`)
	assert.Contains(t, buf.String(), `msg="reconnecting replica to the network" replica=B slot=1`)
}

func TestP2PPNCounterScenario(t *testing.T) {
	n := NewP2PNetwork[*datatypes.PNCounter, int64](nil, nil)
	c := pncounters("A", "B", "C")
	a, b, _ := n.Add(c[0]), n.Add(c[1]), n.Add(c[2])

	require.NoError(t, c[0].Increment(-1))
	require.NoError(t, c[1].Increment(2))
	require.NoError(t, c[2].Increment(3))
	assert.Equal(t, int64(-1), c[0].Query())
	assert.Equal(t, int64(2), c[1].Query())
	assert.Equal(t, int64(3), c[2].Query())
	assert.Equal(t, 3, n.CountPartitions())

	n.Broadcast(a)
	assert.Equal(t, 3, n.CountPartitions())

	n.BroadcastAll()
	for _, r := range c {
		assert.Equal(t, int64(4), r.Query(), r.Name())
	}

	n.Disconnect(b)
	require.NoError(t, c[0].Increment(10))
	assert.Equal(t, int64(14), c[0].Query())

	n.BroadcastAll()
	assert.Equal(t, int64(14), c[0].Query())
	assert.Equal(t, int64(4), c[1].Query())
	assert.Equal(t, int64(14), c[2].Query())
	assert.Equal(t, 2, n.CountPartitions())

	require.NoError(t, c[1].Increment(-3))
	assert.Equal(t, 2, n.CountPartitions())

	n.Reconnect(b)
	n.BroadcastAll()
	for _, r := range c {
		assert.Equal(t, int64(11), r.Query(), r.Name())
	}
	assert.Equal(t, 1, n.CountPartitions())

	require.NoError(t, c[1].Increment(-12))
	n.Broadcast(b)
	assert.Equal(t, 1, n.CountPartitions())
	assert.Equal(t, int64(-1), c[0].Query())
}

func TestP2PBroadcastIsOneDirectional(t *testing.T) {
	n := NewP2PNetwork[*datatypes.GCounter, uint64](nil, nil)
	c := gcounters("A", "B")
	a, _ := n.Add(c[0]), n.Add(c[1])

	require.NoError(t, c[0].Increment(1))
	require.NoError(t, c[1].Increment(5))

	n.Broadcast(a)
	assert.Equal(t, uint64(1), c[0].Query())
	assert.Equal(t, uint64(6), c[1].Query())
	assert.Equal(t, map[string]uint64{"A": 1}, c[0].Counts())

	// peers merged the source state, they do not share it
	require.NoError(t, c[1].Increment(1))
	assert.Equal(t, uint64(1), c[0].Query())
	assert.Equal(t, map[string]uint64{"A": 1, "B": 6}, c[1].Counts())
}

func TestP2POfflineIsolation(t *testing.T) {
	m := testMetrics()
	n := NewP2PNetwork[*datatypes.PNCounter, int64](nil, m)
	c := pncounters("A", "B", "C")
	a, b, cc := n.Add(c[0]), n.Add(c[1]), n.Add(c[2])

	require.NoError(t, c[1].Increment(7))
	n.Disconnect(b)
	assert.Equal(t, replica.Offline, n.Status(b))
	assert.ElementsMatch(t, []int{b}, n.OfflineSlots().ToSlice())

	require.NoError(t, c[0].Increment(1))
	require.NoError(t, c[2].Increment(-2))
	n.BroadcastAll()
	n.Broadcast(a)
	n.Broadcast(cc)

	// the offline replica neither receives nor sends
	assert.Equal(t, int64(7), c[1].Query())
	assert.Equal(t, int64(-1), c[0].Query())
	assert.Equal(t, int64(-1), c[2].Query())

	// broadcasts from B are dropped while it is offline
	n.Broadcast(b)
	assert.Equal(t, int64(-1), c[0].Query())

	// disconnecting twice and reconnecting an online replica do nothing
	n.Disconnect(b)
	n.Reconnect(a)
	assert.Equal(t, float64(1), counterValue(t, m.Disconnects))
	assert.Equal(t, float64(0), counterValue(t, m.Reconnects))

	n.Reconnect(b)
	assert.Equal(t, replica.Active, n.Status(b))
	n.BroadcastAll()
	assert.Equal(t, 1, n.CountPartitions())
	assert.Equal(t, int64(6), c[1].Query())
	assert.Equal(t, float64(1), counterValue(t, m.Reconnects))
}

func TestP2PMetrics(t *testing.T) {
	m := testMetrics()
	n := NewP2PNetwork[*datatypes.GCounter, uint64](nil, m)
	for _, c := range gcounters("A", "B", "C") {
		n.Add(c)
	}

	n.BroadcastAll()
	assert.Equal(t, float64(3), counterValue(t, m.Broadcasts))
	assert.Equal(t, float64(6), counterValue(t, m.Merges))

	n.Disconnect(0)
	n.BroadcastAll()
	assert.Equal(t, float64(5), counterValue(t, m.Broadcasts))
	assert.Equal(t, float64(8), counterValue(t, m.Merges))
}

func TestP2PUnknownSlotPanics(t *testing.T) {
	n := NewP2PNetwork[*datatypes.GCounter, uint64](nil, nil)
	n.Add(datatypes.NewGCounter("A"))

	calls := map[string]func(){
		"broadcast":  func() { n.Broadcast(1) },
		"disconnect": func() { n.Disconnect(5) },
		"reconnect":  func() { n.Reconnect(-1) },
		"replica":    func() { n.Replica(2) },
	}

	for name, call := range calls {
		func() {
			defer func() {
				err, ok := recover().(error)
				require.True(t, ok, name)
				assert.True(t, errors.Is(err, crdt.ErrUnknownSlot), name)
			}()
			call()
		}()
	}
}

func TestP2PDump(t *testing.T) {
	logger, buf := testLogger()
	m := testMetrics()
	n := NewP2PNetwork[*datatypes.GCounter, uint64](logger, m)
	c := gcounters("A", "B")
	n.Add(c[0])
	b := n.Add(c[1])

	require.NoError(t, c[0].Increment(2))
	n.Disconnect(b)
	n.Dump()

	out := buf.String()
	assert.Contains(t, out, `msg="network state" online=1 offline=1 partitions=2`)
	assert.Contains(t, out, "msg=replica slot=0 replica=A status=online value=2")
	assert.Contains(t, out, "msg=replica slot=1 replica=B status=offline value=0")
	assert.Contains(t, out, `msg="replica state" replica=A`)
	assert.NotContains(t, out, "ALL CONVERGED!")
	assert.Equal(t, float64(2), m.Partitions.(interface{ Value() float64 }).Value())

	buf.Reset()
	n.Reconnect(b)
	n.BroadcastAll()
	n.Dump()
	assert.Contains(t, buf.String(), "ALL CONVERGED!")
}

func TestP2PEmptyNetwork(t *testing.T) {
	n := NewP2PNetwork[*datatypes.GCounter, uint64](nil, nil)
	assert.Equal(t, 0, n.CountPartitions())
	assert.Equal(t, 0, n.Len())
	n.BroadcastAll()
}
