package network

import (
	"bytes"
	"testing"

	"library/crdtsim/datatypes"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMetrics returns metrics backed by in-memory counters.
func testMetrics() *Metrics {
	return &Metrics{
		Broadcasts:   generic.NewCounter("broadcasts"),
		Merges:       generic.NewCounter("merges"),
		Syncs:        generic.NewCounter("syncs"),
		SyncFailures: generic.NewCounter("sync_failures"),
		Disconnects:  generic.NewCounter("disconnects"),
		Reconnects:   generic.NewCounter("reconnects"),
		Partitions:   generic.NewGauge("partitions"),
	}
}

func counterValue(t *testing.T, m interface{}) float64 {
	c, ok := m.(*generic.Counter)
	require.True(t, ok)
	return c.Value()
}

func testLogger() (log.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return log.NewLogfmtLogger(buf), buf
}

func gcounters(names ...string) []*datatypes.GCounter {
	counters := make([]*datatypes.GCounter, len(names))
	for i, name := range names {
		counters[i] = datatypes.NewGCounter(name)
	}
	return counters
}

func pncounters(names ...string) []*datatypes.PNCounter {
	counters := make([]*datatypes.PNCounter, len(names))
	for i, name := range names {
		counters[i] = datatypes.NewPNCounter(name)
	}
	return counters
}

func TestDumpLogsMergeOrder(t *testing.T) {
	logger, buf := testLogger()
	n := NewP2PNetwork[*datatypes.GCounter, uint64](logger, nil)
	c := gcounters("A", "B", "C", "D")

	a, _, _ := n.Add(c[0]), n.Add(c[1]), n.Add(c[2])
	require.NoError(t, c[0].Increment(2))
	n.Broadcast(a)
	require.NoError(t, c[1].Increment(1))

	n.Add(c[3])
	require.NoError(t, c[3].Increment(1))

	n.Dump()

	out := buf.String()
	assert.Contains(t, out, `msg="replica order" replica=B reference=A order=descendant`)
	assert.Contains(t, out, `msg="replica order" replica=C reference=A order=equal`)
	assert.Contains(t, out, `msg="replica order" replica=D reference=A order=concurrent`)
	assert.NotContains(t, out, "replica=A reference=A")
}

func TestDumpLogsMergeOrderOfPNCounters(t *testing.T) {
	logger, buf := testLogger()
	n := NewStarNetwork[*datatypes.PNCounter, int64](logger, nil)
	c := pncounters("S", "A")

	n.SetServerReplica(c[0])
	n.Add(c[1])
	require.NoError(t, c[0].Increment(-3))
	n.Disconnect(0)

	n.Dump()

	// online replicas come first, so the offline server is compared to A
	assert.Contains(t, buf.String(), `msg="replica order" replica=S reference=A order=descendant`)
}
