package scenario

import (
	"library/crdtsim/datatypes"
	"library/crdtsim/network"

	"github.com/go-kit/kit/log"
)

func gcounterQuery(c []*datatypes.GCounter) ([]named, func(int) uint64) {
	n := make([]named, len(c))
	for i := range c {
		n[i] = c[i]
	}
	return n, func(i int) uint64 { return c[i].Query() }
}

func pncounterQuery(c []*datatypes.PNCounter) ([]named, func(int) int64) {
	n := make([]named, len(c))
	for i := range c {
		n[i] = c[i]
	}
	return n, func(i int) int64 { return c[i].Query() }
}

type incrementer interface {
	Increment(delta int) error
}

// mustIncrement is for deltas known to be valid.
func mustIncrement(c incrementer, delta int) {
	if err := c.Increment(delta); err != nil {
		panic(err)
	}
}

// GCounterP2P diverges three grow-only counters and heals them by gossip.
func GCounterP2P(logger log.Logger, m *network.Metrics) error {

	s := &step{scenario: "gcounter-p2p"}
	net := network.NewP2PNetwork[*datatypes.GCounter, uint64](logger, m)
	c := []*datatypes.GCounter{datatypes.NewGCounter("A"), datatypes.NewGCounter("B"), datatypes.NewGCounter("C")}
	names, query := gcounterQuery(c)

	a, b := net.Add(c[0]), net.Add(c[1])
	net.Add(c[2])
	net.Dump()
	s.check("initial", expectQueries(names, query, 0, 0, 0))

	mustIncrement(c[0], 1)
	mustIncrement(c[1], 2)
	mustIncrement(c[2], 3)
	net.Dump()
	s.check("local increments", expectQueries(names, query, 1, 2, 3))
	s.check("local increments", expectPartitions(net, 3))

	net.Broadcast(a)
	net.Dump()
	s.check("broadcast from A", expectQueries(names, query, 1, 3, 4))
	s.check("broadcast from A", expectPartitions(net, 3))

	net.BroadcastAll()
	net.Dump()
	s.check("broadcast all", expectQueries(names, query, 6, 6, 6))
	s.check("broadcast all", expectPartitions(net, 1))

	net.Disconnect(b)
	mustIncrement(c[0], 10)
	net.Dump()

	net.BroadcastAll()
	net.Dump()
	s.check("B offline", expectQueries(names, query, 16, 6, 16))
	s.check("B offline", expectPartitions(net, 2))

	mustIncrement(c[1], 3)
	net.Dump()
	s.check("B increments offline", expectPartitions(net, 2))

	net.Reconnect(b)
	net.BroadcastAll()
	net.Dump()
	s.check("B reconnected", expectQueries(names, query, 19, 19, 19))
	s.check("B reconnected", expectPartitions(net, 1))

	return s.err
}

// GCounterStar diverges three clients while the server is down and heals
// them through the server.
func GCounterStar(logger log.Logger, m *network.Metrics) error {

	s := &step{scenario: "gcounter-star"}
	net := network.NewStarNetwork[*datatypes.GCounter, uint64](logger, m)
	c := []*datatypes.GCounter{
		datatypes.NewGCounter("SERVER"),
		datatypes.NewGCounter("A"),
		datatypes.NewGCounter("B"),
		datatypes.NewGCounter("C"),
	}
	names, query := gcounterQuery(c)

	server := net.SetServerReplica(c[0])
	a, b := net.Add(c[1]), net.Add(c[2])
	net.Add(c[3])
	net.Disconnect(server)
	net.Dump()
	s.check("initial", expectQueries(names, query, 0, 0, 0, 0))

	mustIncrement(c[1], 1)
	mustIncrement(c[2], 2)
	mustIncrement(c[3], 3)
	net.Dump()
	s.check("local increments", expectQueries(names, query, 0, 1, 2, 3))
	s.check("local increments", expectPartitions(net, 4))

	net.SyncWithServer(a)
	net.Dump()
	s.check("sync while server down", expectPartitions(net, 4))

	net.Reconnect(server)
	net.SyncAllReplicasToServer()
	net.Dump()
	// only the server and C have seen every update
	s.check("first round", expectQueries(names, query, 6, 1, 3, 6))
	s.check("first round", expectPartitions(net, 3))

	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("second round", expectPartitions(net, 1))

	net.Disconnect(b)
	mustIncrement(c[1], 10)
	net.Dump()

	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("B offline", expectQueries(names, query, 16, 16, 6, 16))
	s.check("B offline", expectPartitions(net, 2))

	mustIncrement(c[2], 3)
	net.Dump()
	s.check("B increments offline", expectPartitions(net, 2))

	net.Reconnect(b)
	net.SyncAllReplicasToServer()
	net.Dump()
	// A synced before B brought its increment to the server
	s.check("B reconnected", expectPartitions(net, 2))

	net.SyncWithServer(a)
	net.Dump()
	s.check("A synced again", expectPartitions(net, 1))
	s.check("A synced again", expectQueries(names, query, 19, 19))

	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("idle round", expectPartitions(net, 1))
	s.check("idle round", expectQueries(names, query, 19, 19))

	return s.err
}

// PNCounterP2P runs the gossip flow with decrements.
func PNCounterP2P(logger log.Logger, m *network.Metrics) error {

	s := &step{scenario: "pncounter-p2p"}
	net := network.NewP2PNetwork[*datatypes.PNCounter, int64](logger, m)
	c := []*datatypes.PNCounter{datatypes.NewPNCounter("A"), datatypes.NewPNCounter("B"), datatypes.NewPNCounter("C")}
	names, query := pncounterQuery(c)

	a, b := net.Add(c[0]), net.Add(c[1])
	net.Add(c[2])
	net.Dump()
	s.check("initial", expectQueries(names, query, 0, 0, 0))

	mustIncrement(c[0], -1)
	mustIncrement(c[1], 2)
	mustIncrement(c[2], 3)
	net.Dump()
	s.check("local increments", expectQueries(names, query, -1, 2, 3))
	s.check("local increments", expectPartitions(net, 3))

	net.Broadcast(a)
	net.Dump()
	s.check("broadcast from A", expectPartitions(net, 3))

	net.BroadcastAll()
	net.Dump()
	s.check("broadcast all", expectQueries(names, query, 4, 4, 4))
	s.check("broadcast all", expectPartitions(net, 1))

	net.Disconnect(b)
	mustIncrement(c[0], 10)
	net.Dump()

	net.BroadcastAll()
	net.Dump()
	s.check("B offline", expectQueries(names, query, 14, 4, 14))
	s.check("B offline", expectPartitions(net, 2))

	mustIncrement(c[1], -3)
	net.Dump()
	s.check("B decrements offline", expectPartitions(net, 2))

	net.Reconnect(b)
	net.BroadcastAll()
	net.Dump()
	s.check("B reconnected", expectQueries(names, query, 11, 11, 11))
	s.check("B reconnected", expectPartitions(net, 1))

	mustIncrement(c[1], -12)
	net.Broadcast(b)
	net.Dump()
	s.check("broadcast from B", expectQueries(names, query, -1, -1, -1))
	s.check("broadcast from B", expectPartitions(net, 1))

	return s.err
}

// PNCounterStar runs the star flow with decrements.
func PNCounterStar(logger log.Logger, m *network.Metrics) error {

	s := &step{scenario: "pncounter-star"}
	net := network.NewStarNetwork[*datatypes.PNCounter, int64](logger, m)
	c := []*datatypes.PNCounter{
		datatypes.NewPNCounter("SERVER"),
		datatypes.NewPNCounter("A"),
		datatypes.NewPNCounter("B"),
		datatypes.NewPNCounter("C"),
	}
	names, query := pncounterQuery(c)

	server := net.SetServerReplica(c[0])
	a, b := net.Add(c[1]), net.Add(c[2])
	net.Add(c[3])
	net.Disconnect(server)

	mustIncrement(c[1], -1)
	mustIncrement(c[2], 2)
	mustIncrement(c[3], 3)
	net.Dump()
	s.check("local increments", expectPartitions(net, 4))

	net.SyncWithServer(a)
	s.check("sync while server down", expectQueries(names, query, 0, -1, 2, 3))

	net.Reconnect(server)
	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("first round", expectQueries(names, query, 4, -1, 1, 4))
	s.check("first round", expectPartitions(net, 3))

	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("second round", expectQueries(names, query, 4, 4, 4, 4))
	s.check("second round", expectPartitions(net, 1))

	net.Disconnect(b)
	mustIncrement(c[1], -10)
	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("B offline", expectQueries(names, query, -6, -6, 4, -6))
	s.check("B offline", expectPartitions(net, 2))

	net.Reconnect(b)
	net.SyncAllReplicasToServer()
	net.Dump()
	s.check("B reconnected", expectQueries(names, query, -6, -6, -6, -6))
	s.check("B reconnected", expectPartitions(net, 1))

	return s.err
}
