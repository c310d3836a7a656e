package scenario

import (
	"fmt"
	"io"
	"math/rand"

	"library/crdtsim/datatypes"
	"library/crdtsim/network"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/jmcvetta/randutil"
	"github.com/pkg/errors"
)

const (
	TopologyP2P  = "p2p"
	TopologyStar = "star"
)

// Random configures a randomized fault-injection run.
type Random struct {
	Topology string
	Replicas int
	Steps    int

	// Seed fixes the slots and deltas of a run. The action mix is drawn by
	// randutil from crypto/rand and differs between runs with the same seed.
	Seed int64

	// DOT receives the healed topology in Graphviz syntax when set.
	DOT io.Writer
}

type action int

const (
	actIncrement action = iota
	actDisconnect
	actReconnect
	actGossip
	actRound
)

// weights of each action when picking the next step
var actions = []randutil.Choice{
	{Weight: 6, Item: actIncrement},
	{Weight: 1, Item: actDisconnect},
	{Weight: 2, Item: actReconnect},
	{Weight: 4, Item: actGossip},
	{Weight: 1, Item: actRound},
}

// simulation hides the topology from the random driver.
type simulation interface {
	Disconnect(i int)
	Reconnect(i int)
	CountPartitions() int
	Dump()
	OnlineSlots() []int
	WriteDOT(w io.Writer) error

	// gossip spreads the state of slot i the way the topology does.
	gossip(i int)

	// round spreads the state of every replica.
	round()

	// converge runs enough rounds for all online replicas to agree.
	converge()
}

type p2pSim struct {
	*network.P2PNetwork[*datatypes.PNCounter, int64]
}

func (s p2pSim) OnlineSlots() []int { return onlineSlots(s.Len(), s.OfflineSlots().Contains) }
func (s p2pSim) gossip(i int)       { s.Broadcast(i) }
func (s p2pSim) round()             { s.BroadcastAll() }
func (s p2pSim) converge()          { s.BroadcastAll() }

type starSim struct {
	*network.StarNetwork[*datatypes.PNCounter, int64]
}

func (s starSim) OnlineSlots() []int { return onlineSlots(s.Len(), s.OfflineSlots().Contains) }
func (s starSim) gossip(i int)       { s.SyncWithServer(i) }
func (s starSim) round()             { s.SyncAllReplicasToServer() }
func (s starSim) converge() {
	s.SyncAllReplicasToServer()
	s.SyncAllReplicasToServer()
}

func onlineSlots(n int, offline func(...int) bool) []int {
	slots := []int{}
	for i := 0; i < n; i++ {
		if !offline(i) {
			slots = append(slots, i)
		}
	}
	return slots
}

// RunRandom applies random increments, partitions and synchronizations to
// PNCounter replicas. After every step, replicas that are offline must
// hold the value they had before it. At the end every replica is
// reconnected and must converge to the signed sum of all increments.
func RunRandom(cfg Random, logger log.Logger, m *network.Metrics) error {

	if cfg.Replicas < 1 {
		return errors.Errorf("random: need at least one replica, got %d", cfg.Replicas)
	}

	if logger == nil {
		logger = log.NewNopLogger()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	counters := make([]*datatypes.PNCounter, 0, cfg.Replicas+1)

	var sim simulation
	switch cfg.Topology {
	case TopologyP2P, "":
		net := network.NewP2PNetwork[*datatypes.PNCounter, int64](logger, m)
		for i := 0; i < cfg.Replicas; i++ {
			c := datatypes.NewPNCounter(fmt.Sprintf("R%d", i))
			counters = append(counters, c)
			net.Add(c)
		}
		sim = p2pSim{net}
	case TopologyStar:
		net := network.NewStarNetwork[*datatypes.PNCounter, int64](logger, m)
		server := datatypes.NewPNCounter("SERVER")
		counters = append(counters, server)
		net.SetServerReplica(server)
		for i := 0; i < cfg.Replicas; i++ {
			c := datatypes.NewPNCounter(fmt.Sprintf("R%d", i))
			counters = append(counters, c)
			net.Add(c)
		}
		sim = starSim{net}
	default:
		return errors.Errorf("random: unknown topology %q", cfg.Topology)
	}

	var sum int64
	for n := 0; n < cfg.Steps; n++ {

		choice, err := randutil.WeightedChoice(actions)
		if err != nil {
			return errors.Wrap(err, "random: picking action")
		}

		slot := rng.Intn(len(counters))
		offline := map[int]int64{}
		for i, c := range counters {
			offline[i] = c.Query()
		}
		for _, i := range sim.OnlineSlots() {
			delete(offline, i)
		}

		switch choice.Item.(action) {
		case actIncrement:
			delta := rng.Intn(21) - 10
			if err := counters[slot].Increment(delta); err != nil {
				return errors.Wrapf(err, "random: step %d", n)
			}
			sum += int64(delta)
			delete(offline, slot)
			level.Debug(logger).Log("msg", "increment", "replica", counters[slot].Name(), "delta", delta)
		case actDisconnect:
			sim.Disconnect(slot)
		case actReconnect:
			sim.Reconnect(slot)
			delete(offline, slot)
		case actGossip:
			sim.gossip(slot)
		case actRound:
			sim.round()
		}

		for i, before := range offline {
			if after := counters[i].Query(); after != before {
				return errors.Errorf("random: step %d: offline replica %s changed from %d to %d", n, counters[i].Name(), before, after)
			}
		}
	}

	for i := range counters {
		sim.Reconnect(i)
	}
	sim.converge()
	sim.Dump()

	if p := sim.CountPartitions(); p != 1 {
		return errors.Errorf("random: expected convergence after healing, got %d partitions", p)
	}

	for _, c := range counters {
		if c.Query() != sum {
			return errors.Errorf("random: replica %s holds %d, expected the sum of all increments %d", c.Name(), c.Query(), sum)
		}
	}

	if cfg.DOT != nil {
		if err := sim.WriteDOT(cfg.DOT); err != nil {
			return errors.Wrap(err, "random: writing topology")
		}
	}

	level.Info(logger).Log("msg", "random run converged", "topology", cfg.Topology, "steps", cfg.Steps, "value", sum)

	return nil
}
