package network

import (
	"io"

	"library/crdtsim/communication"
	"library/crdtsim/crdt"

	"github.com/dominikbraun/graph"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// P2PNetwork lets any online replica push its state to every other online
// replica.
type P2PNetwork[T crdt.Crdt[T, V], V comparable] struct {
	*network[T, V]
}

func NewP2PNetwork[T crdt.Crdt[T, V], V comparable](logger log.Logger, m *Metrics) *P2PNetwork[T, V] {
	return &P2PNetwork[T, V]{
		network: newNetwork[T, V]("p2p", noServer, logger, m),
	}
}

// Add registers c as a new online replica and returns its slot.
func (n *P2PNetwork[T, V]) Add(c T) int {
	i := n.replicas.Add(c)
	level.Debug(n.logger).Log("msg", "replica joined", "replica", c.Name(), "slot", i)
	return i
}

// Broadcast merges the state of slot i into every other online replica.
// The source is only read. Broadcasting from an offline slot does nothing.
func (n *P2PNetwork[T, V]) Broadcast(i int) {

	src := n.replicas.Get(i)
	if !src.Online() {
		return
	}

	msg := communication.NewMessage(communication.BCAST, src.Crdt().Name(), src.Crdt())
	level.Info(n.logger).Log(
		"msg", "broadcasting to all connected replicas",
		"replica", msg.OriginID,
		"slot", i,
		"txn", msg.Txn,
	)
	n.metrics.Broadcasts.Add(1)

	for _, dst := range n.replicas.Online() {
		if dst.GetID() != i {
			n.deliver(dst, msg)
		}
	}
}

// BroadcastAll broadcasts from every slot in ascending order. With all
// replicas online it leaves every replica at the join of all states.
func (n *P2PNetwork[T, V]) BroadcastAll() {
	for i := 0; i < n.replicas.Len(); i++ {
		n.Broadcast(i)
	}
}

// Graph returns the current reachability between slots: every pair of
// online replicas is connected.
func (n *P2PNetwork[T, V]) Graph() (graph.Graph[int, int], error) {

	g, err := n.vertices()
	if err != nil {
		return nil, err
	}

	online := n.replicas.Online()
	for x := range online {
		for y := x + 1; y < len(online); y++ {
			if err := n.edge(g, online[x].GetID(), online[y].GetID()); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// WriteDOT renders Graph in DOT format.
func (n *P2PNetwork[T, V]) WriteDOT(w io.Writer) error {
	g, err := n.Graph()
	if err != nil {
		return err
	}
	return writeDOT(g, w)
}
