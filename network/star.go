package network

import (
	"io"

	"library/crdtsim/communication"
	"library/crdtsim/crdt"

	"github.com/dominikbraun/graph"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// serverSlot is the slot reserved for the server of a star.
const serverSlot = 0

// StarNetwork only synchronizes clients through a single server replica
// living in slot 0.
type StarNetwork[T crdt.Crdt[T, V], V comparable] struct {
	*network[T, V]
}

func NewStarNetwork[T crdt.Crdt[T, V], V comparable](logger log.Logger, m *Metrics) *StarNetwork[T, V] {
	return &StarNetwork[T, V]{
		network: newNetwork[T, V]("star", serverSlot, logger, m),
	}
}

// SetServerReplica makes c the server. An existing server slot is pointed
// at c directly and brought online; the replica it held leaves the network.
func (n *StarNetwork[T, V]) SetServerReplica(c T) int {

	if n.replicas.Len() == 0 {
		n.replicas.Add(c)
	} else {
		n.replicas.Set(serverSlot, c)
	}

	level.Info(n.logger).Log("msg", "server replica set", "replica", c.Name(), "slot", serverSlot)

	return serverSlot
}

// Add registers c as a new online client and returns its slot. The first
// client reserves slot 0 for the server.
func (n *StarNetwork[T, V]) Add(c T) int {

	if n.replicas.Len() == 0 {
		n.replicas.Reserve()
	}

	i := n.replicas.Add(c)
	level.Debug(n.logger).Log("msg", "replica joined", "replica", c.Name(), "slot", i)

	return i
}

// SyncWithServer exchanges state between client i and the server. Both
// sides send what they held before the exchange: the client merges the
// server's reply and the server merges the client's request afterwards.
// Nothing happens for slot 0, for an offline client or while the server
// is unreachable.
func (n *StarNetwork[T, V]) SyncWithServer(i int) {

	if i == serverSlot {
		return
	}

	client := n.replicas.Get(i)
	if !client.Online() {
		return
	}

	server := n.replicas.Get(serverSlot)
	if !server.Online() {
		n.metrics.SyncFailures.Add(1)
		level.Info(n.logger).Log("msg", "server is not reachable from replica", "replica", client.Crdt().Name(), "slot", i)
		return
	}

	req := communication.NewMessage(communication.SYNREQ, client.Crdt().Name(), client.Crdt().Clone())
	rsp := req.Reply(server.Crdt().Name(), server.Crdt().Clone())

	level.Info(n.logger).Log(
		"msg", "replica is syncing with server",
		"replica", req.OriginID,
		"server", rsp.OriginID,
		"slot", i,
		"txn", req.Txn,
	)

	n.deliver(client, rsp)
	n.deliver(server, req)
	n.metrics.Syncs.Add(1)

	if c, s := client.Crdt().Query(), server.Crdt().Query(); c != s {
		panic(errors.Errorf("replica %s holds %v after syncing with server %s holding %v", req.OriginID, c, rsp.OriginID, s))
	}
}

// SyncAllReplicasToServer syncs every client with the server in ascending
// slot order.
func (n *StarNetwork[T, V]) SyncAllReplicasToServer() {
	for i := serverSlot + 1; i < n.replicas.Len(); i++ {
		n.SyncWithServer(i)
	}
}

// Graph returns the current reachability between slots: each online
// client is connected to the server while the server is online.
func (n *StarNetwork[T, V]) Graph() (graph.Graph[int, int], error) {

	g, err := n.vertices()
	if err != nil {
		return nil, err
	}

	if n.replicas.Len() == 0 || !n.replicas.Get(serverSlot).Online() {
		return g, nil
	}

	for _, r := range n.replicas.Online() {
		if r.GetID() == serverSlot {
			continue
		}
		if err := n.edge(g, serverSlot, r.GetID()); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// WriteDOT renders Graph in DOT format.
func (n *StarNetwork[T, V]) WriteDOT(w io.Writer) error {
	g, err := n.Graph()
	if err != nil {
		return err
	}
	return writeDOT(g, w)
}
