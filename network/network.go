package network

import (
	"library/crdtsim/communication"
	"library/crdtsim/crdt"
	"library/crdtsim/replica"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/sanity-io/litter"
)

// noServer marks a network without a server slot.
const noServer = -1

// ordered is implemented by replicas that can place another state of
// their type in the merge order.
type ordered[T any] interface {
	Compare(other T) communication.Condition
}

var dumper = litter.Options{
	Compact:           true,
	StripPackageNames: true,
}

// network holds the slot bookkeeping shared by every topology. It only
// references the replicas, their storage belongs to the caller.
type network[T crdt.Crdt[T, V], V comparable] struct {
	logger   log.Logger
	metrics  *Metrics
	replicas *replica.Registry[T]
	server   int
}

func newNetwork[T crdt.Crdt[T, V], V comparable](kind string, server int, logger log.Logger, m *Metrics) *network[T, V] {

	if logger == nil {
		logger = log.NewNopLogger()
	}

	if m == nil {
		m = NewDiscardMetrics()
	}

	return &network[T, V]{
		logger:   log.With(logger, "network", kind),
		metrics:  m,
		replicas: replica.NewRegistry[T](),
		server:   server,
	}
}

// Replica returns the replica referenced by slot i.
func (n *network[T, V]) Replica(i int) T {
	return n.replicas.Get(i).Crdt()
}

// Status returns whether slot i is online, offline or empty.
func (n *network[T, V]) Status(i int) replica.Status {
	return n.replicas.Get(i).Status()
}

// Len returns the number of slots handed out so far.
func (n *network[T, V]) Len() int {
	return n.replicas.Len()
}

// OfflineSlots returns the indices of the disconnected slots.
func (n *network[T, V]) OfflineSlots() mapset.Set[int] {
	return n.replicas.OfflineSlots()
}

// Disconnect takes slot i off the network. Disconnecting an offline or
// empty slot does nothing.
func (n *network[T, V]) Disconnect(i int) {

	if !n.replicas.Disconnect(i) {
		return
	}
	n.metrics.Disconnects.Add(1)

	name := n.Replica(i).Name()
	if i == n.server {
		level.Info(n.logger).Log("msg", "server is down", "replica", name, "slot", i)
		return
	}

	level.Info(n.logger).Log("msg", "disconnect replica from the network", "replica", name, "slot", i)
}

// Reconnect puts a disconnected slot back on the network. Reconnecting a
// slot that is not offline does nothing.
func (n *network[T, V]) Reconnect(i int) {

	if !n.replicas.Reconnect(i) {
		return
	}
	n.metrics.Reconnects.Add(1)

	name := n.Replica(i).Name()
	if i == n.server {
		level.Info(n.logger).Log("msg", "server is back up", "replica", name, "slot", i)
		return
	}

	level.Info(n.logger).Log("msg", "reconnecting replica to the network", "replica", name, "slot", i)
}

// CountPartitions returns the number of distinct values observed across
// all replicas, online and offline. One means every replica agrees.
func (n *network[T, V]) CountPartitions() int {

	values := mapset.NewThreadUnsafeSet[V]()
	for _, r := range n.replicas.All() {
		values.Add(r.Crdt().Query())
	}

	return values.Cardinality()
}

// Dump logs the state of every replica followed by a convergence banner.
func (n *network[T, V]) Dump() {

	online, offline := n.replicas.Online(), n.replicas.Offline()
	partitions := n.CountPartitions()
	n.metrics.Partitions.Set(float64(partitions))

	level.Info(n.logger).Log(
		"msg", "network state",
		"online", len(online),
		"offline", len(offline),
		"partitions", partitions,
	)

	all := append(online, offline...)
	for _, r := range all {
		level.Info(n.logger).Log(
			"msg", "replica",
			"slot", r.GetID(),
			"replica", r.Crdt().Name(),
			"status", r.Status(),
			"value", r.Crdt().Query(),
		)
		level.Debug(n.logger).Log("msg", "replica state", "replica", r.Crdt().Name(), "state", dumper.Sdump(r.Crdt()))
	}

	if len(all) > 0 {
		n.logOrder(all[0].Crdt(), all[1:])
	}

	if partitions == 1 {
		level.Info(n.logger).Log("msg", "ALL CONVERGED!")
	}
}

// logOrder logs how each replica relates to ref: ancestor when it has seen
// no more than ref, descendant when it has seen more, concurrent otherwise.
func (n *network[T, V]) logOrder(ref T, replicas []*replica.Replica[T]) {

	o, ok := any(ref).(ordered[T])
	if !ok {
		return
	}

	for _, r := range replicas {
		level.Debug(n.logger).Log(
			"msg", "replica order",
			"replica", r.Crdt().Name(),
			"reference", ref.Name(),
			"order", o.Compare(r.Crdt()),
		)
	}
}

// deliver merges the payload of msg into dst.
func (n *network[T, V]) deliver(dst *replica.Replica[T], msg communication.Message[T]) {

	dst.Crdt().Merge(msg.Payload)
	n.metrics.Merges.Add(1)

	level.Debug(n.logger).Log(
		"msg", "merged",
		"type", msg.TypeName(),
		"txn", msg.Txn,
		"from", msg.OriginID,
		"replica", dst.Crdt().Name(),
		"value", dst.Crdt().Query(),
	)
}
