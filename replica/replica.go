package replica

import (
	"fmt"

	"library/crdtsim/crdt"
	"library/crdtsim/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// Status is the connectivity of a slot.
type Status int

const (
	// Empty slots hold no replica (the unassigned server slot of a star).
	Empty Status = iota
	Active
	Offline
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Active:
		return "online"
	case Offline:
		return "offline"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Replica is a slot of a network. It references a CRDT that is owned by
// whoever created it.
type Replica[T any] struct {
	id     int
	crdt   T
	status Status
}

func (r *Replica[T]) GetID() int {
	return r.id
}

func (r *Replica[T]) Crdt() T {
	return r.crdt
}

func (r *Replica[T]) Status() Status {
	return r.status
}

func (r *Replica[T]) Online() bool {
	return r.status == Active
}

// Registry is an append-only arena of slots. Indices are never reused.
type Registry[T any] struct {
	replicas []*Replica[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add appends an online slot referencing c and returns its index.
func (g *Registry[T]) Add(c T) int {
	id := len(g.replicas)
	g.replicas = append(g.replicas, &Replica[T]{id: id, crdt: c, status: Active})
	return id
}

// Reserve appends an empty slot and returns its index.
func (g *Registry[T]) Reserve() int {
	id := len(g.replicas)
	g.replicas = append(g.replicas, &Replica[T]{id: id, status: Empty})
	return id
}

// Set points slot i at c and brings it online, whatever it held before.
func (g *Registry[T]) Set(i int, c T) {
	r := g.Get(i)
	r.crdt = c
	r.status = Active
}

// Get returns slot i. Asking for a slot that was never handed out is a
// caller bug and panics.
func (g *Registry[T]) Get(i int) *Replica[T] {
	if i < 0 || i >= len(g.replicas) {
		panic(errors.Wrapf(crdt.ErrUnknownSlot, "slot %d of %d", i, len(g.replicas)))
	}
	return g.replicas[i]
}

func (g *Registry[T]) Len() int {
	return len(g.replicas)
}

// Disconnect takes an online slot offline. It reports whether anything changed.
func (g *Registry[T]) Disconnect(i int) bool {
	r := g.Get(i)
	if r.status != Active {
		return false
	}
	r.status = Offline
	return true
}

// Reconnect brings an offline slot back online. It reports whether anything changed.
func (g *Registry[T]) Reconnect(i int) bool {
	r := g.Get(i)
	if r.status != Offline {
		return false
	}
	r.status = Active
	return true
}

// All returns every slot holding a replica, online or not, in slot order.
func (g *Registry[T]) All() []*Replica[T] {
	return utils.Filter(g.replicas, func(r *Replica[T]) bool {
		return r.status != Empty
	})
}

// Online returns the online slots in slot order.
func (g *Registry[T]) Online() []*Replica[T] {
	return utils.Filter(g.replicas, (*Replica[T]).Online)
}

// Offline returns the offline slots in slot order.
func (g *Registry[T]) Offline() []*Replica[T] {
	return utils.Filter(g.replicas, func(r *Replica[T]) bool {
		return r.status == Offline
	})
}

// OfflineSlots returns the indices of the offline slots.
func (g *Registry[T]) OfflineSlots() mapset.Set[int] {
	slots := mapset.NewThreadUnsafeSet[int]()
	for _, r := range g.Offline() {
		slots.Add(r.id)
	}
	return slots
}
