package crdt

// Crdt is a state-based replicated data type that a network can carry.
// T is the concrete replica type, V the value a query observes.
type Crdt[T any, V comparable] interface {
	// Merge joins the state of other into the callee. It must be
	// commutative, associative and idempotent.
	Merge(other T)

	// Query returns the current value of the replica.
	Query() V

	// Name returns the identity of the replica, for diagnostics.
	Name() string

	// Clone returns an independent copy of the replica state.
	Clone() T
}
