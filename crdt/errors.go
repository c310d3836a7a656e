package crdt

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned when an update is not allowed by the data type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownSlot is the panic cause when a network is addressed with a slot
	// index that was never handed out.
	ErrUnknownSlot = errors.New("unknown replica slot")
)
