package communication

import (
	uuid "github.com/satori/go.uuid"
)

const (
	BCAST  int = 0 // state pushed from one replica to a peer
	SYNREQ int = 1 // client state sent to the server
	SYNRSP int = 2 // server state returned to the client
)

// Message carries a replica state between two replicas. Txn ties a sync
// response to the request that caused it.
type Message[T any] struct {
	MSGType  int    // type of message
	Txn      string // transaction id
	OriginID string // replica which produced the payload
	Payload  T      // sync payloads are clones, broadcast payloads alias the source
}

// NewMessage creates a new message in a fresh transaction
func NewMessage[T any](tp int, originID string, payload T) Message[T] {
	return Message[T]{
		MSGType:  tp,
		Txn:      uuid.NewV4().String(),
		OriginID: originID,
		Payload:  payload,
	}
}

// Reply creates a response message in the same transaction as the callee
func (e Message[T]) Reply(originID string, payload T) Message[T] {
	return Message[T]{
		MSGType:  SYNRSP,
		Txn:      e.Txn,
		OriginID: originID,
		Payload:  payload,
	}
}

// TypeName returns a readable name for the message type
func (e Message[T]) TypeName() string {
	switch e.MSGType {
	case BCAST:
		return "broadcast"
	case SYNREQ:
		return "sync-request"
	case SYNRSP:
		return "sync-response"
	}
	return "unknown"
}
