package core

import (
	"errors"

	"github.com/dkeye/Parley/internal/domain"
)

// Frame is a marshaled message ready for the wire.
type Frame []byte

// ErrNameTaken is returned by Register when a live session already holds
// the requested name.
var ErrNameTaken = errors.New("name taken")

// Connection abstracts the duplex transport of one participant.
// Owned by the adapter; the adapter must Close() it.
type Connection interface {
	TrySend(Frame) error
	Close()
}

// Session binds a domain.Participant and its transport endpoint.
// This is what the registry stores and fans out to.
type Session interface {
	Meta() *domain.Participant
	Conn() Connection
}

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SentTo  int
	Dropped []Session
}

// ParticipantDTO is a read-only view for APIs (no transport fields).
type ParticipantDTO struct {
	Name domain.Name `json:"name"`
}

// Registry owns the live session set keyed by display name. It never
// touches transport resources beyond the non-blocking TrySend used by
// Broadcast; membership mutations and the fan-out share one lock so a
// session unregistered here is never part of a later fan-out.
type Registry interface {
	Register(name domain.Name, conn Connection) (Session, error)
	// Unregister removes the session and reports whether this call did
	// the removal. Duplicate teardown triggers are no-ops.
	Unregister(s Session) bool
	Lookup(name domain.Name) (Session, bool)
	Snapshot() []ParticipantDTO
	Count() int
	Broadcast(f Frame) PublishResult
}
