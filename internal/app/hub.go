// Package app coordinates joins, message relay, and leaves on top of the
// session registry. It owns no transport; adapters feed it events and it
// fans results back out through the registry.
package app

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrEmptyMessage   = errors.New("empty message")
)

type Hub struct {
	Registry core.Registry
	Policy   Policy
}

func NewHub(registry core.Registry, policy Policy) *Hub {
	return &Hub{Registry: registry, Policy: policy}
}

// OnJoin validates the display name, reserves it atomically, and announces
// the join to the post-join snapshot, the joiner included. On any failure
// nothing is broadcast and no state changes.
func (h *Hub) OnJoin(name string, conn core.Connection) (core.Session, error) {
	p, err := domain.NewParticipant(name)
	if err != nil {
		return nil, err
	}
	sess, err := h.Registry.Register(p.Name, conn)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.hub").Str("name", name).Msg("participant joined")
	h.publish(domain.JoinNotice(p.Name))
	return sess, nil
}

// OnMessage translates an inbound envelope into a chat broadcast. Malformed
// or blank payloads are dropped; the connection stays open and nothing
// reaches the other participants.
func (h *Hub) OnMessage(sess core.Session, raw []byte) error {
	var in domain.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return ErrInvalidPayload
	}
	content := strings.TrimSpace(in.Message)
	if content == "" {
		return ErrEmptyMessage
	}
	h.publish(domain.NewChatMessage(sess.Meta().Name, content))
	return nil
}

// OnLeave removes the session first and announces the leave to whoever is
// left. Read and write paths may both call it; only the call that actually
// removed the session broadcasts.
func (h *Hub) OnLeave(sess core.Session) {
	if !h.Registry.Unregister(sess) {
		return
	}
	log.Info().Str("module", "app.hub").Str("name", string(sess.Meta().Name)).Msg("participant left")
	h.publish(domain.LeaveNotice(sess.Meta().Name))
}

func (h *Hub) publish(msg domain.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("marshal broadcast")
		return
	}
	res := h.Registry.Broadcast(core.Frame(frame))
	if h.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch h.Policy.OnBackPressure(slow) {
		case Disconnect:
			log.Warn().Str("module", "app.hub").Str("name", string(slow.Meta().Name)).Msg("dropping slow participant")
			slow.Conn().Close()
			h.OnLeave(slow)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}
