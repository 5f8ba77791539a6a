package core

import "github.com/dkeye/Parley/internal/domain"

// session implements Session by pairing meta + transport.
type session struct {
	meta *domain.Participant
	conn Connection
}

func NewSession(meta *domain.Participant, conn Connection) Session {
	return &session{meta: meta, conn: conn}
}

func (s *session) Meta() *domain.Participant { return s.meta }
func (s *session) Conn() Connection          { return s.conn }
