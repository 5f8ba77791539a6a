package app

import "github.com/dkeye/Parley/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	Disconnect
	DropFrame
)

type Policy interface {
	OnBackPressure(member core.Session) BackpressureAction
}

// DisconnectPolicy treats a full send buffer as an early disconnect signal.
type DisconnectPolicy struct{}

func (DisconnectPolicy) OnBackPressure(member core.Session) BackpressureAction {
	return Disconnect
}
