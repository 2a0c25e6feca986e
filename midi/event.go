package midi

import (
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Direction of a MIDI port
type Direction int

const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirOut {
		return "out"
	}
	return "in"
}

// PortEventType says whether a watched port appeared or went away
type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

// PortEvent is emitted when a watched port connects or disconnects.
// In or Out is set on connect, depending on Dir.
type PortEvent struct {
	Type PortEventType
	Dir  Direction
	Name string
	In   drivers.In
	Out  drivers.Out
}
