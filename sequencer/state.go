package sequencer

import (
	"synch-twister/gpio"
	"synch-twister/synch"
)

// State is a consistent copy of everything the UI shows
type State struct {
	Tempo   int
	Playing bool
	Source  ClockSource
	Ticks   uint64

	Focus     int    // channel being edited
	Item      int    // setting being edited
	ItemLabel string // e.g. "STEP" or "AMT"
	ItemValue int

	Channels []ChannelState
}

// ChannelState holds the settings and position of one channel
type ChannelState struct {
	Pin    gpio.Pin
	Params [synch.NumParams]int

	Mutator       string
	MutatorLabels []string
	MutatorParams []int

	Step      int
	TickCount int
	State     synch.State
}

// Snapshot copies the current state under the lock
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		Tempo:    m.tempo,
		Playing:  m.playing,
		Source:   m.source,
		Ticks:    m.ticks,
		Focus:    m.focus,
		Item:     m.item,
		Channels: make([]ChannelState, len(m.channels)),
	}
	s.ItemLabel, s.ItemValue = m.itemLabel()

	for i, c := range m.channels {
		cs := ChannelState{
			Pin:       c.Pin(),
			Mutator:   c.Mutator().Name(),
			Step:      c.Step(),
			TickCount: c.TickCount(),
			State:     c.State(),
		}
		for p := synch.Param(0); p < synch.NumParams; p++ {
			cs.Params[p] = c.Param(p)
		}
		mut := c.Mutator()
		for j := 0; j < mut.NumParams(); j++ {
			cs.MutatorLabels = append(cs.MutatorLabels, mut.ParamInfo(j).Label)
			cs.MutatorParams = append(cs.MutatorParams, mut.Param(j))
		}
		s.Channels[i] = cs
	}
	return s
}
