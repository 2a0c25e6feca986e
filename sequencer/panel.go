package sequencer

import (
	"synch-twister/debug"
	"synch-twister/synch"
)

// The front panel edits one item of one channel at a time. Items are the
// channel settings in order, followed by the active mutator's parameters.

// FocusChannel selects which channel the panel edits
func (m *Manager) FocusChannel(idx int) {
	if idx < 0 || idx >= len(m.channels) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focus = idx
	m.clampItem()
}

// Focused returns the channel being edited
func (m *Manager) Focused() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focus
}

// NextItem moves to the next setting, wrapping around
func (m *Manager) NextItem() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.item = (m.item + 1) % m.numItems()
}

// PrevItem moves to the previous setting, wrapping around
func (m *Manager) PrevItem() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.numItems()
	m.item = (m.item + n - 1) % n
}

// Adjust steps the focused setting up or down and returns the stored value
func (m *Manager) Adjust(inc bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.channels) == 0 {
		return 0
	}
	c := m.channels[m.focus]

	var v int
	if m.item < int(synch.NumParams) {
		v = c.ChangeParam(synch.Param(m.item), inc)
	} else {
		v = c.Mutator().ChangeParam(m.item-int(synch.NumParams), inc)
	}
	// a different mutator may have fewer parameters
	m.clampItem()
	return v
}

// AdjustBy applies n single steps in the direction of its sign
func (m *Manager) AdjustBy(n int) int {
	var v int
	for i := 0; i < n; i++ {
		v = m.Adjust(true)
	}
	for i := 0; i > n; i-- {
		v = m.Adjust(false)
	}
	return v
}

// HandleKey routes a key press to the panel
func (m *Manager) HandleKey(key string) {
	switch key {
	case "l", "right", "tab":
		m.NextItem()
	case "h", "left", "shift+tab":
		m.PrevItem()
	case "k", "up":
		m.Adjust(true)
	case "j", "down":
		m.Adjust(false)
	case "K", "pgup":
		m.AdjustBy(10)
	case "J", "pgdown":
		m.AdjustBy(-10)
	case "r":
		m.ResetChannels()
	default:
		return
	}
	debug.Log("panel", "key %q", key)
	m.notifyUpdate()
}

// numItems must be called with mu held
func (m *Manager) numItems() int {
	n := int(synch.NumParams)
	if len(m.channels) > 0 {
		n += m.channels[m.focus].Mutator().NumParams()
	}
	return n
}

// clampItem must be called with mu held
func (m *Manager) clampItem() {
	if n := m.numItems(); m.item >= n {
		m.item = n - 1
	}
}

// itemLabel must be called with mu held
func (m *Manager) itemLabel() (string, int) {
	if len(m.channels) == 0 {
		return "", 0
	}
	c := m.channels[m.focus]
	if m.item < int(synch.NumParams) {
		p := synch.Param(m.item)
		return p.String(), c.Param(p)
	}
	idx := m.item - int(synch.NumParams)
	mut := c.Mutator()
	return mut.ParamInfo(idx).Label, mut.Param(idx)
}
