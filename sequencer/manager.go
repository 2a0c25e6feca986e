package sequencer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"synch-twister/debug"
	"synch-twister/gpio"
	"synch-twister/mutator"
	"synch-twister/synch"
)

// ClockSource selects what advances the ticks
type ClockSource int

const (
	ClockInternal ClockSource = iota
	ClockExternal
)

func (c ClockSource) String() string {
	if c == ClockExternal {
		return "MIDI"
	}
	return "INT"
}

// Tempo limits for the internal clock
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// How often the millisecond side of the channels is polled
const runInterval = 250 * time.Microsecond

// UI refresh rate
const uiFPS = 30

// Manager owns the channels and drives both of their timing inputs.
// Every channel access happens with mu held, so the front panel can edit
// settings while the clock goroutines run.
type Manager struct {
	channels []*synch.Channel
	mu       sync.Mutex

	tempo   int
	playing bool
	source  ClockSource
	ticks   uint64 // ticks since Play

	start  time.Time
	millis func() uint32
	lastMs uint32

	focus int // channel being edited
	item  int // setting being edited, see panel.go

	tempoChan chan struct{} // wake the clock loop after a tempo change

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates one channel per pin, all writing to out
func NewManager(out gpio.Output, pins []gpio.Pin) *Manager {
	m := &Manager{
		tempo:      DefaultTempo,
		start:      time.Now(),
		tempoChan:  make(chan struct{}, 1),
		UpdateChan: make(chan struct{}, 1),
	}
	m.millis = m.elapsedMillis
	for _, p := range pins {
		m.channels = append(m.channels, synch.NewChannel(p, out))
	}
	return m
}

// elapsedMillis is the default millisecond clock. It wraps at 2^32 like
// the hardware timer it stands in for.
func (m *Manager) elapsedMillis() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// SetMillisSource replaces the millisecond clock used by the run loop
func (m *Manager) SetMillisSource(fn func() uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.millis = fn
}

// Millis reads the millisecond clock
func (m *Manager) Millis() uint32 {
	m.mu.Lock()
	fn := m.millis
	m.mu.Unlock()
	return fn()
}

// NumChannels returns the number of channels
func (m *Manager) NumChannels() int {
	return len(m.channels)
}

// WithChannel calls fn with channel idx while holding the lock
func (m *Manager) WithChannel(idx int, fn func(c *synch.Channel)) bool {
	if idx < 0 || idx >= len(m.channels) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.channels[idx])
	return true
}

// StartRuntime starts the clock, run and UI goroutines. They stop when
// ctx is cancelled.
func (m *Manager) StartRuntime(ctx context.Context) {
	go m.clockLoop(ctx)
	go m.runLoop(ctx)
	go m.uiLoop(ctx)
}

// Tick advances every channel by one tick. Ignored while stopped.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	for _, c := range m.channels {
		c.Tick()
	}
	m.ticks++
	debug.LogEvery(mutator.TicksPerBeat*16, "clock", "tick %d", m.ticks)
}

// Run advances the pulse timing of every channel to ms. Channels compare
// deadlines modulo 2^32, so a normal wrap of the clock needs nothing more.
// Only a clock that jumps backwards is handed to TimerRollover.
func (m *Manager) Run(ms uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int32(ms-m.lastMs) < 0 {
		debug.Log("clock", "millisecond clock went backwards (%d -> %d)", m.lastMs, ms)
		for _, c := range m.channels {
			c.TimerRollover()
		}
	}
	m.lastMs = ms
	for _, c := range m.channels {
		c.Run(ms)
	}
}

// Play restarts every channel from step 0 and starts counting ticks
func (m *Manager) Play() {
	m.mu.Lock()
	if m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = true
	m.ticks = 0
	for _, c := range m.channels {
		c.Reset()
	}
	m.mu.Unlock()

	debug.Log("transport", "play (%s clock)", m.ClockSource())
	m.wakeClock()
	m.notifyUpdate()
}

// Continue resumes counting ticks without rewinding
func (m *Manager) Continue() {
	m.mu.Lock()
	m.playing = true
	m.mu.Unlock()
	debug.Log("transport", "continue")
	m.wakeClock()
	m.notifyUpdate()
}

// Stop stops counting ticks. Pulses already started still complete.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	m.playing = false
	debug.Log("transport", "stop after %d ticks", m.ticks)
	m.notifyUpdate()
}

// TogglePlay starts or stops playback
func (m *Manager) TogglePlay() {
	if m.Playing() {
		m.Stop()
	} else {
		m.Play()
	}
}

// ResetChannels rewinds every channel without touching the transport
func (m *Manager) ResetChannels() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		c.Reset()
	}
	m.ticks = 0
}

// Playing reports whether ticks are being counted
func (m *Manager) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// SetTempo sets the BPM of the internal clock
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	if bpm < MinTempo {
		bpm = MinTempo
	}
	if bpm > MaxTempo {
		bpm = MaxTempo
	}
	m.tempo = bpm
	m.mu.Unlock()
	m.wakeClock()
}

// Tempo returns the BPM of the internal clock
func (m *Manager) Tempo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// SetClockSource picks internal or external (MIDI) ticks
func (m *Manager) SetClockSource(src ClockSource) {
	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
	debug.Log("clock", "source %s", src)
	m.wakeClock()
}

// ClockSource returns the current tick source
func (m *Manager) ClockSource() ClockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// TickPeriod returns the internal clock's time between ticks
func (m *Manager) TickPeriod() time.Duration {
	return tickPeriod(m.Tempo())
}

func tickPeriod(bpm int) time.Duration {
	return time.Minute / time.Duration(bpm*mutator.TicksPerBeat)
}

// External clock (midi.ClockHandler)

func (m *Manager) ClockTick() {
	if m.ClockSource() == ClockExternal {
		m.Tick()
	}
}

func (m *Manager) ClockStart() {
	if m.ClockSource() == ClockExternal {
		m.Stop()
		m.Play()
	}
}

func (m *Manager) ClockContinue() {
	if m.ClockSource() == ClockExternal {
		m.Continue()
	}
}

func (m *Manager) ClockStop() {
	if m.ClockSource() == ClockExternal {
		m.Stop()
	}
}

// wakeClock signals the clock loop to resync (called when tempo or source change)
func (m *Manager) wakeClock() {
	select {
	case m.tempoChan <- struct{}{}:
	default:
	}
}

// clockLoop generates internal ticks against absolute deadlines so the
// tempo does not drift
func (m *Manager) clockLoop(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.tempoChan:
			next = time.Now()
		case <-timer.C:
			if m.ClockSource() == ClockInternal {
				m.Tick()
			}
		}

		period := m.TickPeriod()
		next = next.Add(period)
		wait := time.Until(next)
		if wait < -period {
			// fell far behind (machine asleep?) - resync rather than burst
			next = time.Now().Add(period)
			wait = period
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(max(wait, 0))
	}
}

// runLoop polls the millisecond clock as often as is reasonable
func (m *Manager) runLoop(ctx context.Context) {
	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Run(m.Millis())
		}
	}
}

// uiLoop notifies the TUI at a fixed rate
func (m *Manager) uiLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.notifyUpdate()
		}
	}
}

// notifyUpdate pokes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
