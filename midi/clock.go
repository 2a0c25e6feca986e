package midi

import (
	"fmt"
	"sync"

	"synch-twister/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// PPQN is the MIDI clock resolution (pulses per quarter note)
const PPQN = 24

// ClockHandler receives ticks and transport messages from an external clock
type ClockHandler interface {
	ClockTick()
	ClockStart()
	ClockContinue()
	ClockStop()
}

// ClockIn turns MIDI clock into device ticks. Each MIDI clock pulse is
// worth ticksPerBeat/PPQN device ticks.
type ClockIn struct {
	handler       ClockHandler
	ticksPerPulse int

	mu       sync.Mutex
	stopFunc func()
	portName string
	lastMs   int32
	havePrev bool
	periodMs float64 // smoothed time between clock pulses
}

// NewClockIn creates a clock input feeding handler
func NewClockIn(handler ClockHandler, ticksPerBeat int) *ClockIn {
	return &ClockIn{
		handler:       handler,
		ticksPerPulse: max(ticksPerBeat/PPQN, 1),
	}
}

// Open starts listening on an input port, closing any port already open
func (c *ClockIn) Open(in drivers.In) error {
	c.Close()

	stop, err := gomidi.ListenTo(in, c.HandleMessage)
	if err != nil {
		return fmt.Errorf("listen to %s: %w", in.String(), err)
	}

	c.mu.Lock()
	c.stopFunc = stop
	c.portName = in.String()
	c.havePrev = false
	c.mu.Unlock()
	debug.Log("clock", "listening for MIDI clock on %s", in.String())
	return nil
}

// Close stops listening
func (c *ClockIn) Close() {
	c.mu.Lock()
	stop := c.stopFunc
	c.stopFunc = nil
	c.portName = ""
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// PortName returns the port being listened to ("" if none)
func (c *ClockIn) PortName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.portName
}

// BPM estimates the incoming tempo, 0 until two pulses have arrived
func (c *ClockIn) BPM() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.periodMs <= 0 {
		return 0
	}
	return 60000.0 / (c.periodMs * PPQN)
}

// HandleMessage is the gomidi listener callback
func (c *ClockIn) HandleMessage(msg gomidi.Message, timestampms int32) {
	switch {
	case msg.Is(gomidi.TimingClockMsg):
		c.measure(timestampms)
		for i := 0; i < c.ticksPerPulse; i++ {
			c.handler.ClockTick()
		}
	case msg.Is(gomidi.StartMsg):
		c.mu.Lock()
		c.havePrev = false
		c.mu.Unlock()
		debug.Log("clock", "MIDI start")
		c.handler.ClockStart()
	case msg.Is(gomidi.ContinueMsg):
		debug.Log("clock", "MIDI continue")
		c.handler.ClockContinue()
	case msg.Is(gomidi.StopMsg):
		debug.Log("clock", "MIDI stop")
		c.handler.ClockStop()
	}
}

func (c *ClockIn) measure(ts int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.havePrev && ts > c.lastMs {
		d := float64(ts - c.lastMs)
		if c.periodMs <= 0 {
			c.periodMs = d
		} else {
			c.periodMs += (d - c.periodMs) / 8
		}
	}
	c.lastMs = ts
	c.havePrev = true
}
