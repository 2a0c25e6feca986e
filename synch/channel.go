package synch

import (
	"synch-twister/gpio"
	"synch-twister/mutator"
)

// State is the pulse sub-state of a channel
type State uint8

const (
	StateReady State = iota
	StatePulse
	StatePulsing
	StateRecover
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StatePulse:
		return "PULSE"
	case StatePulsing:
		return "PULSING"
	case StateRecover:
		return "RECOVER"
	default:
		return "?"
	}
}

// Param enumerates the channel settings
type Param int

const (
	ParamSteps Param = iota
	ParamDivider
	ParamPulseMs
	ParamRecoverMs
	ParamInvert
	ParamMutator
	NumParams
)

var paramLabels = [NumParams]string{
	ParamSteps:     "STEP",
	ParamDivider:   "DIV",
	ParamPulseMs:   "PULS",
	ParamRecoverMs: "REC",
	ParamInvert:    "INV",
	ParamMutator:   "MUT",
}

func (p Param) String() string {
	if p >= 0 && p < NumParams {
		return paramLabels[p]
	}
	return "?"
}

// Defaults applied when a channel is created
const (
	DefaultSteps     = 16
	DefaultDivider   = 1
	DefaultPulseMs   = 15
	DefaultRecoverMs = 10
)

// Channel drives one trigger output.
//
// Tick advances step scheduling and must be called TicksPerStep times per
// step. Run advances the pulse/recovery timing and should be called as often
// as possible. A Channel is not safe for concurrent use; callers serialize
// Tick, Run and the setters.
type Channel struct {
	pin    gpio.Pin
	out    gpio.Output
	invert bool

	activeSteps int
	divider     int // stored only, scheduling ignores it
	pulseMs     int
	recoverMs   int

	bank *mutator.Bank

	step         int
	tickCount    int
	nextFireTick int
	deadline     uint32
	state        State
}

// NewChannel creates a channel with default settings writing to pin on out
func NewChannel(pin gpio.Pin, out gpio.Output) *Channel {
	if out == nil {
		out = gpio.Nop{}
	}
	c := &Channel{
		pin:         pin,
		out:         out,
		activeSteps: DefaultSteps,
		divider:     DefaultDivider,
		pulseMs:     DefaultPulseMs,
		recoverMs:   DefaultRecoverMs,
		bank:        mutator.NewBank(),
	}
	c.Reset()
	return c
}

// Pin returns the output line
func (c *Channel) Pin() gpio.Pin {
	return c.pin
}

// Mutator returns the active mutator
func (c *Channel) Mutator() *mutator.Mutator {
	return c.bank.Active()
}

// Bank returns the channel's mutator bank
func (c *Channel) Bank() *mutator.Bank {
	return c.bank
}

// SetParam clamps value into the setting's range, stores it and returns
// the stored value. Unknown settings return 0.
func (c *Channel) SetParam(p Param, value int) int {
	switch p {
	case ParamSteps:
		c.activeSteps = clamp(value, 1, mutator.MaxSteps)
		return c.activeSteps
	case ParamDivider:
		c.divider = clamp(value, 1, 99)
		return c.divider
	case ParamPulseMs:
		c.pulseMs = clamp(value, 1, 99)
		return c.pulseMs
	case ParamRecoverMs:
		c.recoverMs = clamp(value, 1, 99)
		return c.recoverMs
	case ParamInvert:
		c.invert = clamp(value, 0, 1) == 1
		return boolToInt(c.invert)
	case ParamMutator:
		return c.bank.Select(value)
	default:
		return 0
	}
}

// Param returns the stored value of a setting
func (c *Channel) Param(p Param) int {
	switch p {
	case ParamSteps:
		return c.activeSteps
	case ParamDivider:
		return c.divider
	case ParamPulseMs:
		return c.pulseMs
	case ParamRecoverMs:
		return c.recoverMs
	case ParamInvert:
		return boolToInt(c.invert)
	case ParamMutator:
		return c.bank.Selected()
	default:
		return 0
	}
}

// ChangeParam steps a setting up or down by one
func (c *Channel) ChangeParam(p Param, inc bool) int {
	if inc {
		return c.SetParam(p, c.Param(p)+1)
	}
	return c.SetParam(p, c.Param(p)-1)
}

// Reset rewinds the loop to step 0. A pulse already started keeps its
// pulse and recovery time and finishes through Run.
func (c *Channel) Reset() {
	c.step = 0
	c.tickCount = 0
	c.nextFireTick = 0
}

// TimerRollover must be called when the millisecond clock wraps to zero,
// otherwise a pending deadline could never be reached.
func (c *Channel) TimerRollover() {
	c.deadline = 0
}

// Run advances the pulse sub-state using the millisecond clock.
// The first step can be delayed but never done early.
func (c *Channel) Run(ms uint32) {
	switch c.state {
	case StatePulse:
		c.out.SetPin(c.pin, !c.invert)
		c.deadline = ms + uint32(c.pulseMs)
		c.state = StatePulsing
	case StatePulsing:
		if after(ms, c.deadline) {
			c.out.SetPin(c.pin, c.invert)
			c.deadline = ms + uint32(c.recoverMs)
			c.state = StateRecover
		}
	case StateRecover:
		if after(ms, c.deadline) {
			c.state = StateReady
		}
	}
}

// Tick counts one subdivision and starts a pulse when the next step is due
func (c *Channel) Tick() {
	if c.state == StateReady {
		// after the last step we wait for the loop to end before step 0
		if c.step < c.activeSteps && c.tickCount >= c.nextFireTick {
			c.state = StatePulse
			c.step++
			if c.step < c.activeSteps {
				c.nextFireTick = c.bank.Active().StepTime(c.step)
			} else {
				c.nextFireTick = c.bank.Active().StepTime(0)
			}
		}
	}

	c.tickCount++
	if c.tickCount >= mutator.TicksPerStep*c.activeSteps {
		// only return to step 0 at the real end of the loop
		c.tickCount = 0
		c.step = 0
	}
}

// State returns the pulse sub-state
func (c *Channel) State() State {
	return c.state
}

// Step returns the index of the next step to fire
func (c *Channel) Step() int {
	return c.step
}

// TickCount returns the position within the loop in ticks
func (c *Channel) TickCount() int {
	return c.tickCount
}

// NextFireTick returns the tick at which the next step fires
func (c *Channel) NextFireTick() int {
	return c.nextFireTick
}

// after reports whether ms is past deadline, treating the clock as modular
func after(ms, deadline uint32) bool {
	return int32(ms-deadline) > 0
}

func clamp(v, lo, hi int) int {
	return max(min(v, hi), lo)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
