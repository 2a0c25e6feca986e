package synch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synch-twister/gpio"
	"synch-twister/mutator"
)

// rig drives a channel the way the host loop does: one Tick per tick
// period, Run once per millisecond.
type rig struct {
	now uint32
	rec *gpio.Recorder
	ch  *Channel
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{}
	r.rec = gpio.NewRecorder(func() uint32 { return r.now })
	r.ch = NewChannel(7, r.rec)
	return r
}

// drive runs n ticks of msPerTick milliseconds each and returns the loop
// position (tick count) of every tick that started a pulse
func (r *rig) drive(n, msPerTick int) []int {
	var fired []int
	for i := 0; i < n; i++ {
		tick := r.ch.TickCount()
		r.ch.Tick()
		for j := 0; j < msPerTick; j++ {
			if r.ch.State() == StatePulse {
				fired = append(fired, tick)
			}
			r.ch.Run(r.now)
			r.now++
		}
	}
	return fired
}

func TestDefaults(t *testing.T) {
	c := NewChannel(1, nil)
	assert.Equal(t, 16, c.Param(ParamSteps))
	assert.Equal(t, 15, c.Param(ParamPulseMs))
	assert.Equal(t, 10, c.Param(ParamRecoverMs))
	assert.Equal(t, 0, c.Param(ParamInvert))
	assert.Equal(t, 1, c.Param(ParamDivider))
	assert.Equal(t, 0, c.Param(ParamMutator))
	assert.Equal(t, "NONE", c.Mutator().Name())
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, gpio.Pin(1), c.Pin())
}

func TestParamClamping(t *testing.T) {
	tests := []struct {
		param Param
		in    int
		want  int
	}{
		{ParamSteps, 0, 1},
		{ParamSteps, 100, 99},
		{ParamSteps, 32, 32},
		{ParamDivider, -4, 1},
		{ParamDivider, 120, 99},
		{ParamPulseMs, 0, 1},
		{ParamPulseMs, 255, 99},
		{ParamRecoverMs, -1, 1},
		{ParamRecoverMs, 1000, 99},
		{ParamInvert, 5, 1},
		{ParamInvert, -5, 0},
		{ParamMutator, 9, int(mutator.NumKinds) - 1},
		{ParamMutator, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.param.String(), func(t *testing.T) {
			c := NewChannel(0, nil)
			assert.Equal(t, tt.want, c.SetParam(tt.param, tt.in))
			assert.Equal(t, tt.want, c.Param(tt.param))
		})
	}

	c := NewChannel(0, nil)
	assert.Equal(t, 0, c.SetParam(NumParams, 5))
	assert.Equal(t, 0, c.Param(Param(-1)))
}

func TestChangeParam(t *testing.T) {
	c := NewChannel(0, nil)
	assert.Equal(t, 17, c.ChangeParam(ParamSteps, true))
	assert.Equal(t, 16, c.ChangeParam(ParamSteps, false))
	c.SetParam(ParamPulseMs, 1)
	assert.Equal(t, 1, c.ChangeParam(ParamPulseMs, false))
	assert.Equal(t, 1, c.ChangeParam(ParamInvert, true))
	assert.Equal(t, 1, c.ChangeParam(ParamInvert, true))
}

func TestMutatorSelectionKeepsTuning(t *testing.T) {
	c := NewChannel(0, nil)
	c.SetParam(ParamMutator, int(mutator.KindSwing))
	assert.Equal(t, "SHUF", c.Mutator().Name())
	c.Mutator().SetParam(mutator.SwingAmount, 80)

	c.SetParam(ParamMutator, int(mutator.KindRandom))
	assert.Equal(t, "RAND", c.Mutator().Name())

	c.ChangeParam(ParamMutator, false)
	assert.Equal(t, 80, c.Mutator().Param(mutator.SwingAmount))
	assert.Same(t, c.Bank().Get(mutator.KindSwing), c.Mutator())
}

func TestEndToEndSixteenSteps(t *testing.T) {
	r := newRig(t)
	loop := mutator.TicksPerStep * 16

	fired := r.drive(loop, 5)

	want := make([]int, 16)
	for i := range want {
		want[i] = i * mutator.TicksPerStep
	}
	assert.Equal(t, want, fired)

	edges := r.rec.Edges()
	require.Len(t, edges, 32)
	for i := 0; i < len(edges); i += 2 {
		on, off := edges[i], edges[i+1]
		assert.True(t, on.High)
		assert.False(t, off.High)
		assert.Equal(t, gpio.Pin(7), on.Pin)
		assert.GreaterOrEqual(t, off.Millis-on.Millis, uint32(15))
		if i+2 < len(edges) {
			next := edges[i+2]
			assert.GreaterOrEqual(t, next.Millis-off.Millis, uint32(10))
		}
	}
	assert.Equal(t, 0, r.ch.TickCount())
	assert.Equal(t, 0, r.ch.Step())
}

func TestSecondLoopRepeats(t *testing.T) {
	r := newRig(t)
	r.ch.SetParam(ParamSteps, 4)
	loop := mutator.TicksPerStep * 4

	first := r.drive(loop, 5)
	second := r.drive(loop, 5)
	assert.Equal(t, []int{0, 24, 48, 72}, first)
	assert.Equal(t, first, second)
}

func TestLivenessOneCyclePerStep(t *testing.T) {
	c := NewChannel(0, gpio.Nop{})
	c.SetParam(ParamSteps, 4)

	var now uint32
	for step := 0; step < 4; step++ {
		var seen []State
		for i := 0; i < mutator.TicksPerStep; i++ {
			c.Tick()
		}
		// the pulse was started by the first of those ticks
		last := c.State()
		seen = append(seen, last)
		for i := 0; i < 200; i++ {
			now++
			c.Run(now)
			if c.State() != last {
				last = c.State()
				seen = append(seen, last)
			}
		}
		assert.Equal(t, []State{StatePulse, StatePulsing, StateRecover, StateReady}, seen, "step %d", step)
	}
}

func TestPulsesKeepMinimumGap(t *testing.T) {
	r := newRig(t)
	r.ch.SetParam(ParamMutator, int(mutator.KindSwing))
	r.ch.Mutator().SetParam(mutator.SwingAmount, 99)

	// one millisecond per tick puts steps 24ms apart, closer than a
	// full pulse and recovery
	r.drive(mutator.TicksPerStep*16*2, 1)

	edges := r.rec.Edges()
	require.NotEmpty(t, edges)
	minGap := uint32(r.ch.Param(ParamPulseMs) + r.ch.Param(ParamRecoverMs))
	var lastOn uint32
	haveOn := false
	for _, e := range edges {
		if !e.High {
			continue
		}
		if haveOn {
			assert.GreaterOrEqual(t, e.Millis-lastOn, minGap)
		}
		lastOn = e.Millis
		haveOn = true
	}
}

func TestStepsNeverFireEarly(t *testing.T) {
	r := newRig(t)
	r.ch.SetParam(ParamSteps, 8)
	r.ch.SetParam(ParamMutator, int(mutator.KindSwing))
	m := r.ch.Mutator()
	m.SetParam(mutator.SwingAmount, 99)

	fired := r.drive(mutator.TicksPerStep*8, 5)
	require.NotEmpty(t, fired)
	assert.Equal(t, 0, fired[0])
	for i, tick := range fired {
		assert.GreaterOrEqual(t, tick, m.StepTime(i), "step %d", i)
	}
	// step 1 is swung to 24*99/50 = 47
	assert.Equal(t, 47, fired[1])
}

func TestWrapIgnoresPulseState(t *testing.T) {
	c := NewChannel(0, gpio.Nop{})
	c.SetParam(ParamSteps, 4)

	for i := 0; i < mutator.TicksPerStep*4-1; i++ {
		c.Tick()
		assert.NotZero(t, c.TickCount())
	}
	// Run was never called so the first pulse is still pending
	assert.Equal(t, StatePulse, c.State())
	assert.Equal(t, 1, c.Step())

	c.Tick()
	assert.Equal(t, 0, c.TickCount())
	assert.Equal(t, 0, c.Step())
	assert.Equal(t, StatePulse, c.State())
}

func TestInvertFlipsPolarity(t *testing.T) {
	r := newRig(t)
	r.ch.SetParam(ParamInvert, 1)
	r.drive(mutator.TicksPerStep, 5)

	edges := r.rec.Edges()
	require.Len(t, edges, 2)
	assert.False(t, edges[0].High)
	assert.True(t, edges[1].High)
}

func TestTimerRolloverUnsticksDeadline(t *testing.T) {
	c := NewChannel(0, gpio.Nop{})
	c.Tick()
	c.Run(1000)
	require.Equal(t, StatePulsing, c.State())

	// the clock wrapped: 3 is "before" the 1015 deadline
	c.Run(3)
	assert.Equal(t, StatePulsing, c.State())

	c.TimerRollover()
	c.Run(3)
	assert.Equal(t, StateRecover, c.State())
}

func TestDeadlineAcrossClockWrap(t *testing.T) {
	c := NewChannel(0, gpio.Nop{})
	c.Tick()
	start := uint32(math.MaxUint32 - 5)
	c.Run(start)
	require.Equal(t, StatePulsing, c.State())

	// deadline is start+15 which wraps to 9
	c.Run(math.MaxUint32)
	assert.Equal(t, StatePulsing, c.State())
	c.Run(9)
	assert.Equal(t, StatePulsing, c.State())
	c.Run(10)
	assert.Equal(t, StateRecover, c.State())
}

func TestResetRewinds(t *testing.T) {
	c := NewChannel(0, gpio.Nop{})
	for i := 0; i < 30; i++ {
		c.Tick()
	}
	c.Reset()
	assert.Equal(t, 0, c.Step())
	assert.Equal(t, 0, c.TickCount())
	assert.Equal(t, 0, c.NextFireTick())
	// the pulse started on tick 0 is still owed
	assert.Equal(t, StatePulse, c.State())
}

func TestResetLetsPulseFinish(t *testing.T) {
	r := newRig(t)
	r.ch.Tick()
	for ; r.now < 18; r.now++ {
		r.ch.Run(r.now)
	}
	require.Equal(t, StateRecover, r.ch.State())

	// rewinding during recovery must not allow an early pulse
	r.ch.Reset()
	for ; r.now < 100; r.now++ {
		if r.now%5 == 0 {
			r.ch.Tick()
		}
		r.ch.Run(r.now)
	}

	edges := r.rec.Edges()
	require.GreaterOrEqual(t, len(edges), 3)
	assert.True(t, edges[2].High)
	assert.GreaterOrEqual(t, int(edges[2].Millis-edges[1].Millis), 10)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "READY", StateReady.String())
	assert.Equal(t, "PULSING", StatePulsing.String())
	assert.Equal(t, "STEP", ParamSteps.String())
	assert.Equal(t, "?", NumParams.String())
}
