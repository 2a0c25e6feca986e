package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullIsStraight(t *testing.T) {
	m := New(KindNull)
	assert.Equal(t, "NONE", m.Name())
	assert.Equal(t, 0, m.NumParams())

	prev := -1
	for s := 0; s < 16; s++ {
		got := m.StepTime(s)
		assert.Equal(t, TicksPerStep*s, got)
		assert.Greater(t, got, prev)
		prev = got
	}
}

func TestNullParamsAreInert(t *testing.T) {
	m := New(KindNull)
	assert.Equal(t, 0, m.SetParam(0, 42))
	assert.Equal(t, 0, m.Param(0))
	assert.Equal(t, 0, m.IncParam(0))
	assert.Equal(t, ParamInfo{}, m.ParamInfo(0))
}

func TestSwingMidpointMatchesNull(t *testing.T) {
	swing := New(KindSwing)
	null := New(KindNull)
	require.Equal(t, 50, swing.Param(SwingAmount))

	for s := 0; s < MaxSteps; s++ {
		assert.Equal(t, null.StepTime(s), swing.StepTime(s), "step %d", s)
	}
}

func TestSwingAmountOnlyMovesOddSteps(t *testing.T) {
	early := New(KindSwing)
	late := New(KindSwing)
	early.SetParam(SwingAmount, 1)
	late.SetParam(SwingAmount, 99)

	for s := 0; s < 32; s++ {
		if s%2 == 0 {
			assert.Equal(t, TicksPerStep*s, early.StepTime(s))
			assert.Equal(t, TicksPerStep*s, late.StepTime(s))
			continue
		}
		assert.Less(t, early.StepTime(s), late.StepTime(s), "step %d", s)
	}

	// odd step positions grow with the amount
	m := New(KindSwing)
	prev := -1
	for amt := 1; amt <= 99; amt++ {
		m.SetParam(SwingAmount, amt)
		got := m.StepTime(3)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestSwingExactOffsets(t *testing.T) {
	m := New(KindSwing)
	m.SetParam(SwingAmount, 75)
	// 24*(1-1) + 75*24/50 = 36
	assert.Equal(t, 36, m.StepTime(1))
	// 24*2 + 36 = 84
	assert.Equal(t, 84, m.StepTime(3))
	assert.Equal(t, 48, m.StepTime(2))
}

func TestRandomIsReproducibleWithSeed(t *testing.T) {
	a := New(KindRandom)
	b := New(KindRandom)
	for _, m := range []*Mutator{a, b} {
		m.SetParam(RandomSeed, 123)
		m.SetParam(RandomIntensity, 80)
	}

	first := make([]int, 16)
	for s := range first {
		first[s] = a.StepTime(s)
	}
	// evaluate in a different order on a second instance
	for s := 15; s >= 0; s-- {
		assert.Equal(t, first[s], b.StepTime(s), "step %d", s)
	}
	// and again on the first instance
	for s := range first {
		assert.Equal(t, first[s], a.StepTime(s), "step %d", s)
	}
}

func TestRandomJitterIsBounded(t *testing.T) {
	m := New(KindRandom)
	m.SetParam(RandomIntensity, 100)
	for seed := 1; seed < 50; seed++ {
		m.SetParam(RandomSeed, seed)
		for s := 0; s < 16; s++ {
			got := m.StepTime(s)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, TicksPerStep*(s+1))
			assert.GreaterOrEqual(t, got, TicksPerStep*(s-1))
		}
	}
}

func TestRandomZeroIntensityIsStraight(t *testing.T) {
	m := New(KindRandom)
	m.SetParam(RandomIntensity, 0)
	for s := 0; s < 16; s++ {
		assert.Equal(t, TicksPerStep*s, m.StepTime(s))
	}
}

func TestRandomFreeRunningNeverNegative(t *testing.T) {
	m := New(KindRandom)
	m.SetParam(RandomSeed, 0)
	m.SetParam(RandomIntensity, 100)
	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, m.StepTime(0), 0)
	}
}

func TestParamClamping(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		index int
		value int
		want  int
	}{
		{"swing low", KindSwing, SwingAmount, -5, 1},
		{"swing high", KindSwing, SwingAmount, 500, 99},
		{"swing in range", KindSwing, SwingAmount, 66, 66},
		{"intensity low", KindRandom, RandomIntensity, -1, 0},
		{"intensity high", KindRandom, RandomIntensity, 101, 100},
		{"seed low", KindRandom, RandomSeed, -10, 0},
		{"seed high", KindRandom, RandomSeed, 1000, 999},
		{"swing unknown index", KindSwing, 1, 40, 0},
		{"random unknown index", KindRandom, 2, 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.kind)
			got := m.SetParam(tt.index, tt.value)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, m.Param(tt.index))
			info := m.ParamInfo(tt.index)
			assert.GreaterOrEqual(t, got, info.Min)
			assert.LessOrEqual(t, got, info.Max)
		})
	}
}

func TestIncDecStopAtLimits(t *testing.T) {
	m := New(KindSwing)
	m.SetParam(SwingAmount, 99)
	assert.Equal(t, 99, m.IncParam(SwingAmount))
	assert.Equal(t, 98, m.DecParam(SwingAmount))
	assert.Equal(t, 99, m.ChangeParam(SwingAmount, true))

	r := New(KindRandom)
	r.SetParam(RandomIntensity, 0)
	assert.Equal(t, 0, r.DecParam(RandomIntensity))
	assert.Equal(t, 1, r.IncParam(RandomIntensity))
	assert.Equal(t, 1, r.Param(RandomSeed), "seed untouched")
}

func TestNewUnknownKindIsNull(t *testing.T) {
	m := New(Kind(42))
	assert.Equal(t, KindNull, m.Kind())
	assert.Equal(t, "????", Kind(42).String())
}
