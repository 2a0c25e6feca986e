package mutator

import (
	"math/rand"
)

// Timing grid shared by every channel on the device
const (
	TicksPerBeat = 96
	TicksPerStep = 24
	MaxSteps     = 99
)

// Kind identifies a step timing strategy
type Kind uint8

const (
	KindNull Kind = iota
	KindSwing
	KindRandom
	NumKinds
)

// Parameter indices for the variants that have them
const (
	SwingAmount = 0

	RandomSeed      = 0
	RandomIntensity = 1
)

// ParamInfo describes one mutator parameter for the front panel
type ParamInfo struct {
	Label string
	Min   int
	Max   int
}

var paramInfo = [NumKinds][]ParamInfo{
	KindNull:   nil,
	KindSwing:  {{Label: "AMT", Min: 1, Max: 99}},
	KindRandom: {{Label: "SEED", Min: 0, Max: 999}, {Label: "INT", Min: 0, Max: 100}},
}

var names = [NumKinds]string{
	KindNull:   "NONE",
	KindSwing:  "SHUF",
	KindRandom: "RAND",
}

// Mutator maps a step index to the tick at which that step fires.
// It is a closed variant: the kind selects which of the parameter
// fields are meaningful.
type Mutator struct {
	kind Kind

	// Swing
	amount int

	// Random
	seed      int
	intensity int
	rng       *rand.Rand
}

// New creates a mutator of the given kind with its default parameters.
// Unknown kinds produce a Null mutator.
func New(kind Kind) *Mutator {
	switch kind {
	case KindSwing:
		return &Mutator{kind: KindSwing, amount: 50}
	case KindRandom:
		return &Mutator{
			kind:      KindRandom,
			seed:      1,
			intensity: 20,
			rng:       rand.New(rand.NewSource(1)),
		}
	default:
		return &Mutator{kind: KindNull}
	}
}

// Kinds returns every known kind in selector order
func Kinds() []Kind {
	return []Kind{KindNull, KindSwing, KindRandom}
}

// Kind returns the variant tag
func (m *Mutator) Kind() Kind {
	return m.kind
}

// Name returns the four character display code
func (m *Mutator) Name() string {
	return names[m.kind]
}

func (k Kind) String() string {
	if k < NumKinds {
		return names[k]
	}
	return "????"
}

// StepTime returns the absolute tick, counted from the start of the loop,
// at which the pulse for step s fires. The result is never negative.
func (m *Mutator) StepTime(s int) int {
	var t int
	switch m.kind {
	case KindSwing:
		if s%2 == 1 {
			t = TicksPerStep*(s-1) + int(float64(m.amount)*TicksPerStep/50.0)
		} else {
			t = TicksPerStep * s
		}
	case KindRandom:
		if m.seed != 0 {
			m.rng.Seed(int64(m.seed + s))
		}
		z := float64(m.rng.Intn(1000)-m.rng.Intn(1000)) / 1000.0
		t = int(float64(TicksPerStep*s) + float64(m.intensity)*z*TicksPerStep/100.0)
	default:
		t = TicksPerStep * s
	}
	return max(t, 0)
}

// NumParams returns how many parameters the variant recognises
func (m *Mutator) NumParams() int {
	return len(paramInfo[m.kind])
}

// ParamInfo returns the label and range of a parameter.
// The zero value is returned for an index the variant does not have.
func (m *Mutator) ParamInfo(index int) ParamInfo {
	if index < 0 || index >= m.NumParams() {
		return ParamInfo{}
	}
	return paramInfo[m.kind][index]
}

// Param returns the current value of a parameter (0 for an unknown index)
func (m *Mutator) Param(index int) int {
	if index < 0 || index >= m.NumParams() {
		return 0
	}
	switch m.kind {
	case KindSwing:
		return m.amount
	case KindRandom:
		if index == RandomIntensity {
			return m.intensity
		}
		return m.seed
	default:
		return 0
	}
}

// SetParam clamps value into the parameter's range, stores it and
// returns the stored value
func (m *Mutator) SetParam(index int, value int) int {
	if index < 0 || index >= m.NumParams() {
		return 0
	}
	switch m.kind {
	case KindSwing:
		m.amount = clamp(value, 1, 99)
		return m.amount
	case KindRandom:
		if index == RandomIntensity {
			m.intensity = clamp(value, 0, 100)
			return m.intensity
		}
		m.seed = clamp(value, 0, 999)
		return m.seed
	default:
		return 0
	}
}

// IncParam steps a parameter up by one
func (m *Mutator) IncParam(index int) int {
	return m.SetParam(index, m.Param(index)+1)
}

// DecParam steps a parameter down by one
func (m *Mutator) DecParam(index int) int {
	return m.SetParam(index, m.Param(index)-1)
}

// ChangeParam is IncParam when inc is set, DecParam otherwise
func (m *Mutator) ChangeParam(index int, inc bool) int {
	if inc {
		return m.IncParam(index)
	}
	return m.DecParam(index)
}

func clamp(v, lo, hi int) int {
	return max(min(v, hi), lo)
}
