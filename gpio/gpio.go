package gpio

import (
	"sync"
	"sync/atomic"
)

// Pin identifies a digital output line
type Pin uint8

// MaxLatchPins is how many pins a Latch can track
const MaxLatchPins = 32

// Output is the electrical write primitive used by the pulse engine.
// Implementations must return quickly: it is called from the timing path.
type Output interface {
	SetPin(pin Pin, high bool)
}

// Nop discards every write
type Nop struct{}

func (Nop) SetPin(pin Pin, high bool) {}

// Multi fans a write out to several outputs, in order
func Multi(outs ...Output) Output {
	return multi(outs)
}

type multi []Output

func (m multi) SetPin(pin Pin, high bool) {
	for _, o := range m {
		o.SetPin(pin, high)
	}
}

// Latch remembers the last level written to each pin.
// Levels live in a single atomic word so another goroutine (the
// front panel) can read them while the timing loop writes.
type Latch struct {
	levels atomic.Uint32
}

// NewLatch creates a latch with every pin low
func NewLatch() *Latch {
	return &Latch{}
}

func (l *Latch) SetPin(pin Pin, high bool) {
	if pin >= MaxLatchPins {
		return
	}
	bit := uint32(1) << pin
	for {
		old := l.levels.Load()
		next := old &^ bit
		if high {
			next = old | bit
		}
		if l.levels.CompareAndSwap(old, next) {
			return
		}
	}
}

// Level returns the last level written to pin
func (l *Latch) Level(pin Pin) bool {
	if pin >= MaxLatchPins {
		return false
	}
	return l.levels.Load()&(uint32(1)<<pin) != 0
}

// Levels returns all pin levels as a bit mask (bit n = pin n)
func (l *Latch) Levels() uint32 {
	return l.levels.Load()
}

// Edge is one recorded level change
type Edge struct {
	Pin    Pin
	High   bool
	Millis uint32
}

// Recorder keeps every write along with the time it happened.
// Used by tests and the headless simulator.
type Recorder struct {
	now   func() uint32
	mu    sync.Mutex
	edges []Edge
}

// NewRecorder creates a recorder stamping writes with now()
func NewRecorder(now func() uint32) *Recorder {
	return &Recorder{now: now}
}

func (r *Recorder) SetPin(pin Pin, high bool) {
	var ms uint32
	if r.now != nil {
		ms = r.now()
	}
	r.mu.Lock()
	r.edges = append(r.edges, Edge{Pin: pin, High: high, Millis: ms})
	r.mu.Unlock()
}

// Edges returns a copy of the recorded writes
func (r *Recorder) Edges() []Edge {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Edge, len(r.edges))
	copy(out, r.edges)
	return out
}

// Reset forgets all recorded writes
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.edges = nil
	r.mu.Unlock()
}
