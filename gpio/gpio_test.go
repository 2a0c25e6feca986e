package gpio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatchTracksLevels(t *testing.T) {
	l := NewLatch()
	l.SetPin(3, true)
	l.SetPin(5, true)
	assert.True(t, l.Level(3))
	assert.True(t, l.Level(5))
	assert.False(t, l.Level(4))
	assert.Equal(t, uint32(1<<3|1<<5), l.Levels())

	l.SetPin(3, false)
	assert.False(t, l.Level(3))
	assert.True(t, l.Level(5))

	l.SetPin(40, true)
	assert.False(t, l.Level(40))
}

func TestLatchConcurrentWriters(t *testing.T) {
	l := NewLatch()
	var wg sync.WaitGroup
	for p := Pin(0); p < 8; p++ {
		wg.Add(1)
		go func(p Pin) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.SetPin(p, i%2 == 0)
			}
			l.SetPin(p, true)
		}(p)
	}
	wg.Wait()
	assert.Equal(t, uint32(0xFF), l.Levels())
}

func TestRecorderStampsWrites(t *testing.T) {
	var now uint32 = 10
	r := NewRecorder(func() uint32 { return now })
	r.SetPin(1, true)
	now = 26
	r.SetPin(1, false)

	edges := r.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{Pin: 1, High: true, Millis: 10}, edges[0])
	assert.Equal(t, Edge{Pin: 1, High: false, Millis: 26}, edges[1])

	r.Reset()
	assert.Empty(t, r.Edges())
}

func TestMultiFansOut(t *testing.T) {
	a := NewLatch()
	b := NewRecorder(nil)
	out := Multi(a, b, Nop{})
	out.SetPin(2, true)
	assert.True(t, a.Level(2))
	assert.Len(t, b.Edges(), 1)
}
