package midi

import (
	"context"
	"fmt"
	"sync"

	"synch-twister/debug"
	"synch-twister/gpio"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// How many notes may wait for the sender before new ones are dropped
const triggerQueueSize = 256

// TriggerOut is a gpio.Output that mirrors pin levels as MIDI notes:
// a high level sends NoteOn, a low level NoteOff. SetPin only queues the
// message; Run does the sending, so the driver never blocks the caller.
type TriggerOut struct {
	channel uint8 // 0-15
	notes   map[gpio.Pin]uint8
	queue   chan gomidi.Message

	mu       sync.RWMutex
	send     func(gomidi.Message) error
	portName string
}

// NewTriggerOut creates a trigger output on MIDI channel (1-16) with a
// note per pin. Pins without a note are ignored.
func NewTriggerOut(channel int, notes map[gpio.Pin]uint8) *TriggerOut {
	ch := max(min(channel, 16), 1)
	return &TriggerOut{
		channel: uint8(ch - 1),
		notes:   notes,
		queue:   make(chan gomidi.Message, triggerQueueSize),
	}
}

// Run sends queued notes until ctx is cancelled (blocking - run in goroutine)
func (t *TriggerOut) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.queue:
			t.mu.RLock()
			send := t.send
			t.mu.RUnlock()
			if send == nil {
				continue
			}
			if err := send(msg); err != nil {
				debug.LogEvery(100, "trigger", "send failed: %v", err)
			}
		}
	}
}

// Open starts sending to an output port
func (t *TriggerOut) Open(out drivers.Out) error {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output %s: %w", out.String(), err)
	}
	t.mu.Lock()
	t.send = send
	t.portName = out.String()
	t.mu.Unlock()
	debug.Log("trigger", "sending triggers to %s", out.String())
	return nil
}

// SetSender replaces the send function (nil disconnects)
func (t *TriggerOut) SetSender(send func(gomidi.Message) error) {
	t.mu.Lock()
	t.send = send
	t.mu.Unlock()
}

// Close stops sending
func (t *TriggerOut) Close() {
	t.mu.Lock()
	t.send = nil
	t.portName = ""
	t.mu.Unlock()
}

// PortName returns the connected port ("" if none)
func (t *TriggerOut) PortName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.portName
}

// SetPin queues the note for pin. Nothing is queued while no port is open.
func (t *TriggerOut) SetPin(pin gpio.Pin, high bool) {
	note, ok := t.notes[pin]
	if !ok {
		return
	}
	t.mu.RLock()
	send := t.send
	t.mu.RUnlock()
	if send == nil {
		return
	}

	msg := gomidi.NoteOff(t.channel, note)
	if high {
		msg = gomidi.NoteOn(t.channel, note, 127)
	}
	select {
	case t.queue <- msg:
	default:
		debug.LogEvery(100, "trigger", "queue full, dropped note %d", note)
	}
}
