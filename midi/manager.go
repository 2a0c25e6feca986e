package midi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"synch-twister/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrScanTimeout is returned when the MIDI backend does not answer a port scan
var ErrScanTimeout = errors.New("MIDI port scan timed out")

const scanTimeout = 3 * time.Second

type portRef struct {
	dir Direction
	in  drivers.In
	out drivers.Out
}

// DeviceManager watches for the configured clock input and trigger
// output ports and reports when they come and go
type DeviceManager struct {
	wantIn  string // clock input name (substring match, "" = none)
	wantOut string // trigger output name

	connected map[string]Direction
	mu        sync.RWMutex
	events    chan PortEvent
	pollRate  time.Duration
}

// NewDeviceManager creates a device manager watching the named ports
func NewDeviceManager(inName, outName string) *DeviceManager {
	return &DeviceManager{
		wantIn:    inName,
		wantOut:   outName,
		connected: make(map[string]Direction),
		events:    make(chan PortEvent, 16),
		pollRate:  time.Second,
	}
}

// Events returns a channel of port connect/disconnect events
func (dm *DeviceManager) Events() <-chan PortEvent {
	return dm.events
}

// Connected returns a snapshot of connected watched ports
func (dm *DeviceManager) Connected() map[string]Direction {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Direction, len(dm.connected))
	for k, v := range dm.connected {
		copy[k] = v
	}
	return copy
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	if dm.wantIn == "" && dm.wantOut == "" {
		return
	}

	ins, outs, err := getPorts()
	if err != nil {
		// backend is hung - skip this scan
		debug.Log("ports", "scan: %v", err)
		return
	}

	seen := make(map[string]portRef)
	if dm.wantIn != "" {
		for _, in := range ins {
			if matchPort(in.String(), dm.wantIn) {
				seen[in.String()] = portRef{dir: DirIn, in: in}
				break
			}
		}
	}
	if dm.wantOut != "" {
		for _, out := range outs {
			if matchPort(out.String(), dm.wantOut) {
				seen[out.String()] = portRef{dir: DirOut, out: out}
				break
			}
		}
	}
	dm.reconcile(seen)
}

// reconcile emits events for ports that appeared or vanished since the
// last scan
func (dm *DeviceManager) reconcile(seen map[string]portRef) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	for name, ref := range seen {
		if _, ok := dm.connected[name]; ok {
			continue
		}
		dm.connected[name] = ref.dir
		debug.Log("ports", "connected %s (%s)", name, ref.dir)
		dm.emit(PortEvent{Type: PortConnected, Dir: ref.dir, Name: name, In: ref.in, Out: ref.out})
	}

	var gone []string
	for name := range dm.connected {
		if _, ok := seen[name]; !ok {
			gone = append(gone, name)
		}
	}
	for _, name := range gone {
		dir := dm.connected[name]
		delete(dm.connected, name)
		debug.Log("ports", "disconnected %s (%s)", name, dir)
		dm.emit(PortEvent{Type: PortDisconnected, Dir: dir, Name: name})
	}
}

// emit must be called with mu held
func (dm *DeviceManager) emit(ev PortEvent) {
	select {
	case dm.events <- ev:
	default:
		debug.Log("ports", "event queue full, dropped %s", ev.Name)
	}
}

// ListPorts returns the names of every MIDI input and output port
func ListPorts() (ins, outs []string, err error) {
	inPorts, outPorts, err := getPorts()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// getPorts asks the driver for ports with a timeout (CoreMIDI can hang)
func getPorts() ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		ins  []drivers.In
		outs []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, nil
	case <-time.After(scanTimeout):
		return nil, nil, ErrScanTimeout
	}
}

func matchPort(name, want string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(want))
}
