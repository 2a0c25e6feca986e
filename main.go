package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"synch-twister/config"
	"synch-twister/debug"
	"synch-twister/gpio"
	"synch-twister/midi"
	"synch-twister/mutator"
	"synch-twister/sequencer"
	"synch-twister/theme"
	"synch-twister/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/synch-twister/config.json)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Warning: debug log disabled: %v\n", err)
		}
	}
	defer debug.Disable()

	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		fmt.Printf("Warning: %v, using default palette\n", err)
		th = theme.New(theme.DefaultPalette())
	}

	// Outputs: the latch feeds the TUI, the trigger out plays notes
	latch := gpio.NewLatch()
	notes := make(map[gpio.Pin]uint8, len(cfg.Output.Outputs))
	var pins []gpio.Pin
	for _, o := range cfg.Output.Outputs {
		notes[gpio.Pin(o.Pin)] = o.Note
		pins = append(pins, gpio.Pin(o.Pin))
	}
	trigger := midi.NewTriggerOut(cfg.Output.Channel, notes)
	defer trigger.Close()

	manager := sequencer.NewManager(gpio.Multi(latch, trigger), pins)
	manager.SetTempo(cfg.Clock.BPM)
	if cfg.Clock.Source == config.ClockMIDI {
		manager.SetClockSource(sequencer.ClockExternal)
	}

	clock := midi.NewClockIn(manager, mutator.TicksPerBeat)
	defer clock.Close()

	// Watch for the clock input and trigger output (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.Clock.InputPort, cfg.Output.PortName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)
	go trigger.Run(ctx)
	manager.StartRuntime(ctx)

	debug.Log("main", "started: %d channels, %d bpm, %s clock", manager.NumChannels(), manager.Tempo(), manager.ClockSource())

	m := tui.NewModel(manager, deviceMgr, clock, trigger, latch, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}
