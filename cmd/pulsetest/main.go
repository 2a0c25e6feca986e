package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"synch-twister/config"
	"synch-twister/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "sim":
		err = runSim(os.Args[2:])
	case "config":
		err = writeConfig(os.Args[2:])
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Pulse Test Tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - List all MIDI ports")
	fmt.Println("  sim     - Print the pulse timeline of one channel")
	fmt.Println("  config  - Write the default config file")
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	ins, outs, err := midi.ListPorts()
	if err != nil {
		fmt.Println("\nTIMEOUT! The MIDI service is not answering.")
		fmt.Println("macOS fix: sudo killall coreaudiod midiserver")
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func runSim(args []string) error {
	opts := defaultSimOptions()
	fs := flag.NewFlagSet("sim", flag.ContinueOnError)
	fs.IntVar(&opts.BPM, "bpm", opts.BPM, "tempo")
	fs.IntVar(&opts.Loops, "loops", opts.Loops, "number of loops to run")
	fs.IntVar(&opts.Steps, "steps", opts.Steps, "steps per loop")
	fs.IntVar(&opts.PulseMs, "pulse", opts.PulseMs, "pulse width in ms")
	fs.IntVar(&opts.RecoverMs, "recover", opts.RecoverMs, "recovery time in ms")
	fs.BoolVar(&opts.Invert, "invert", opts.Invert, "active-low output")
	fs.StringVar(&opts.Mutator, "mutator", opts.Mutator, "none, shuf or rand")
	fs.IntVar(&opts.Amount, "amount", opts.Amount, "swing amount (shuf)")
	fs.IntVar(&opts.Seed, "seed", opts.Seed, "seed (rand, 0 = free running)")
	fs.IntVar(&opts.Intensity, "intensity", opts.Intensity, "intensity (rand)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return simulate(os.Stdout, opts)
}

func writeConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	path := fs.String("o", "", "output file (.json, .yaml or .yml; default ~/.config/synch-twister/config.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	var err error
	if *path == "" {
		err = cfg.Save()
	} else {
		err = cfg.SaveFile(*path)
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	where := *path
	if where == "" {
		where, _ = config.ConfigPath()
	}
	fmt.Printf("Wrote %s (%d outputs: pins %s)\n", where, len(cfg.Output.Outputs), pinList(cfg.Pins()))
	return nil
}

func pinList(pins []uint8) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ",")
}
