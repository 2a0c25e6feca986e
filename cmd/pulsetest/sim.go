package main

import (
	"fmt"
	"io"
	"strings"

	"synch-twister/gpio"
	"synch-twister/mutator"
	"synch-twister/sequencer"
	"synch-twister/synch"
)

type simOptions struct {
	BPM   int
	Loops int

	Steps     int
	PulseMs   int
	RecoverMs int
	Invert    bool

	Mutator   string
	Amount    int
	Seed      int
	Intensity int
}

func defaultSimOptions() simOptions {
	return simOptions{
		BPM:       sequencer.DefaultTempo,
		Loops:     1,
		Steps:     16,
		PulseMs:   15,
		RecoverMs: 10,
		Mutator:   "none",
		Amount:    50,
		Seed:      1,
		Intensity: 20,
	}
}

func parseKind(name string) (mutator.Kind, error) {
	for k := mutator.Kind(0); k < mutator.NumKinds; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown mutator %q", name)
}

// simulate runs one channel against a simulated millisecond clock and
// prints every output edge
func simulate(w io.Writer, opts simOptions) error {
	kind, err := parseKind(opts.Mutator)
	if err != nil {
		return err
	}
	if opts.Loops < 1 {
		return fmt.Errorf("loops must be at least 1")
	}

	var now uint32
	rec := gpio.NewRecorder(func() uint32 { return now })
	mgr := sequencer.NewManager(rec, []gpio.Pin{0})
	mgr.SetTempo(opts.BPM)

	mgr.WithChannel(0, func(c *synch.Channel) {
		c.SetParam(synch.ParamSteps, opts.Steps)
		c.SetParam(synch.ParamPulseMs, opts.PulseMs)
		c.SetParam(synch.ParamRecoverMs, opts.RecoverMs)
		c.SetParam(synch.ParamInvert, boolToInt(opts.Invert))
		c.SetParam(synch.ParamMutator, int(kind))
		mut := c.Mutator()
		switch kind {
		case mutator.KindSwing:
			mut.SetParam(mutator.SwingAmount, opts.Amount)
		case mutator.KindRandom:
			mut.SetParam(mutator.RandomSeed, opts.Seed)
			mut.SetParam(mutator.RandomIntensity, opts.Intensity)
		}
		// settings are clamped, report what was actually used
		opts.Steps = c.Param(synch.ParamSteps)
	})

	bpm := int64(mgr.Tempo())
	tickAt := func(tick int64) uint32 {
		return uint32(tick * 60000 / (bpm * mutator.TicksPerBeat))
	}
	totalTicks := int64(opts.Loops * opts.Steps * mutator.TicksPerStep)
	end := tickAt(totalTicks)

	mgr.Play()
	var tick int64
	for now = 0; now < end; now++ {
		for tick < totalTicks && tickAt(tick) <= now {
			mgr.Tick()
			tick++
		}
		mgr.Run(now)
	}
	// let the last pulse finish
	mgr.Stop()
	for stop := now + 1000; now < stop; now++ {
		mgr.Run(now)
	}

	fmt.Fprintf(w, "%d bpm, %d steps x %d loops, mutator %s\n", bpm, opts.Steps, opts.Loops, kind)
	fmt.Fprintf(w, "%10s  %-5s  %s\n", "time", "level", "since last pulse")

	var lastRise uint32
	first := true
	active := !opts.Invert
	for _, e := range rec.Edges() {
		level := "LOW"
		if e.High {
			level = "HIGH"
		}
		since := ""
		if e.High == active {
			if !first {
				since = fmt.Sprintf("+%dms", e.Millis-lastRise)
			}
			lastRise, first = e.Millis, false
		}
		fmt.Fprintf(w, "%8dms  %-5s  %s\n", e.Millis, level, since)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
