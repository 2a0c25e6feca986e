package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClockSource selects what drives the tick
type ClockSource string

const (
	ClockInternal ClockSource = "internal"
	ClockMIDI     ClockSource = "midi"
)

// Tempo limits for the internal clock
const (
	MinBPM     = 20
	MaxBPM     = 300
	DefaultBPM = 120
)

// ClockConfig defines where ticks come from
type ClockConfig struct {
	Source    ClockSource `json:"source" yaml:"source"`
	BPM       int         `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	InputPort string      `json:"inputPort,omitempty" yaml:"inputPort,omitempty"` // MIDI clock input
}

// TriggerOutput maps one pulse output to a pin and a MIDI note
type TriggerOutput struct {
	Pin  uint8 `json:"pin" yaml:"pin"`
	Note uint8 `json:"note" yaml:"note"`
}

// OutputConfig defines the trigger outputs
type OutputConfig struct {
	PortName string          `json:"portName,omitempty" yaml:"portName,omitempty"`
	Channel  int             `json:"channel,omitempty" yaml:"channel,omitempty"` // MIDI channel 1-16
	Outputs  []TriggerOutput `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty" yaml:"palette,omitempty"` // GIMP .gpl file
}

// Config is the host configuration. Channel settings are never stored
// here: they always start from their defaults.
type Config struct {
	Clock  ClockConfig  `json:"clock" yaml:"clock"`
	Output OutputConfig `json:"output" yaml:"output"`
	UI     UIConfig     `json:"ui,omitempty" yaml:"ui,omitempty"`
	Debug  bool         `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Clock: ClockConfig{
			Source: ClockInternal,
			BPM:    DefaultBPM,
		},
		Output: OutputConfig{
			Channel: 10,
			Outputs: defaultOutputs(),
		},
	}
}

func defaultOutputs() []TriggerOutput {
	return []TriggerOutput{
		{Pin: 0, Note: 36},
		{Pin: 1, Note: 37},
		{Pin: 2, Note: 38},
		{Pin: 3, Note: 39},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "synch-twister"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a JSON or YAML (.yaml/.yml) config. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.Validate()
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, as YAML if the extension asks for it
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate clamps numeric fields and fills in anything missing
func (c *Config) Validate() {
	switch c.Clock.Source {
	case ClockInternal, ClockMIDI:
	default:
		c.Clock.Source = ClockInternal
	}
	if c.Clock.BPM == 0 {
		c.Clock.BPM = DefaultBPM
	}
	if c.Clock.BPM < MinBPM {
		c.Clock.BPM = MinBPM
	}
	if c.Clock.BPM > MaxBPM {
		c.Clock.BPM = MaxBPM
	}
	if c.Output.Channel < 1 {
		c.Output.Channel = 1
	}
	if c.Output.Channel > 16 {
		c.Output.Channel = 16
	}
	if len(c.Output.Outputs) == 0 {
		c.Output.Outputs = defaultOutputs()
	}
	for i := range c.Output.Outputs {
		if c.Output.Outputs[i].Note > 127 {
			c.Output.Outputs[i].Note = 127
		}
	}
}

// FindOutput finds the trigger output wired to pin
func (c *Config) FindOutput(pin uint8) *TriggerOutput {
	for i := range c.Output.Outputs {
		if c.Output.Outputs[i].Pin == pin {
			return &c.Output.Outputs[i]
		}
	}
	return nil
}

// Pins returns the pins of every configured output, in order
func (c *Config) Pins() []uint8 {
	pins := make([]uint8, len(c.Output.Outputs))
	for i, o := range c.Output.Outputs {
		pins[i] = o.Pin
	}
	return pins
}
