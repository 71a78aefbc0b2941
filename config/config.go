// Package config describes a test platform and builds it.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/harness"
	"github.com/sarchlab/spadverify/spad"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every knob of a run. Zero-valued fields in a file keep their
// defaults.
type Config struct {
	Dim        int    `yaml:"dim"`
	WeightSeed int64  `yaml:"weight_seed"`
	InputSeed  int64  `yaml:"input_seed"`
	Scenario   string `yaml:"scenario"`

	Multicore      bool `yaml:"multicore"`
	Units          int  `yaml:"units"`
	DesignatedUnit int  `yaml:"designated_unit"`

	BankRows        int     `yaml:"bank_rows"`
	NumBanks        int     `yaml:"num_banks"`
	DMARowsPerCycle int     `yaml:"dma_rows_per_cycle"`
	MultiplyLatency int     `yaml:"multiply_latency"`
	FreqGHz         float64 `yaml:"freq_ghz"`

	Monitor bool `yaml:"monitor"`
	Dump    bool `yaml:"dump"`
}

// Default returns the configuration of the reference test.
func Default() Config {
	opts := harness.DefaultOptions()

	return Config{
		Dim:             opts.Dim,
		WeightSeed:      opts.WeightSeed,
		InputSeed:       opts.InputSeed,
		Scenario:        string(opts.Scenario),
		Units:           1,
		BankRows:        spad.DefaultBankRows,
		NumBanks:        spad.DefaultNumBanks,
		DMARowsPerCycle: 1,
		FreqGHz:         1,
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	c, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// ReadFile reads a YAML file on top of the defaults without validating it,
// so that callers can apply overrides first.
func ReadFile(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return c, nil
}

// Geometry returns the scratchpad geometry.
func (c Config) Geometry() spad.Geometry {
	return spad.Geometry{BankRows: c.BankRows, NumBanks: c.NumBanks}
}

// Freq returns the clock of the simulated platform.
func (c Config) Freq() sim.Freq {
	return sim.Freq(c.FreqGHz) * sim.GHz
}

// Validate checks that the configuration describes a runnable test.
func (c Config) Validate() error {
	g := c.Geometry()
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := spad.Plan(g, c.Dim); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := harness.ParseScenario(c.Scenario); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Units < 1 {
		return fmt.Errorf("%w: units must be >= 1, got %d", ErrInvalid, c.Units)
	}

	if c.DesignatedUnit < 0 || c.DesignatedUnit >= c.Units {
		return fmt.Errorf("%w: designated unit %d outside of [0, %d)",
			ErrInvalid, c.DesignatedUnit, c.Units)
	}

	if c.DMARowsPerCycle < 1 {
		return fmt.Errorf("%w: dma_rows_per_cycle must be >= 1, got %d",
			ErrInvalid, c.DMARowsPerCycle)
	}

	if c.MultiplyLatency < 0 {
		return fmt.Errorf("%w: multiply_latency must be >= 0, got %d",
			ErrInvalid, c.MultiplyLatency)
	}

	if c.FreqGHz <= 0 {
		return fmt.Errorf("%w: freq_ghz must be > 0, got %g",
			ErrInvalid, c.FreqGHz)
	}

	return nil
}

// HarnessOptions returns the options for harness.Run.
func (c Config) HarnessOptions() harness.Options {
	return harness.Options{
		Dim:        c.Dim,
		WeightSeed: c.WeightSeed,
		InputSeed:  c.InputSeed,
		Scenario:   harness.Scenario(c.Scenario),
		Geometry:   c.Geometry(),
	}
}
