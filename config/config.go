// Package config provides the configuration of a testbench run and builds
// the simulation platform from it.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/api"
	"github.com/sarchlab/convsim/model"
	valgen "github.com/sarchlab/convsim/util"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is the cause of every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the YAML document describing a run.
type Config struct {
	Driver   DriverConfig   `yaml:"driver"`
	Model    ModelConfig    `yaml:"model"`
	Stimulus StimulusConfig `yaml:"stimulus"`
	Report   ReportConfig   `yaml:"report"`
	Trace    TraceConfig    `yaml:"trace"`
	Log      LogConfig      `yaml:"log"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// DriverConfig holds the sequencing of the driver.
type DriverConfig struct {
	ResetHoldSteps uint64  `yaml:"reset_hold_steps"`
	ReportStep     uint64  `yaml:"report_step"`
	MaxStep        uint64  `yaml:"max_step"`
	FreqMHz        float64 `yaml:"freq_mhz"`
}

// ModelConfig selects the hardware model. Kind is "conv" or "echo".
type ModelConfig struct {
	Kind         string `yaml:"kind"`
	WeightsFile  string `yaml:"weights_file"`
	FinishOnDone bool   `yaml:"finish_on_done"`
}

// StimulusConfig selects the input fill. Kind is "index", "increasing"
// (from Start) or "const" (Value everywhere).
type StimulusConfig struct {
	Kind  string `yaml:"kind"`
	Start int    `yaml:"start"`
	Value int    `yaml:"value"`
}

// ReportConfig selects the output format, "text" or "table".
type ReportConfig struct {
	Format string `yaml:"format"`
}

// TraceConfig holds the optional waveform destinations.
type TraceConfig struct {
	VCD    string `yaml:"vcd"`
	SQLite string `yaml:"sqlite"`
}

// LogConfig configures the default logger. Level is one of trace, debug,
// info, warn and error.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// MonitorConfig enables the akita monitoring server.
type MonitorConfig struct {
	Enable bool `yaml:"enable"`
	Port   int  `yaml:"port"`
}

// Default returns the configuration of the plain convolution testbench.
func Default() Config {
	spec := api.DefaultSpec()

	return Config{
		Driver: DriverConfig{
			ResetHoldSteps: spec.ResetHoldSteps,
			ReportStep:     spec.ReportStep,
			MaxStep:        spec.MaxStep,
			FreqMHz:        1000,
		},
		Model: ModelConfig{
			Kind: "conv",
		},
		Stimulus: StimulusConfig{
			Kind: "index",
		},
		Report: ReportConfig{
			Format: "text",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Parse decodes a YAML document on top of the defaults and validates it.
// Unknown keys are rejected. An empty document yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load %s", path)
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.DriverSpec().Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	if c.Driver.FreqMHz <= 0 {
		return errors.Wrapf(ErrInvalid, "freq_mhz must be > 0, got %v", c.Driver.FreqMHz)
	}

	switch c.Model.Kind {
	case "conv", "echo":
	default:
		return errors.Wrapf(ErrInvalid, "unknown model kind %q", c.Model.Kind)
	}

	switch c.Stimulus.Kind {
	case "index", "increasing", "const":
	default:
		return errors.Wrapf(ErrInvalid, "unknown stimulus kind %q", c.Stimulus.Kind)
	}

	switch c.Report.Format {
	case "text", "table":
	default:
		return errors.Wrapf(ErrInvalid, "unknown report format %q", c.Report.Format)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return errors.Wrapf(ErrInvalid, "monitor port %d out of range", c.Monitor.Port)
	}

	return nil
}

// DriverSpec returns the sequencing parameters of the driver.
func (c Config) DriverSpec() api.Spec {
	return api.Spec{
		ResetHoldSteps: c.Driver.ResetHoldSteps,
		ReportStep:     c.Driver.ReportStep,
		MaxStep:        c.Driver.MaxStep,
	}
}

// Freq returns the step frequency of the driver.
func (c Config) Freq() sim.Freq {
	return sim.Freq(c.Driver.FreqMHz) * sim.MHz
}

// InputFill returns the stimulus applied to the model.
func (c Config) InputFill() model.InputGrid {
	switch c.Stimulus.Kind {
	case "increasing":
		return api.FillGrid(valgen.MakeIncreasingGen(c.Stimulus.Start))
	case "const":
		return api.FillGrid(valgen.MakeConstGen(c.Stimulus.Value))
	default:
		return api.IndexFill()
	}
}

// SlogLevel converts the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "trace":
		return model.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Wrapf(ErrInvalid, "unknown log level %q", l.Level)
	}
}
