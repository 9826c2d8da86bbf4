package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/robot"
	"github.com/san-kum/linebot/internal/sensing"
	"github.com/san-kum/linebot/internal/serialport"
	"github.com/san-kum/linebot/internal/track"
)

const (
	DefaultKp           = 1.0
	DefaultKi           = 0.0
	DefaultKd           = 3.0
	DefaultMotorMin     = 0.0
	DefaultMotorMax     = 0.3
	DefaultStartupDelay = time.Second
	DefaultCourse       = "straight"
	DefaultMaxCycles    = 5000
)

// Config holds the startup constants of a run. It is read once and not
// reloaded.
type Config struct {
	Gains        control.Gains     `yaml:"gains"`
	Motor        MotorConfig       `yaml:"motor"`
	Thresholds   ThresholdConfig   `yaml:"thresholds"`
	StartupDelay time.Duration     `yaml:"startup_delay"`
	Verbose      bool              `yaml:"verbose"`
	Diagnostics  DiagnosticsConfig `yaml:"diagnostics"`
	Sim          SimConfig         `yaml:"sim"`
}

type MotorConfig struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	BaseSpeed float64 `yaml:"base_speed"`
}

type ThresholdConfig struct {
	Noise    int `yaml:"noise"`
	Line     int `yaml:"line"`
	Junction int `yaml:"junction"`
}

type DiagnosticsConfig struct {
	// Port is a serial device; empty writes diagnostics to stderr.
	Port   string                 `yaml:"port"`
	Serial serialport.PortOptions `yaml:"serial"`
	Buffer int                    `yaml:"buffer"`
}

type SimConfig struct {
	Course    string  `yaml:"course"`
	Dt        float64 `yaml:"dt"`
	Noise     float64 `yaml:"noise"`
	Variation float64 `yaml:"variation"`
	Seed      int64   `yaml:"seed"`
	MaxCycles int     `yaml:"max_cycles"`
}

func DefaultConfig() *Config {
	sim := track.DefaultOptions()
	return &Config{
		Gains: control.Gains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		Motor: MotorConfig{
			Min:       DefaultMotorMin,
			Max:       DefaultMotorMax,
			BaseSpeed: DefaultMotorMax,
		},
		Thresholds: ThresholdConfig{
			Noise:    sensing.DefaultNoiseThreshold,
			Line:     sensing.DefaultLineThreshold,
			Junction: sensing.DefaultJunctionThreshold,
		},
		StartupDelay: DefaultStartupDelay,
		Diagnostics: DiagnosticsConfig{
			Serial: serialport.PortOptions{BaudRate: serialport.DefaultBaudRate},
		},
		Sim: SimConfig{
			Course:    DefaultCourse,
			Dt:        sim.Dt,
			Noise:     sim.Noise,
			Variation: sim.Variation,
			Seed:      sim.Seed,
			MaxCycles: DefaultMaxCycles,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto reads path over a copy of base. Keys missing from the file keep
// the base values, so a file can refine a preset.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate fails fast on constants that would misbehave at runtime.
func (c *Config) Validate() error {
	if err := c.LoopConfig().Validate(); err != nil {
		return err
	}
	if c.Diagnostics.Buffer < 0 {
		return fmt.Errorf("%w: diagnostics buffer must be >= 0", robot.ErrInvalidConfig)
	}
	if _, err := c.Diagnostics.Serial.Normalize(); err != nil {
		return fmt.Errorf("%w: %v", robot.ErrInvalidConfig, err)
	}
	if c.Sim.MaxCycles < 0 {
		return fmt.Errorf("%w: sim max cycles must be >= 0", robot.ErrInvalidConfig)
	}
	return c.TrackOptions().Validate()
}

func (c *Config) Limits() control.Limits {
	return control.Limits{Min: c.Motor.Min, Max: c.Motor.Max, Base: c.Motor.BaseSpeed}
}

func (c *Config) LoopConfig() loop.Config {
	est := sensing.DefaultEstimator()
	est.NoiseThreshold = c.Thresholds.Noise
	est.LineThreshold = c.Thresholds.Line

	return loop.Config{
		Params: loop.Params{
			Gains:     c.Gains,
			Limits:    c.Limits(),
			Estimator: est,
			Junction:  sensing.JunctionDetector{Threshold: c.Thresholds.Junction},
		},
		StartupDelay: c.StartupDelay,
		MaxCycles:    c.Sim.MaxCycles,
	}
}

func (c *Config) TrackOptions() track.Options {
	opts := track.DefaultOptions()
	opts.Dt = c.Sim.Dt
	opts.Noise = c.Sim.Noise
	opts.Variation = c.Sim.Variation
	opts.Seed = c.Sim.Seed
	return opts
}
