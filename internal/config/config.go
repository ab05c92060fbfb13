package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AxisConfig holds the default stepper parameters applied to one axis at
// startup.
type AxisConfig struct {
	StepVoltage float64 `yaml:"step_voltage"` // volts per step pulse
	Frequency   float64 `yaml:"frequency"`    // step pulses per second
}

// OptimiseConfig tunes the focus-optimisation sweep.
type OptimiseConfig struct {
	BaseIntervalMs int `yaml:"base_interval_ms"` // sampling period; first sample waits 4x
	DefaultSteps   int `yaml:"default_steps"`    // step sweep half-length offered to the UI
	DefaultVolts   int `yaml:"default_volts"`    // voltage sweep length offered to the UI
}

// JoystickConfig tunes the stick-to-jog translation.
type JoystickConfig struct {
	DeadZone    float64 `yaml:"dead_zone"`    // stick magnitude treated as centered
	SectorRatio float64 `yaml:"sector_ratio"` // |y| > ratio*|x| locks motion to y (and vice versa)
}

// SimConfig describes the simulated hardware used off the instrument.
type SimConfig struct {
	Enabled      bool    `yaml:"enabled"`
	FocusSteps   float64 `yaml:"focus_steps"`    // z position of best focus
	FocusWidth   float64 `yaml:"focus_width"`    // Gaussian sigma in steps
	PeakCounts   float64 `yaml:"peak_counts"`    // count rate at perfect focus
	StepsPerVolt float64 `yaml:"steps_per_volt"` // offset-voltage lever arm
}

// WebConfig configures the control/status HTTP server.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Config aggregates all application configuration.
type Config struct {
	XAxis    AxisConfig     `yaml:"x_axis"`
	YAxis    AxisConfig     `yaml:"y_axis"`
	ZAxis    AxisConfig     `yaml:"z_axis"`
	Optimise OptimiseConfig `yaml:"optimise"`
	Joystick JoystickConfig `yaml:"joystick"`
	Sim      SimConfig      `yaml:"sim"`
	Web      WebConfig      `yaml:"web"`
	LogLevel string         `yaml:"log_level"`
}

// Load reads a YAML file and returns the configuration with defaults
// applied and invalid values rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	for _, ax := range []*AxisConfig{&cfg.XAxis, &cfg.YAxis, &cfg.ZAxis} {
		if ax.StepVoltage == 0 {
			ax.StepVoltage = 30
		}
		if ax.Frequency == 0 {
			ax.Frequency = 1000
		}
		if ax.StepVoltage < 0 || ax.StepVoltage > 70 {
			return nil, fmt.Errorf("axis step_voltage must be between 0 and 70, got %.2f", ax.StepVoltage)
		}
		if ax.Frequency < 0 || ax.Frequency > 10000 {
			return nil, fmt.Errorf("axis frequency must be between 0 and 10000, got %.2f", ax.Frequency)
		}
	}

	if cfg.Optimise.BaseIntervalMs == 0 {
		cfg.Optimise.BaseIntervalMs = 100
	}
	if cfg.Optimise.BaseIntervalMs < 0 {
		return nil, fmt.Errorf("optimise.base_interval_ms must be positive, got %d", cfg.Optimise.BaseIntervalMs)
	}
	if cfg.Optimise.DefaultSteps < 0 || cfg.Optimise.DefaultVolts < 0 {
		return nil, fmt.Errorf("optimise sweep lengths must not be negative")
	}
	if cfg.Optimise.DefaultSteps == 0 && cfg.Optimise.DefaultVolts == 0 {
		cfg.Optimise.DefaultSteps = 10
		cfg.Optimise.DefaultVolts = 50
	}

	if cfg.Joystick.DeadZone == 0 {
		cfg.Joystick.DeadZone = 0.1
	}
	if cfg.Joystick.DeadZone < 0 || cfg.Joystick.DeadZone >= 1 {
		return nil, fmt.Errorf("joystick.dead_zone must be in [0, 1), got %.2f", cfg.Joystick.DeadZone)
	}
	if cfg.Joystick.SectorRatio == 0 {
		cfg.Joystick.SectorRatio = 2
	}
	if cfg.Joystick.SectorRatio < 1 {
		return nil, fmt.Errorf("joystick.sector_ratio must be >= 1, got %.2f", cfg.Joystick.SectorRatio)
	}

	if cfg.Sim.FocusWidth == 0 {
		cfg.Sim.FocusWidth = 3
	}
	if cfg.Sim.PeakCounts == 0 {
		cfg.Sim.PeakCounts = 100000
	}
	if cfg.Sim.StepsPerVolt == 0 {
		cfg.Sim.StepsPerVolt = 0.02
	}

	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}

// BaseInterval returns the optimisation sampling period as a duration.
func (c *Config) BaseInterval() time.Duration {
	return time.Duration(c.Optimise.BaseIntervalMs) * time.Millisecond
}

// Axis returns the startup parameters for a named axis ("x", "y" or "z").
func (c *Config) Axis(name string) (AxisConfig, bool) {
	switch name {
	case "x":
		return c.XAxis, true
	case "y":
		return c.YAxis, true
	case "z":
		return c.ZAxis, true
	}
	return AxisConfig{}, false
}
