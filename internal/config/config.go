package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"battery-env/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string         `yaml:"battery_file"`
	Battery     BatteryConfig  `yaml:"battery"`
	Cost        CostConfig     `yaml:"cost"`
	Strategy    StrategyConfig `yaml:"strategy"`
	Output      OutputConfig   `yaml:"output"`
}

type BatteryConfig struct {
	Name          string  `yaml:"name" json:"name"`
	BatterySize   float64 `yaml:"battery_size" json:"battery_size"`
	MaxChargeRate float64 `yaml:"max_charge_rate" json:"max_charge_rate"`
	TimeScale     float64 `yaml:"time_scale" json:"time_scale"`
	InitialCharge float64 `yaml:"initial_charge" json:"initial_charge"`
}

type CostConfig struct {
	// nil means model.DefaultBaseline; 0 is a legal baseline.
	Baseline *float64 `yaml:"baseline"`
}

type StrategyConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// OutputConfig names where finished runs go. Both are optional.
type OutputConfig struct {
	ResultsDir string `yaml:"results_dir"`
	RunDB      string `yaml:"run_db"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Relative to the config file when that exists, else relative to cwd.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}
	if err := c.Battery.Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	return nil
}

// BaselineOrDefault resolves cost.baseline.
func (c *Config) BaselineOrDefault() float64 {
	if c == nil || c.Cost.Baseline == nil {
		return model.DefaultBaseline
	}
	return *c.Cost.Baseline
}

func (b BatteryConfig) Validate() error {
	_, err := model.NewBattery(b.ToModelParams(), b.InitialCharge)
	return err
}

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		Capacity:      b.BatterySize,
		MaxChargeRate: b.MaxChargeRate,
		TimeScale:     b.TimeScale,
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a preset of the form `battery: {...}`.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.BatterySize != 0 {
		out.BatterySize = override.BatterySize
	}
	if override.MaxChargeRate != 0 {
		out.MaxChargeRate = override.MaxChargeRate
	}
	if override.TimeScale != 0 {
		out.TimeScale = override.TimeScale
	}
	// An explicit 0 initial charge cannot override a preset; presets that
	// start full are rare enough that this has not mattered.
	if override.InitialCharge != 0 {
		out.InitialCharge = override.InitialCharge
	}
	return out
}
