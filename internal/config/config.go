package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"battery-arbitrage/internal/episode"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/reward"
	"battery-arbitrage/internal/simulator"
	"battery-arbitrage/internal/strategy"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration (YAML or TOML).
type Config struct {
	// Optional: load battery parameters from a separate file (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string        `yaml:"battery_file" toml:"battery_file" json:"battery_file,omitempty"`
	Battery     BatteryConfig `yaml:"battery" toml:"battery" json:"battery"`

	Strategy    StrategyConfig            `yaml:"strategy" toml:"strategy" json:"strategy"`
	Reward      RewardConfig              `yaml:"reward" toml:"reward" json:"reward"`
	Observation episode.ObservationConfig `yaml:"observation" toml:"observation" json:"observation"`
	Simulator   simulator.Config          `yaml:"simulator" toml:"simulator" json:"simulator"`

	// HistoryTicks leading records seed the strategy's price window instead
	// of being replayed.
	HistoryTicks int `yaml:"history_ticks" toml:"history_ticks" json:"history_ticks"`
}

type BatteryConfig struct {
	Name            string  `yaml:"name" toml:"name" json:"name,omitempty"`
	CapacityKWh     float64 `yaml:"capacity_kwh" toml:"capacity_kwh" json:"capacity_kwh"`
	MaxChargeRateKW float64 `yaml:"max_charge_rate_kw" toml:"max_charge_rate_kw" json:"max_charge_rate_kw"`
}

func (b BatteryConfig) Spec() model.BatterySpec {
	return model.BatterySpec{CapacityKWh: b.CapacityKWh, MaxChargeRateKW: b.MaxChargeRateKW}
}

type StrategyConfig struct {
	Name   string         `yaml:"name" toml:"name" json:"name"`
	Params map[string]any `yaml:"params" toml:"params" json:"params,omitempty"`
}

// RewardConfig selects a reward function; the shaped reward's tariff
// settings sit alongside the name.
type RewardConfig struct {
	Name          string `yaml:"name" toml:"name" json:"name"`
	reward.Config `yaml:",inline"`
}

// Default returns the configuration of the reference 13 kWh / 5 kW home battery.
func Default() Config {
	return Config{
		Battery: BatteryConfig{
			Name:            "home",
			CapacityKWh:     13,
			MaxChargeRateKW: 5,
		},
		Strategy:    StrategyConfig{Name: "moving_average"},
		Reward:      RewardConfig{Name: "shaped", Config: reward.DefaultConfig()},
		Observation: episode.DefaultObservationConfig(),
		Simulator:   simulator.DefaultConfig(),
	}
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

// LoadUnchecked loads defaults, the file and any battery file, but does not validate.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	override := BatteryConfig{}
	if err := unmarshal(path, raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// Re-read only the battery section so that file values are overridden
	// by explicit keys and not by defaults.
	var batteryOnly struct {
		Battery *BatteryConfig `yaml:"battery" toml:"battery"`
	}
	if err := unmarshal(path, raw, &batteryOnly); err == nil && batteryOnly.Battery != nil {
		override = *batteryOnly.Battery
	}

	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, override)
	}
	return &c, nil
}

// Parse decodes an in-memory config of the given format ("yaml" or "toml")
// over the defaults and validates it.
func Parse(raw []byte, format string) (*Config, error) {
	c := Default()
	if err := unmarshal("config."+format, raw, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func unmarshal(path string, raw []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(raw, v)
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(raw, v)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}
	spec := c.Battery.Spec()
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if _, err := reward.New(c.Reward.Name, c.Reward.Config, spec); err != nil {
		return err
	}
	if err := c.Observation.Validate(); err != nil {
		return fmt.Errorf("observation config invalid: %w", err)
	}
	if err := c.Simulator.Validate(spec); err != nil {
		return fmt.Errorf("simulator config invalid: %w", err)
	}
	if c.HistoryTicks < 0 {
		return errors.New("history_ticks must be >= 0")
	}
	// Validate strategy params by constructing the strategy.
	if _, err := c.BuildStrategy(zerolog.Nop()); err != nil {
		return fmt.Errorf("strategy config invalid: %w", err)
	}
	return nil
}

// BuildStrategy constructs a fresh strategy instance. Each episode needs its own.
func (c *Config) BuildStrategy(log zerolog.Logger) (strategy.Strategy, error) {
	return strategy.Build(c.Strategy.Name, c.Strategy.Params, c.Battery.Spec(), log)
}

// BuildReward constructs the configured reward function.
func (c *Config) BuildReward() (reward.Func, error) {
	return reward.New(c.Reward.Name, c.Reward.Config, c.Battery.Spec())
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery" toml:"battery"`
}

// LoadBatteryFile reads a `battery:` document (YAML or TOML by extension).
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := unmarshal(path, raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("parse %s: %w", path, err)
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
	if override.CapacityKWh != 0 {
		out.CapacityKWh = override.CapacityKWh
	}
	if override.MaxChargeRateKW != 0 {
		out.MaxChargeRateKW = override.MaxChargeRateKW
	}
	return out
}
