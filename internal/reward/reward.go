// Package reward scores a tick's action against the tariff structure and
// battery-health heuristics.
package reward

import (
	"errors"
	"fmt"
	"math"

	"battery-arbitrage/internal/model"
)

// Calibration constants derived from historical price statistics ($/MWh).
const (
	DefaultPriceMean = 160.0
	DefaultPriceStd  = 680.0
)

// Func turns a transition into a scalar reward.
type Func interface {
	Name() string
	Score(a model.Action, ext model.ExternalState, in model.InternalState) float64
}

// Config holds the tariff multipliers and SOC watermarks of the shaped reward.
type Config struct {
	PriceMean float64 `json:"price_mean" yaml:"price_mean" toml:"price_mean"`
	PriceStd  float64 `json:"price_std" yaml:"price_std" toml:"price_std"`

	// PeakHours are hours of day [0,23] billed at the peak multipliers.
	PeakHours []int `json:"peak_hours" yaml:"peak_hours" toml:"peak_hours"`

	ChargeOffPeakMultiplier    float64 `json:"charge_off_peak_multiplier" yaml:"charge_off_peak_multiplier" toml:"charge_off_peak_multiplier"`
	ChargePeakMultiplier       float64 `json:"charge_peak_multiplier" yaml:"charge_peak_multiplier" toml:"charge_peak_multiplier"`
	DischargePeakMultiplier    float64 `json:"discharge_peak_multiplier" yaml:"discharge_peak_multiplier" toml:"discharge_peak_multiplier"`
	DischargeOffPeakMultiplier float64 `json:"discharge_off_peak_multiplier" yaml:"discharge_off_peak_multiplier" toml:"discharge_off_peak_multiplier"`

	// SolarBonusFraction of the charge cost is given back when more of the
	// battery's intake comes from PV than from the grid.
	SolarBonusFraction float64 `json:"solar_bonus_fraction" yaml:"solar_bonus_fraction" toml:"solar_bonus_fraction"`

	HighSOCWatermark float64 `json:"high_soc_watermark" yaml:"high_soc_watermark" toml:"high_soc_watermark"`
	LowSOCWatermark  float64 `json:"low_soc_watermark" yaml:"low_soc_watermark" toml:"low_soc_watermark"`
	SOCPenalty       float64 `json:"soc_penalty" yaml:"soc_penalty" toml:"soc_penalty"`
}

func DefaultConfig() Config {
	return Config{
		PriceMean:                  DefaultPriceMean,
		PriceStd:                   DefaultPriceStd,
		PeakHours:                  []int{17, 18, 19, 20},
		ChargeOffPeakMultiplier:    1.05,
		ChargePeakMultiplier:       1.40,
		DischargePeakMultiplier:    1.30,
		DischargeOffPeakMultiplier: 0.85,
		SolarBonusFraction:         0.1,
		HighSOCWatermark:           0.9,
		LowSOCWatermark:            0.1,
		SOCPenalty:                 1,
	}
}

func (c Config) Validate() error {
	if c.PriceStd <= 0 {
		return errors.New("price_std must be > 0")
	}
	for _, h := range c.PeakHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("peak hour %d out of range [0, 23]", h)
		}
	}
	if c.LowSOCWatermark < 0 || c.HighSOCWatermark > 1 || c.LowSOCWatermark > c.HighSOCWatermark {
		return errors.New("soc watermarks must satisfy 0 <= low <= high <= 1")
	}
	if c.SOCPenalty < 0 {
		return errors.New("soc_penalty must be >= 0")
	}
	return nil
}

// Shaper is the tariff-aware reward. It holds no per-episode state: Score is
// a pure function of its inputs.
type Shaper struct {
	cfg      Config
	battery  model.BatterySpec
	peakHour [24]bool
}

func NewShaper(cfg Config, battery model.BatterySpec) (*Shaper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("reward config invalid: %w", err)
	}
	if err := battery.Validate(); err != nil {
		return nil, fmt.Errorf("battery invalid: %w", err)
	}
	s := &Shaper{cfg: cfg, battery: battery}
	for _, h := range cfg.PeakHours {
		s.peakHour[h] = true
	}
	return s, nil
}

func (s *Shaper) Name() string { return "shaped" }

// NormalizePrice applies the calibration used by both reward and observation.
func NormalizePrice(price, mean, std float64) float64 {
	return (price - mean) / 3 * std
}

// IsPeak reports whether hour is billed at peak rates.
func (s *Shaper) IsPeak(hour int) bool {
	return hour >= 0 && hour < 24 && s.peakHour[hour]
}

func (s *Shaper) Score(a model.Action, ext model.ExternalState, in model.InternalState) float64 {
	var reward float64

	p := NormalizePrice(ext.Price, s.cfg.PriceMean, s.cfg.PriceStd)
	peak := s.IsPeak(ext.Hour)
	capacity := s.battery.CapacityKWh
	gridFraction := math.Abs(a.ChargeKW) / capacity

	switch {
	case a.ChargeKW > 0:
		mult := s.cfg.ChargeOffPeakMultiplier
		if peak {
			mult = s.cfg.ChargePeakMultiplier
		}
		cost := gridFraction * p * mult
		reward -= cost
		if a.SolarToBatteryKW/capacity > gridFraction {
			reward += s.cfg.SolarBonusFraction * math.Abs(cost)
		}
	case a.ChargeKW < 0:
		mult := s.cfg.DischargeOffPeakMultiplier
		if peak {
			mult = s.cfg.DischargePeakMultiplier
		}
		reward += gridFraction * p * mult
	}

	soc := s.battery.SOCFraction(in.BatterySOCKWh)
	if soc > s.cfg.HighSOCWatermark || soc < s.cfg.LowSOCWatermark {
		reward -= s.cfg.SOCPenalty
	}
	return reward
}

// ProfitDelta rewards the simulator's own profit change for the tick.
type ProfitDelta struct{}

func (ProfitDelta) Name() string { return "profit_delta" }

func (ProfitDelta) Score(_ model.Action, _ model.ExternalState, in model.InternalState) float64 {
	return in.ProfitDelta
}

// New builds the named reward function.
func New(name string, cfg Config, battery model.BatterySpec) (Func, error) {
	switch name {
	case "", "shaped":
		return NewShaper(cfg, battery)
	case "profit_delta":
		return ProfitDelta{}, nil
	default:
		return nil, fmt.Errorf("unsupported reward: %q", name)
	}
}
