package strategy

import (
	"errors"
	"fmt"
	"math"

	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/window"

	"github.com/rs/zerolog"
)

// MovingAverageParams tunes the arbitrage/preservation trade-off.
// The right values are found empirically, so none of them are hard-coded.
type MovingAverageParams struct {
	// WindowSize is the number of ticks in the moving average.
	WindowSize int `json:"window_size" yaml:"window_size"`

	// ChargeScale scales the grid charge rate in the buy regime and the PV
	// share routed to the battery when discharging is suppressed.
	ChargeScale float64 `json:"charge_scale" yaml:"charge_scale"`

	// DischargeScale scales the discharge rate in the sell regime.
	DischargeScale float64 `json:"discharge_scale" yaml:"discharge_scale"`

	// LowBatteryThreshold is a SOC fraction [0,1] under which the sell regime
	// routes solar instead of discharging.
	LowBatteryThreshold float64 `json:"low_battery_threshold" yaml:"low_battery_threshold"`

	// PriceCeiling excludes spikes above it from the observed extrema; 0 disables it.
	PriceCeiling float64 `json:"price_ceiling" yaml:"price_ceiling"`
}

func DefaultMovingAverageParams() MovingAverageParams {
	return MovingAverageParams{
		WindowSize:          window.DefaultSize,
		ChargeScale:         1,
		DischargeScale:      1,
		LowBatteryThreshold: 0,
	}
}

func (p MovingAverageParams) Validate() error {
	if p.WindowSize <= 0 {
		return errors.New("window_size must be > 0")
	}
	if p.ChargeScale < 0 || math.IsNaN(p.ChargeScale) {
		return errors.New("charge_scale must be >= 0")
	}
	if p.DischargeScale < 0 || math.IsNaN(p.DischargeScale) {
		return errors.New("discharge_scale must be >= 0")
	}
	if p.LowBatteryThreshold < 0 || p.LowBatteryThreshold > 1 {
		return errors.New("low_battery_threshold must be in [0, 1]")
	}
	if p.PriceCeiling < 0 {
		return errors.New("price_ceiling must be >= 0")
	}
	return nil
}

// MovingAverageStrategy buys below the price trend, sells above it and always
// charges when the price is negative. It holds no opinion until its price
// window is full: every tick before that is the zero action.
//
// The window belongs to this instance; starting over requires a new strategy.
type MovingAverageStrategy struct {
	battery model.BatterySpec
	params  MovingAverageParams
	prices  *window.PriceWindow
	log     zerolog.Logger

	warm       bool
	lastRegime Regime
}

func NewMovingAverageStrategy(battery model.BatterySpec, params MovingAverageParams, log zerolog.Logger) (*MovingAverageStrategy, error) {
	if err := battery.Validate(); err != nil {
		return nil, fmt.Errorf("battery invalid: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("moving average params invalid: %w", err)
	}
	w, err := window.New(params.WindowSize, window.WithPriceCeiling(params.PriceCeiling))
	if err != nil {
		return nil, err
	}
	return &MovingAverageStrategy{
		battery: battery,
		params:  params,
		prices:  w,
		log:     log.With().Str("component", "moving_average_strategy").Logger(),
	}, nil
}

func (s *MovingAverageStrategy) Name() string { return "moving_average" }

func (s *MovingAverageStrategy) Decide(ctx Context) model.Action {
	if ctx.External == nil || ctx.Internal == nil {
		return model.ZeroAction
	}
	return s.Act(*ctx.External, *ctx.Internal)
}

// Act records the tick's price and returns the action for it.
func (s *MovingAverageStrategy) Act(ext model.ExternalState, in model.InternalState) model.Action {
	s.prices.Append(ext.Price)

	maxRate := in.MaxChargeRateKW
	if maxRate <= 0 {
		maxRate = s.battery.MaxChargeRateKW
	}

	avg, err := s.prices.MovingAverage()
	if err != nil {
		s.lastRegime = RegimeWarmingUp
		return model.ZeroAction
	}
	if !s.warm {
		s.warm = true
		s.log.Debug().Int("window", s.prices.Cap()).Float64("average", avg).Msg("price window warm")
	}

	s.lastRegime = ClassifyRegime(ext.Price, avg)

	var a model.Action
	switch s.lastRegime {
	case RegimeNegativePrice:
		a = s.actNegativePrice(ext, in, maxRate)
	case RegimeSell:
		a = s.actSell(ext, in, maxRate)
	case RegimeBuy:
		a = s.actBuy(ext, in, maxRate)
	}
	return a.Clamp(maxRate, ext.PVPowerKW)
}

// actNegativePrice charges as hard as headroom and rate allow and soaks up PV
// under the same ceiling.
func (s *MovingAverageStrategy) actNegativePrice(ext model.ExternalState, in model.InternalState, maxRate float64) model.Action {
	ceiling := math.Min(maxRate, s.headroomPowerKW(in))
	return model.Action{
		SolarToBatteryKW: math.Min(ext.PVPowerKW, ceiling),
		ChargeKW:         ceiling,
	}
}

// actSell discharges unless the battery is under the low threshold, in which
// case PV is routed into it instead.
func (s *MovingAverageStrategy) actSell(ext model.ExternalState, in model.InternalState, maxRate float64) model.Action {
	if s.battery.SOCFraction(in.BatterySOCKWh) < s.params.LowBatteryThreshold {
		return model.Action{
			SolarToBatteryKW: math.Min(s.params.ChargeScale*ext.PVPowerKW, s.headroomPowerKW(in)),
		}
	}
	discharge := math.Min(maxRate*s.params.DischargeScale, model.EnergyToPowerKW(in.BatterySOCKWh))
	return model.Action{ChargeKW: -discharge}
}

func (s *MovingAverageStrategy) actBuy(ext model.ExternalState, in model.InternalState, maxRate float64) model.Action {
	charge := math.Min(maxRate*s.params.ChargeScale, s.headroomPowerKW(in))
	return model.Action{
		SolarToBatteryKW: math.Min(ext.PVPowerKW, charge),
		ChargeKW:         charge,
	}
}

// headroomPowerKW is the power that would fill the battery in exactly one tick.
func (s *MovingAverageStrategy) headroomPowerKW(in model.InternalState) float64 {
	return model.EnergyToPowerKW(s.battery.HeadroomKWh(in.BatterySOCKWh))
}

func (s *MovingAverageStrategy) LastRegime() Regime { return s.lastRegime }

// IsWarm reports whether the price window is full.
func (s *MovingAverageStrategy) IsWarm() bool { return s.prices.IsWarm() }

// Window exposes the price history for inspection.
func (s *MovingAverageStrategy) Window() *window.PriceWindow { return s.prices }

// SeedPrices pre-loads prices in chronological order.
func (s *MovingAverageStrategy) SeedPrices(prices []float64) {
	s.prices.Seed(prices)
}

func (s *MovingAverageStrategy) LoadHistorical(records []model.PriceRecord) {
	s.prices.Seed(model.Prices(records))
	s.log.Debug().Int("records", len(records)).Bool("warm", s.prices.IsWarm()).Msg("loaded historical prices")
}
