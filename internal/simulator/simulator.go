// Package simulator replays a recorded price/PV series against a single
// battery at the fixed tick resolution.
package simulator

import (
	"errors"
	"fmt"
	"math"

	"battery-arbitrage/internal/model"
)

// Config defines the economic and starting parameters of a replay.
// Units:
// - InitialSOCKWh: kWh stored at the first tick
// - InitialProfit: $ carried into the episode
// - Efficiencies: 0..1
// - DegradationCostPerMWh: $/MWh throughput (charge + discharge)
type Config struct {
	InitialSOCKWh         float64 `json:"initial_soc_kwh" yaml:"initial_soc_kwh" toml:"initial_soc_kwh"`
	InitialProfit         float64 `json:"initial_profit" yaml:"initial_profit" toml:"initial_profit"`
	ChargeEfficiency      float64 `json:"charge_efficiency" yaml:"charge_efficiency" toml:"charge_efficiency"`
	DischargeEfficiency   float64 `json:"discharge_efficiency" yaml:"discharge_efficiency" toml:"discharge_efficiency"`
	DegradationCostPerMWh float64 `json:"degradation_cost_per_mwh" yaml:"degradation_cost_per_mwh" toml:"degradation_cost_per_mwh"`
}

func DefaultConfig() Config {
	return Config{
		InitialSOCKWh:       7.5,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
	}
}

func (c Config) Validate(battery model.BatterySpec) error {
	if c.InitialSOCKWh < 0 || c.InitialSOCKWh > battery.CapacityKWh {
		return fmt.Errorf("initial_soc_kwh must be within [0, %g]", battery.CapacityKWh)
	}
	if c.ChargeEfficiency <= 0 || c.ChargeEfficiency > 1 {
		return errors.New("charge_efficiency must be in (0, 1]")
	}
	if c.DischargeEfficiency <= 0 || c.DischargeEfficiency > 1 {
		return errors.New("discharge_efficiency must be in (0, 1]")
	}
	if c.DegradationCostPerMWh < 0 {
		return errors.New("degradation_cost_per_mwh must be >= 0")
	}
	return nil
}

// TickResult captures what happened in one tick.
type TickResult struct {
	GridChargeKWh  float64 // pulled from the grid into the battery
	SolarChargeKWh float64 // routed from PV into the battery
	DischargeKWh   float64 // delivered to the grid from the battery
	ExportKWh      float64 // PV not routed to the battery, sold to the grid
	SOCStart       float64
	SOCEnd         float64
	ProfitDelta    float64 // $ for this tick (incl degradation)
}

// BatteryEnv replays records one tick at a time. Prices are $/MWh, PV is kW.
type BatteryEnv struct {
	records []model.PriceRecord
	battery model.BatterySpec
	cfg     Config

	step   int
	soc    float64
	profit float64
	last   TickResult
}

func New(records []model.PriceRecord, battery model.BatterySpec, cfg Config) (*BatteryEnv, error) {
	if err := battery.Validate(); err != nil {
		return nil, fmt.Errorf("battery invalid: %w", err)
	}
	if err := cfg.Validate(battery); err != nil {
		return nil, fmt.Errorf("simulator config invalid: %w", err)
	}
	e := &BatteryEnv{records: records, battery: battery, cfg: cfg}
	e.rewind()
	return e, nil
}

func (e *BatteryEnv) rewind() {
	e.step = 0
	e.soc = e.cfg.InitialSOCKWh
	e.profit = e.cfg.InitialProfit
	e.last = TickResult{}
}

func (e *BatteryEnv) Battery() model.BatterySpec { return e.battery }

// LastTick reports the physics of the most recent Step.
func (e *BatteryEnv) LastTick() TickResult { return e.last }

// Len is the number of ticks in the replay.
func (e *BatteryEnv) Len() int { return len(e.records) }

// InitialState rewinds the replay and returns the first tick's state pair,
// or (nil, nil) for an empty series.
func (e *BatteryEnv) InitialState() (*model.ExternalState, *model.InternalState) {
	e.rewind()
	if len(e.records) == 0 {
		return nil, nil
	}
	return e.external(0), e.internal(0)
}

// Step applies one tick of the requested setpoints at the current record's
// price and advances. pvPowerKW is the PV available during the tick, as
// observed by the actor. Past the last record it returns (nil, nil).
func (e *BatteryEnv) Step(chargeKW, solarToBatteryKW float64, pvPowerKW int) (*model.ExternalState, *model.InternalState) {
	if e.step >= len(e.records) {
		return nil, nil
	}
	price := e.records[e.step].Price
	res := e.apply(chargeKW, solarToBatteryKW, float64(pvPowerKW))
	res.ProfitDelta = e.tickPnL(price, res)
	e.profit += res.ProfitDelta
	e.last = res

	e.step++
	if e.step >= len(e.records) {
		return nil, nil
	}
	return e.external(e.step), e.internal(res.ProfitDelta)
}

// apply enforces rate and SOC bounds, grid charge taking headroom before PV.
func (e *BatteryEnv) apply(chargeKW, solarKW, pvKW float64) TickResult {
	rate := e.battery.MaxChargeRateKW
	res := TickResult{SOCStart: e.soc}

	pvKWh := model.PowerToEnergyKWh(math.Max(0, pvKW))
	solarKWh := model.PowerToEnergyKWh(math.Max(0, math.Min(solarKW, rate)))
	if solarKWh > pvKWh {
		solarKWh = pvKWh
	}

	switch {
	case chargeKW > 0:
		req := model.PowerToEnergyKWh(math.Min(chargeKW, rate))
		res.GridChargeKWh = math.Min(req, e.storableFromSourceKWh())
		e.soc += res.GridChargeKWh * e.cfg.ChargeEfficiency
	case chargeKW < 0:
		req := model.PowerToEnergyKWh(math.Min(-chargeKW, rate))
		res.DischargeKWh = math.Min(req, e.soc*e.cfg.DischargeEfficiency)
		e.soc -= res.DischargeKWh / e.cfg.DischargeEfficiency
	}

	res.SolarChargeKWh = math.Min(solarKWh, e.storableFromSourceKWh())
	e.soc += res.SolarChargeKWh * e.cfg.ChargeEfficiency
	res.ExportKWh = pvKWh - res.SolarChargeKWh

	e.soc = math.Max(0, math.Min(e.soc, e.battery.CapacityKWh))
	res.SOCEnd = e.soc
	return res
}

// storableFromSourceKWh is the source-side energy needed to fill the battery.
func (e *BatteryEnv) storableFromSourceKWh() float64 {
	return math.Max(0, e.battery.HeadroomKWh(e.soc)/e.cfg.ChargeEfficiency)
}

func (e *BatteryEnv) tickPnL(pricePerMWh float64, r TickResult) float64 {
	revenue := pricePerMWh * (r.DischargeKWh + r.ExportKWh) / 1000
	cost := pricePerMWh * r.GridChargeKWh / 1000
	degradation := e.cfg.DegradationCostPerMWh * (r.GridChargeKWh + r.SolarChargeKWh + r.DischargeKWh) / 1000
	return revenue - cost - degradation
}

func (e *BatteryEnv) external(i int) *model.ExternalState {
	rec := e.records[i]
	return &model.ExternalState{
		Price:     rec.Price,
		PVPowerKW: rec.PVPowerKW,
		Timestamp: rec.Timestamp,
		Hour:      rec.Timestamp.Hour(),
	}
}

func (e *BatteryEnv) internal(delta float64) *model.InternalState {
	return &model.InternalState{
		BatterySOCKWh:   e.soc,
		MaxChargeRateKW: e.battery.MaxChargeRateKW,
		TotalProfit:     e.profit,
		ProfitDelta:     delta,
	}
}
