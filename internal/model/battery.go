package model

import (
	"errors"
	"time"
)

// TickDuration is the fixed simulator step. The energy/power conversions
// below depend on it matching the simulator's granularity.
const TickDuration = 5 * time.Minute

// TickHours is TickDuration expressed in hours.
var TickHours = TickDuration.Hours()

// BatterySpec defines the physical parameters of the battery.
// Units:
// - CapacityKWh: kWh
// - MaxChargeRateKW: kW (applies to both charge and discharge)
type BatterySpec struct {
	CapacityKWh     float64 `json:"capacity_kwh" yaml:"capacity_kwh" toml:"capacity_kwh"`
	MaxChargeRateKW float64 `json:"max_charge_rate_kw" yaml:"max_charge_rate_kw" toml:"max_charge_rate_kw"`
}

func (s BatterySpec) Validate() error {
	if s.CapacityKWh <= 0 {
		return errors.New("CapacityKWh must be > 0")
	}
	if s.MaxChargeRateKW <= 0 {
		return errors.New("MaxChargeRateKW must be > 0")
	}
	return nil
}

// HeadroomKWh is the energy that can still be stored before the battery is full.
func (s BatterySpec) HeadroomKWh(socKWh float64) float64 {
	h := s.CapacityKWh - socKWh
	if h < 0 {
		return 0
	}
	return h
}

// SOCFraction returns socKWh as a fraction of capacity.
func (s BatterySpec) SOCFraction(socKWh float64) float64 {
	if s.CapacityKWh <= 0 {
		return 0
	}
	return socKWh / s.CapacityKWh
}

// EnergyToPowerKW converts the energy moved within one tick into the power that moves it.
func EnergyToPowerKW(energyKWh float64) float64 {
	return energyKWh / TickHours
}

// PowerToEnergyKWh converts a power held for one tick into energy.
func PowerToEnergyKWh(powerKW float64) float64 {
	return powerKW * TickHours
}
