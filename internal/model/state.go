package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput marks simulator output the engine refuses to compute on.
var ErrInvalidInput = errors.New("invalid input")

// ExternalState is the market/weather side of a tick, produced by the simulator.
// A nil *ExternalState means "no state" (end of episode).
type ExternalState struct {
	Price     float64   `json:"price"`
	PVPowerKW float64   `json:"pv_power"`
	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"`
}

// InternalState is the battery/accounting side of a tick.
// A nil *InternalState means "no state" (end of episode).
type InternalState struct {
	BatterySOCKWh   float64 `json:"battery_soc"`
	MaxChargeRateKW float64 `json:"max_charge_rate"`
	TotalProfit     float64 `json:"total_profit"`
	ProfitDelta     float64 `json:"profit_delta"`
}

func (s *ExternalState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: missing external state", ErrInvalidInput)
	}
	if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidInput, s.Price)
	}
	if math.IsNaN(s.PVPowerKW) || math.IsInf(s.PVPowerKW, 0) || s.PVPowerKW < 0 {
		return fmt.Errorf("%w: pv_power %v", ErrInvalidInput, s.PVPowerKW)
	}
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidInput, s.Hour)
	}
	return nil
}

func (s *InternalState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: missing internal state", ErrInvalidInput)
	}
	if math.IsNaN(s.BatterySOCKWh) || math.IsInf(s.BatterySOCKWh, 0) || s.BatterySOCKWh < 0 {
		return fmt.Errorf("%w: battery_soc %v", ErrInvalidInput, s.BatterySOCKWh)
	}
	if math.IsNaN(s.MaxChargeRateKW) || s.MaxChargeRateKW < 0 {
		return fmt.Errorf("%w: max_charge_rate %v", ErrInvalidInput, s.MaxChargeRateKW)
	}
	return nil
}

// Observation is the bounded feature vector handed to a learned actor:
// [price, soc, pv] or [price, soc, pv, hour].
type Observation []float64

// ZeroObservation returns an all-zero observation of the given length.
func ZeroObservation(n int) Observation {
	return make(Observation, n)
}
