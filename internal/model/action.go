package model

import "math"

// ActionKind is a human-friendly operating mode for a tick.
// Keep these values stable; they are intended for CSV output.
type ActionKind string

const (
	ActionCharging    ActionKind = "CHARGING"
	ActionIdle        ActionKind = "IDLE"
	ActionDischarging ActionKind = "DISCHARGING"
)

// Action is the decision for one tick.
// Convention: positive ChargeKW = charge from grid, negative = discharge to grid/load.
type Action struct {
	SolarToBatteryKW float64 `json:"solar_to_battery_kw"`
	ChargeKW         float64 `json:"charge_kw"`
}

// ZeroAction routes nothing and leaves the battery untouched.
var ZeroAction = Action{}

// Kind classifies the grid side of the action.
func (a Action) Kind() ActionKind {
	switch {
	case a.ChargeKW > 0:
		return ActionCharging
	case a.ChargeKW < 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}

// Clamp bounds charge to [-maxChargeRateKW, maxChargeRateKW] and solar routing to [0, pvPowerKW].
func (a Action) Clamp(maxChargeRateKW, pvPowerKW float64) Action {
	return Action{
		SolarToBatteryKW: clamp(a.SolarToBatteryKW, 0, math.Max(pvPowerKW, 0)),
		ChargeKW:         clamp(a.ChargeKW, -maxChargeRateKW, maxChargeRateKW),
	}
}

// ActionVector is the raw output of a learned actor, ordered (solar_to_battery, charge),
// each component in [-1, 1] and scaled by the battery's max charge rate.
type ActionVector [2]float64

const (
	VectorSolarIndex  = 0
	VectorChargeIndex = 1
)

// Decode converts the vector into physical kW.
func (v ActionVector) Decode(maxChargeRateKW float64) Action {
	return Action{
		SolarToBatteryKW: clamp(v[VectorSolarIndex], -1, 1) * maxChargeRateKW,
		ChargeKW:         clamp(v[VectorChargeIndex], -1, 1) * maxChargeRateKW,
	}
}

// Encode is the inverse of Decode for actions within the rate limit.
func (a Action) Encode(maxChargeRateKW float64) ActionVector {
	if maxChargeRateKW <= 0 {
		return ActionVector{}
	}
	var v ActionVector
	v[VectorSolarIndex] = clamp(a.SolarToBatteryKW/maxChargeRateKW, -1, 1)
	v[VectorChargeIndex] = clamp(a.ChargeKW/maxChargeRateKW, -1, 1)
	return v
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
