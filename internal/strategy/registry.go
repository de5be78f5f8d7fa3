package strategy

import (
	"fmt"
	"strings"

	"battery-arbitrage/internal/model"

	"github.com/rs/zerolog"
)

// Build constructs a named strategy from loosely typed params, as found in
// YAML/TOML configs and JSON requests.
func Build(name string, params map[string]any, battery model.BatterySpec, log zerolog.Logger) (Strategy, error) {
	switch name {
	case "moving_average":
		d := DefaultMovingAverageParams()
		return NewMovingAverageStrategy(battery, MovingAverageParams{
			WindowSize:          int(mustNum(params, "window_size", float64(d.WindowSize))),
			ChargeScale:         mustNum(params, "charge_scale", d.ChargeScale),
			DischargeScale:      mustNum(params, "discharge_scale", d.DischargeScale),
			LowBatteryThreshold: mustNum(params, "low_battery_threshold", d.LowBatteryThreshold),
			PriceCeiling:        mustNum(params, "price_ceiling", d.PriceCeiling),
		}, log)
	case "schedule":
		dischargeStart := mustStr(params, "discharge_start", "17:00")
		return NewScheduleStrategy(ScheduleParams{
			ChargeStart:      mustStr(params, "charge_start", "10:00"),
			ChargeEnd:        mustStr(params, "charge_end", dischargeStart),
			DischargeStart:   dischargeStart,
			DischargeEnd:     mustStr(params, "discharge_end", "21:00"),
			ChargePowerKW:    mustNum(params, "charge_power_kw", battery.MaxChargeRateKW),
			DischargePowerKW: mustNum(params, "discharge_power_kw", battery.MaxChargeRateKW),
		})
	case "idle":
		return IdleStrategy{}, nil
	case "vector":
		v := model.ActionVector{
			mustNum(params, "solar", 0),
			mustNum(params, "charge", 0),
		}
		return &VectorStrategy{Actor: ConstantActor(v)}, nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %q", name)
	}
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int:
			return float64(x)
		case int64:
			return float64(x)
		}
	}
	return def
}

func mustStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}
