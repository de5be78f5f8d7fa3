package strategy

import (
	"fmt"
	"math"
	"strings"

	"battery-arbitrage/internal/model"
)

// ScheduleParams implements a simple daily time-window strategy:
// - Charge from the grid (and route all PV into the battery) during [ChargeStart, ChargeEnd)
// - Discharge during [DischargeStart, DischargeEnd)
// - Otherwise IDLE
//
// Times are interpreted in the timestamp's own zone; without a timestamp the
// tick's hour is used.
type ScheduleParams struct {
	ChargeStart      string  // "HH:MM"
	ChargeEnd        string  // "HH:MM" (optional; default = DischargeStart)
	DischargeStart   string  // "HH:MM"
	DischargeEnd     string  // "HH:MM" (optional; default = DischargeStart => zero-length)
	ChargePowerKW    float64 // magnitude; treated as charge (positive)
	DischargePowerKW float64 // magnitude; treated as discharge (negative)
}

type ScheduleStrategy struct {
	params ScheduleParams

	csMins int
	ceMins int
	dsMins int
	deMins int
}

func NewScheduleStrategy(p ScheduleParams) (*ScheduleStrategy, error) {
	cs, err := parseHHMM(p.ChargeStart)
	if err != nil {
		return nil, err
	}
	ds, err := parseHHMM(p.DischargeStart)
	if err != nil {
		return nil, err
	}
	ce := ds
	if strings.TrimSpace(p.ChargeEnd) != "" {
		if ce, err = parseHHMM(p.ChargeEnd); err != nil {
			return nil, err
		}
	}
	de := ds
	if strings.TrimSpace(p.DischargeEnd) != "" {
		if de, err = parseHHMM(p.DischargeEnd); err != nil {
			return nil, err
		}
	}
	return &ScheduleStrategy{
		params: p,
		csMins: cs,
		ceMins: ce,
		dsMins: ds,
		deMins: de,
	}, nil
}

func (s *ScheduleStrategy) Name() string { return "schedule" }

func (s *ScheduleStrategy) Decide(ctx Context) model.Action {
	if ctx.External == nil || ctx.Internal == nil {
		return model.ZeroAction
	}
	ext := ctx.External

	mins := ext.Hour * 60
	if !ext.Timestamp.IsZero() {
		mins = ext.Timestamp.Hour()*60 + ext.Timestamp.Minute()
	}

	var a model.Action
	switch {
	case inWindow(mins, s.csMins, s.ceMins):
		a = model.Action{
			SolarToBatteryKW: ext.PVPowerKW,
			ChargeKW:         math.Abs(s.params.ChargePowerKW),
		}
	case inWindow(mins, s.dsMins, s.deMins):
		a = model.Action{ChargeKW: -math.Abs(s.params.DischargePowerKW)}
	}
	return a.Clamp(ctx.MaxChargeRateKW(), ext.PVPowerKW)
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// start == end is an empty window; start > end wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}
