package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyPowerConversion(t *testing.T) {
	// 13 kWh moved in one 5-minute tick needs 156 kW.
	assert.InDelta(t, 156.0, EnergyToPowerKW(13), 1e-9)
	assert.InDelta(t, 13.0, PowerToEnergyKWh(156), 1e-9)
	assert.InDelta(t, 5.0/60.0, TickHours, 1e-12)
}

func TestBatterySpecValidate(t *testing.T) {
	require.NoError(t, BatterySpec{CapacityKWh: 13, MaxChargeRateKW: 5}.Validate())
	assert.Error(t, BatterySpec{CapacityKWh: -1, MaxChargeRateKW: 5}.Validate())
	assert.Error(t, BatterySpec{CapacityKWh: 13, MaxChargeRateKW: 0}.Validate())
}

func TestBatterySpecHeadroom(t *testing.T) {
	spec := BatterySpec{CapacityKWh: 13, MaxChargeRateKW: 5}
	assert.InDelta(t, 13.0, spec.HeadroomKWh(0), 1e-9)
	assert.InDelta(t, 0.0, spec.HeadroomKWh(14), 1e-9)
	assert.InDelta(t, 0.5, spec.SOCFraction(6.5), 1e-9)
}

func TestActionClamp(t *testing.T) {
	a := Action{SolarToBatteryKW: 8, ChargeKW: -9}.Clamp(5, 3)
	assert.Equal(t, Action{SolarToBatteryKW: 3, ChargeKW: -5}, a)

	a = Action{SolarToBatteryKW: -1, ChargeKW: 2}.Clamp(5, 3)
	assert.Equal(t, Action{SolarToBatteryKW: 0, ChargeKW: 2}, a)
}

func TestActionKind(t *testing.T) {
	assert.Equal(t, ActionCharging, Action{ChargeKW: 1}.Kind())
	assert.Equal(t, ActionDischarging, Action{ChargeKW: -1}.Kind())
	assert.Equal(t, ActionIdle, ZeroAction.Kind())
}

func TestActionVectorOrdering(t *testing.T) {
	// index 0 is solar routing, index 1 is grid charge
	v := ActionVector{0.2, -0.6}
	a := v.Decode(5)
	assert.InDelta(t, 1.0, a.SolarToBatteryKW, 1e-9)
	assert.InDelta(t, -3.0, a.ChargeKW, 1e-9)

	back := a.Encode(5)
	assert.InDelta(t, 0.2, back[VectorSolarIndex], 1e-9)
	assert.InDelta(t, -0.6, back[VectorChargeIndex], 1e-9)
}

func TestActionVectorDecodeClamps(t *testing.T) {
	a := ActionVector{3, -3}.Decode(5)
	assert.Equal(t, Action{SolarToBatteryKW: 5, ChargeKW: -5}, a)
}

func TestStateValidate(t *testing.T) {
	tests := []struct {
		name string
		ext  *ExternalState
		in   *InternalState
		ok   bool
	}{
		{"valid", &ExternalState{Price: 10, Hour: 3}, &InternalState{BatterySOCKWh: 1}, true},
		{"nan price", &ExternalState{Price: math.NaN()}, &InternalState{}, false},
		{"inf price", &ExternalState{Price: math.Inf(1)}, &InternalState{}, false},
		{"negative soc", &ExternalState{}, &InternalState{BatterySOCKWh: -1}, false},
		{"bad hour", &ExternalState{Hour: 24}, &InternalState{}, false},
		{"missing", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.Join(tt.ext.Validate(), tt.in.Validate())
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
