package simulator

import (
	"testing"
	"time"

	"battery-arbitrage/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBattery = model.BatterySpec{CapacityKWh: 13, MaxChargeRateKW: 5}

func testRecords() []model.PriceRecord {
	start := time.Date(2023, 4, 15, 10, 0, 0, 0, time.UTC)
	return []model.PriceRecord{
		{Timestamp: start, Price: 100, PVPowerKW: 2},
		{Timestamp: start.Add(time.Hour), Price: 200},
		{Timestamp: start.Add(2 * time.Hour), Price: 50},
	}
}

func TestReplay(t *testing.T) {
	env, err := New(testRecords(), testBattery, DefaultConfig())
	require.NoError(t, err)

	ext, in := env.InitialState()
	require.NotNil(t, ext)
	require.NotNil(t, in)
	assert.Equal(t, 100.0, ext.Price)
	assert.Equal(t, 10, ext.Hour)
	assert.Equal(t, 7.5, in.BatterySOCKWh)
	assert.Equal(t, 5.0, in.MaxChargeRateKW)

	// 5 kW for 5 minutes from the grid, 2 kW of PV exported
	ext, in = env.Step(5, 0, 2)
	require.NotNil(t, ext)
	assert.Equal(t, 200.0, ext.Price)
	assert.Equal(t, 11, ext.Hour)
	assert.InDelta(t, 7.5+5.0/12, in.BatterySOCKWh, 1e-9)
	assert.InDelta(t, -0.025, in.ProfitDelta, 1e-9)
	assert.InDelta(t, 2.0/12, env.LastTick().ExportKWh, 1e-9)

	ext, in = env.Step(-5, 0, 0)
	require.NotNil(t, ext)
	assert.InDelta(t, 7.5, in.BatterySOCKWh, 1e-9)
	assert.InDelta(t, 200*(5.0/12)/1000, in.ProfitDelta, 1e-9)
	assert.InDelta(t, -0.025+200*(5.0/12)/1000, in.TotalProfit, 1e-9)

	ext, in = env.Step(0, 0, 0)
	assert.Nil(t, ext)
	assert.Nil(t, in)

	ext, in = env.Step(5, 0, 0)
	assert.Nil(t, ext)
	assert.Nil(t, in)
}

func TestInitialStateRewinds(t *testing.T) {
	env, err := New(testRecords(), testBattery, DefaultConfig())
	require.NoError(t, err)
	env.InitialState()
	env.Step(5, 0, 0)

	_, in := env.InitialState()
	assert.Equal(t, 7.5, in.BatterySOCKWh)
	assert.Zero(t, in.TotalProfit)
}

func TestFullBatteryExportsSolar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSOCKWh = 13
	env, err := New(testRecords(), testBattery, cfg)
	require.NoError(t, err)
	env.InitialState()

	_, in := env.Step(5, 3, 3)
	assert.Equal(t, 13.0, in.BatterySOCKWh)
	tick := env.LastTick()
	assert.Zero(t, tick.GridChargeKWh)
	assert.Zero(t, tick.SolarChargeKWh)
	assert.InDelta(t, 0.25, tick.ExportKWh, 1e-9)
}

func TestDischargeBoundedByStoredEnergy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSOCKWh = 0.1
	env, err := New(testRecords(), testBattery, cfg)
	require.NoError(t, err)
	env.InitialState()

	_, in := env.Step(-5, 0, 0)
	assert.Zero(t, in.BatterySOCKWh)
	assert.InDelta(t, 0.1, env.LastTick().DischargeKWh, 1e-9)
}

func TestSolarBoundedByAvailablePV(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSOCKWh = 0
	env, err := New(testRecords(), testBattery, cfg)
	require.NoError(t, err)
	env.InitialState()

	env.Step(0, 5, 2)
	tick := env.LastTick()
	assert.InDelta(t, 2.0/12, tick.SolarChargeKWh, 1e-9)
	assert.Zero(t, tick.ExportKWh)
}

func TestEmptySeries(t *testing.T) {
	env, err := New(nil, testBattery, DefaultConfig())
	require.NoError(t, err)
	ext, in := env.InitialState()
	assert.Nil(t, ext)
	assert.Nil(t, in)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSOCKWh = 20
	_, err := New(testRecords(), testBattery, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.ChargeEfficiency = 0
	_, err = New(testRecords(), testBattery, cfg)
	assert.Error(t, err)

	_, err = New(testRecords(), model.BatterySpec{CapacityKWh: 13}, DefaultConfig())
	assert.Error(t, err)
}
