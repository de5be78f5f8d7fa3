package episode

import (
	"errors"
	"math"
	"testing"

	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/reward"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBattery = model.BatterySpec{CapacityKWh: 13, MaxChargeRateKW: 5}

type statePair struct {
	ext *model.ExternalState
	in  *model.InternalState
}

type stepCall struct {
	chargeKW, solarKW float64
	pvKW              int
}

// scriptedSim returns a fixed sequence of states and records what it was asked to do.
type scriptedSim struct {
	initial statePair
	steps   []statePair
	calls   []stepCall
}

func (s *scriptedSim) InitialState() (*model.ExternalState, *model.InternalState) {
	return s.initial.ext, s.initial.in
}

func (s *scriptedSim) Step(chargeKW, solarKW float64, pvKW int) (*model.ExternalState, *model.InternalState) {
	s.calls = append(s.calls, stepCall{chargeKW, solarKW, pvKW})
	if len(s.calls) > len(s.steps) {
		return nil, nil
	}
	p := s.steps[len(s.calls)-1]
	return p.ext, p.in
}

func (s *scriptedSim) Battery() model.BatterySpec { return testBattery }

func newAdapter(t *testing.T, sim Simulator, rf reward.Func) *Adapter {
	t.Helper()
	if rf == nil {
		rf = reward.ProfitDelta{}
	}
	a, err := New(sim, rf, DefaultObservationConfig(), zerolog.Nop())
	require.NoError(t, err)
	return a
}

func midState() statePair {
	return statePair{
		ext: &model.ExternalState{Price: 160, PVPowerKW: 3.7, Hour: 12},
		in:  &model.InternalState{BatterySOCKWh: 6.5, MaxChargeRateKW: 5},
	}
}

func TestStepNoStateIsTerminal(t *testing.T) {
	sim := &scriptedSim{initial: midState()}
	a := newAdapter(t, sim, nil)
	_, err := a.Reset()
	require.NoError(t, err)

	res := a.Step(model.ActionVector{0.5, 0.5})
	assert.Equal(t, model.Observation{0, 0, 0, 0}, res.Observation)
	assert.Zero(t, res.Reward)
	assert.True(t, res.Terminated)
	assert.True(t, res.Truncated)
	assert.Equal(t, ReasonEndOfData, res.Reason)

	ext, in := a.State()
	assert.Nil(t, ext)
	assert.Nil(t, in)

	// further steps stay terminal without reaching the simulator
	res = a.Step(model.ActionVector{1, 1})
	assert.True(t, res.Done())
	assert.Len(t, sim.calls, 1)
}

func TestStepHalfMissingStateIsTerminal(t *testing.T) {
	next := midState()
	sim := &scriptedSim{initial: midState(), steps: []statePair{{ext: next.ext}}}
	a := newAdapter(t, sim, nil)
	_, err := a.Reset()
	require.NoError(t, err)

	res := a.StepAction(model.ZeroAction)
	assert.True(t, res.Terminated)
	assert.True(t, res.Truncated)
	assert.Zero(t, res.Reward)
}

func TestStepForwardsSolarThenCharge(t *testing.T) {
	sim := &scriptedSim{initial: midState(), steps: []statePair{midState()}}
	a := newAdapter(t, sim, nil)
	_, err := a.Reset()
	require.NoError(t, err)

	res := a.Step(model.ActionVector{0.4, -1})
	require.Len(t, sim.calls, 1)
	assert.InDelta(t, -5.0, sim.calls[0].chargeKW, 1e-9)
	assert.InDelta(t, 2.0, sim.calls[0].solarKW, 1e-9)
	assert.Equal(t, 3, sim.calls[0].pvKW)
	assert.InDelta(t, 2.0, res.Action.SolarToBatteryKW, 1e-9)
	assert.False(t, res.Done())
}

func TestResetWithoutInitialState(t *testing.T) {
	a := newAdapter(t, &scriptedSim{}, nil)
	_, err := a.Reset()
	assert.ErrorIs(t, err, ErrNoInitialState)

	res := a.Step(model.ActionVector{})
	assert.True(t, res.Done())
}

func TestResetRejectsInvalidState(t *testing.T) {
	initial := midState()
	initial.ext.Price = math.NaN()
	a := newAdapter(t, &scriptedSim{initial: initial}, nil)
	_, err := a.Reset()
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestInvalidNextStateEndsEpisode(t *testing.T) {
	bad := midState()
	bad.in.BatterySOCKWh = -1
	sim := &scriptedSim{initial: midState(), steps: []statePair{bad, midState()}}
	a := newAdapter(t, sim, nil)
	_, err := a.Reset()
	require.NoError(t, err)

	res := a.StepAction(model.Action{ChargeKW: 1})
	assert.True(t, res.Terminated)
	assert.True(t, res.Truncated)
	assert.Equal(t, ReasonInvalidInput, res.Reason)
	assert.Equal(t, model.Observation{0, 0, 0, 0}, res.Observation)
	assert.Zero(t, res.Reward)
}

func TestObservationIsClamped(t *testing.T) {
	a := newAdapter(t, &scriptedSim{}, nil)

	obs := a.Observe(
		&model.ExternalState{Price: 170, PVPowerKW: 20, Hour: 12},
		&model.InternalState{BatterySOCKWh: 6.5},
	)
	require.Len(t, obs, 4)
	assert.Equal(t, 1.0, obs[0])
	assert.InDelta(t, 0.5, obs[1], 1e-9)
	assert.Equal(t, 1.0, obs[2])
	assert.InDelta(t, 12*HourScale, obs[3], 1e-9)

	obs = a.Observe(
		&model.ExternalState{Price: 100, PVPowerKW: 2.5, Hour: 23},
		&model.InternalState{BatterySOCKWh: 20},
	)
	assert.Equal(t, -1.0, obs[0])
	assert.Equal(t, 1.0, obs[1])
	assert.InDelta(t, 0.25, obs[2], 1e-9)
	assert.LessOrEqual(t, obs[3], 1.0)
}

func TestObservationWithoutHour(t *testing.T) {
	cfg := DefaultObservationConfig()
	cfg.IncludeHour = false
	a, err := New(&scriptedSim{initial: midState()}, reward.ProfitDelta{}, cfg, zerolog.Nop())
	require.NoError(t, err)

	obs, err := a.Reset()
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestRewardIsDelegated(t *testing.T) {
	next := midState()
	next.in.ProfitDelta = 0.42
	next.in.TotalProfit = 1.5
	sim := &scriptedSim{initial: midState(), steps: []statePair{next}}
	a := newAdapter(t, sim, nil)
	_, err := a.Reset()
	require.NoError(t, err)

	res := a.StepAction(model.Action{ChargeKW: 2})
	assert.Equal(t, 0.42, res.Reward)

	h := a.History()
	assert.Equal(t, []float64{160}, h.Prices)
	assert.Equal(t, []float64{2}, h.ChargeActions)
	assert.Equal(t, []float64{0}, h.SolarActions)
	assert.Equal(t, []float64{3.7}, h.PVInputs)
	assert.Equal(t, []float64{1.5}, h.Profits)
	assert.Equal(t, []float64{6.5}, h.SOCs)
}

func TestShapedRewardScoresPhysicalAction(t *testing.T) {
	shaper, err := reward.NewShaper(reward.DefaultConfig(), testBattery)
	require.NoError(t, err)
	next := midState()
	next.ext.Price = 200
	next.ext.Hour = 18
	sim := &scriptedSim{initial: midState(), steps: []statePair{next}}
	a := newAdapter(t, sim, shaper)
	_, err = a.Reset()
	require.NoError(t, err)

	res := a.Step(model.ActionVector{0, -1})
	want := shaper.Score(model.Action{ChargeKW: -5}, *next.ext, *next.in)
	assert.InDelta(t, want, res.Reward, 1e-9)
}

func TestResetClearsHistory(t *testing.T) {
	sim := &scriptedSim{initial: midState(), steps: []statePair{midState()}}
	a := newAdapter(t, sim, nil)
	_, err := a.Reset()
	require.NoError(t, err)
	a.StepAction(model.ZeroAction)
	require.Len(t, a.History().Prices, 1)

	_, err = a.Reset()
	require.NoError(t, err)
	assert.Empty(t, a.History().Prices)
}

func TestNewRejectsBadInputs(t *testing.T) {
	_, err := New(nil, reward.ProfitDelta{}, DefaultObservationConfig(), zerolog.Nop())
	assert.Error(t, err)
	_, err = New(&scriptedSim{}, nil, DefaultObservationConfig(), zerolog.Nop())
	assert.Error(t, err)

	cfg := DefaultObservationConfig()
	cfg.PVMaxKW = 0
	_, err = New(&scriptedSim{}, reward.ProfitDelta{}, cfg, zerolog.Nop())
	assert.Error(t, err)
}
