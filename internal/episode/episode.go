// Package episode drives the action -> simulator -> state loop for a single
// battery episode and turns simulator state into bounded observations.
package episode

import (
	"errors"
	"fmt"
	"time"

	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/reward"

	"github.com/rs/zerolog"
)

// ErrNoInitialState is returned by Reset when the simulator has nothing to replay.
var ErrNoInitialState = errors.New("simulator returned no initial state")

// HourScale maps an hour of day onto [0, 1).
const HourScale = 0.04167

// Simulator is the battery/market collaborator. A nil state in either
// position signals the end of the episode.
type Simulator interface {
	InitialState() (*model.ExternalState, *model.InternalState)
	Step(chargeKW, solarToBatteryKW float64, pvPowerKW int) (*model.ExternalState, *model.InternalState)
	Battery() model.BatterySpec
}

// ObservationConfig controls how state is normalised for an actor.
type ObservationConfig struct {
	PriceMean   float64 `json:"price_mean" yaml:"price_mean" toml:"price_mean"`
	PriceStd    float64 `json:"price_std" yaml:"price_std" toml:"price_std"`
	PVMaxKW     float64 `json:"pv_max_kw" yaml:"pv_max_kw" toml:"pv_max_kw"`
	IncludeHour bool    `json:"include_hour" yaml:"include_hour" toml:"include_hour"`
}

func DefaultObservationConfig() ObservationConfig {
	return ObservationConfig{
		PriceMean:   reward.DefaultPriceMean,
		PriceStd:    reward.DefaultPriceStd,
		PVMaxKW:     10,
		IncludeHour: true,
	}
}

func (c ObservationConfig) Validate() error {
	if c.PriceStd <= 0 {
		return errors.New("price_std must be > 0")
	}
	if c.PVMaxKW <= 0 {
		return errors.New("pv_max_kw must be > 0")
	}
	return nil
}

// Size is the observation length.
func (c ObservationConfig) Size() int {
	if c.IncludeHour {
		return 4
	}
	return 3
}

// TerminalReason says why an episode ended.
type TerminalReason string

const (
	ReasonNone         TerminalReason = ""
	ReasonEndOfData    TerminalReason = "end_of_data"
	ReasonInvalidInput TerminalReason = "invalid_input"
)

// StepResult is the outcome of one tick. Terminated and Truncated are always
// set together.
type StepResult struct {
	Observation model.Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	Reason      TerminalReason

	// Action is the physical action forwarded to the simulator.
	Action model.Action
}

// Done reports whether the episode has ended.
func (r StepResult) Done() bool { return r.Terminated || r.Truncated }

// History holds the per-episode accumulators, one entry per forwarded tick
// (Profits and SOCs only for ticks that produced a next state).
type History struct {
	Prices        []float64
	Timestamps    []time.Time
	ChargeActions []float64
	SolarActions  []float64
	PVInputs      []float64
	Profits       []float64
	SOCs          []float64
}

type Adapter struct {
	sim     Simulator
	battery model.BatterySpec
	reward  reward.Func
	obs     ObservationConfig
	log     zerolog.Logger

	ext     *model.ExternalState
	in      *model.InternalState
	history History
}

func New(sim Simulator, rf reward.Func, obs ObservationConfig, log zerolog.Logger) (*Adapter, error) {
	if sim == nil {
		return nil, errors.New("simulator is nil")
	}
	if rf == nil {
		return nil, errors.New("reward func is nil")
	}
	if err := obs.Validate(); err != nil {
		return nil, fmt.Errorf("observation config invalid: %w", err)
	}
	battery := sim.Battery()
	if err := battery.Validate(); err != nil {
		return nil, fmt.Errorf("battery invalid: %w", err)
	}
	return &Adapter{
		sim:     sim,
		battery: battery,
		reward:  rf,
		obs:     obs,
		log:     log.With().Str("component", "episode").Logger(),
	}, nil
}

// Reset clears the accumulators and fetches the simulator's initial state.
func (a *Adapter) Reset() (model.Observation, error) {
	a.history = History{}
	a.ext, a.in = a.sim.InitialState()
	if a.ext == nil || a.in == nil {
		a.ext, a.in = nil, nil
		return nil, ErrNoInitialState
	}
	if err := a.validate(a.ext, a.in); err != nil {
		a.ext, a.in = nil, nil
		return nil, fmt.Errorf("initial state: %w", err)
	}
	return a.Observe(a.ext, a.in), nil
}

// Step de-normalises v from [-1, 1] by the battery's max charge rate and
// forwards it.
func (a *Adapter) Step(v model.ActionVector) StepResult {
	return a.StepAction(v.Decode(a.battery.MaxChargeRateKW))
}

// StepAction forwards a physical action to the simulator.
func (a *Adapter) StepAction(act model.Action) StepResult {
	if a.ext == nil || a.in == nil {
		return a.terminal(ReasonEndOfData, act)
	}

	pv := a.ext.PVPowerKW
	a.history.Prices = append(a.history.Prices, a.ext.Price)
	a.history.Timestamps = append(a.history.Timestamps, a.ext.Timestamp)
	a.history.ChargeActions = append(a.history.ChargeActions, act.ChargeKW)
	a.history.SolarActions = append(a.history.SolarActions, act.SolarToBatteryKW)
	a.history.PVInputs = append(a.history.PVInputs, pv)

	a.ext, a.in = a.sim.Step(act.ChargeKW, act.SolarToBatteryKW, int(pv))
	if a.ext == nil || a.in == nil {
		a.ext, a.in = nil, nil
		return a.terminal(ReasonEndOfData, act)
	}
	if err := a.validate(a.ext, a.in); err != nil {
		a.log.Warn().Err(err).Int("tick", len(a.history.Prices)).Msg("simulator returned invalid state, ending episode")
		a.ext, a.in = nil, nil
		return a.terminal(ReasonInvalidInput, act)
	}

	a.history.Profits = append(a.history.Profits, a.in.TotalProfit)
	a.history.SOCs = append(a.history.SOCs, a.in.BatterySOCKWh)

	return StepResult{
		Observation: a.Observe(a.ext, a.in),
		Reward:      a.reward.Score(act, *a.ext, *a.in),
		Action:      act,
	}
}

func (a *Adapter) terminal(reason TerminalReason, act model.Action) StepResult {
	return StepResult{
		Observation: model.ZeroObservation(a.obs.Size()),
		Terminated:  true,
		Truncated:   true,
		Reason:      reason,
		Action:      act,
	}
}

func (a *Adapter) validate(ext *model.ExternalState, in *model.InternalState) error {
	if err := ext.Validate(); err != nil {
		return err
	}
	return in.Validate()
}

// Observe builds the clamped observation for a state pair.
func (a *Adapter) Observe(ext *model.ExternalState, in *model.InternalState) model.Observation {
	if ext == nil || in == nil {
		return model.ZeroObservation(a.obs.Size())
	}
	obs := make(model.Observation, 0, a.obs.Size())
	obs = append(obs,
		clamp(reward.NormalizePrice(ext.Price, a.obs.PriceMean, a.obs.PriceStd), -1, 1),
		clamp(a.battery.SOCFraction(in.BatterySOCKWh), 0, 1),
		clamp(ext.PVPowerKW/a.obs.PVMaxKW, 0, 1),
	)
	if a.obs.IncludeHour {
		obs = append(obs, clamp(float64(ext.Hour)*HourScale, 0, 1))
	}
	return obs
}

// State returns the current state pair; both are nil once the episode ended.
func (a *Adapter) State() (*model.ExternalState, *model.InternalState) {
	return a.ext, a.in
}

func (a *Adapter) Battery() model.BatterySpec { return a.battery }

func (a *Adapter) History() History { return a.history }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
