package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"

	"battery-arbitrage/internal/episode"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/strategy"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// ReasonMaxTicks ends a run that hit Engine.MaxTicks before the data ran out.
const ReasonMaxTicks episode.TerminalReason = "max_ticks"

type Engine struct {
	// MaxTicks bounds the episode length; 0 means run until the simulator stops.
	MaxTicks int

	log zerolog.Logger
}

func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "backtest").Logger()}
}

// Run resets the adapter, seeds the strategy with history when it supports
// it, and drives the episode to its terminal state.
func (e *Engine) Run(ctx context.Context, ep *episode.Adapter, strat strategy.Strategy, history []model.PriceRecord) (*Result, error) {
	if ep == nil {
		return nil, errors.New("episode adapter is nil")
	}
	if strat == nil {
		return nil, errors.New("strategy is nil")
	}

	obs, err := ep.Reset()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	if loader, ok := strat.(strategy.HistoricalLoader); ok && len(history) > 0 {
		loader.LoadHistorical(history)
	}
	reporter, _ := strat.(strategy.RegimeReporter)
	battery := ep.Battery()

	res := &Result{Strategy: strat.Name(), RegimeCounts: map[string]int{}}
	var rewards []float64
	cumReward := 0.0

	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.MaxTicks > 0 && idx >= e.MaxTicks {
			res.EndReason = ReasonMaxTicks
			break
		}

		ext, in := ep.State()
		req := strat.Decide(strategy.Context{
			Index:       idx,
			External:    ext,
			Internal:    in,
			Battery:     battery,
			Observation: obs,
		})
		step := ep.StepAction(req)
		obs = step.Observation

		row := LedgerRow{
			Index:            idx,
			Timestamp:        ext.Timestamp,
			Hour:             ext.Hour,
			Price:            ext.Price,
			PVPowerKW:        ext.PVPowerKW,
			Action:           req.Kind(),
			ChargeKW:         req.ChargeKW,
			SolarToBatteryKW: req.SolarToBatteryKW,
			SOCStartKWh:      in.BatterySOCKWh,
			SOCEndKWh:        in.BatterySOCKWh,
			TotalProfit:      in.TotalProfit,
			Terminal:         step.Done(),
		}
		if reporter != nil {
			regime := reporter.LastRegime().String()
			row.Regime = regime
			res.RegimeCounts[regime]++
		}
		if !step.Done() {
			_, next := ep.State()
			row.SOCEndKWh = next.BatterySOCKWh
			row.ProfitDelta = next.ProfitDelta
			row.TotalProfit = next.TotalProfit
			row.Reward = step.Reward
			cumReward += step.Reward
			rewards = append(rewards, step.Reward)
		}
		row.CumReward = cumReward
		res.Ledger = append(res.Ledger, row)

		if step.Done() {
			res.EndReason = step.Reason
			break
		}
	}

	res.Ticks = len(res.Ledger)
	res.TotalReward = cumReward
	if n := len(res.Ledger); n > 0 {
		last := res.Ledger[n-1]
		res.TotalProfit = last.TotalProfit
		res.FinalSOCKWh = last.SOCEndKWh
	}
	if len(rewards) > 0 {
		res.RewardMean, res.RewardStd = stat.MeanStdDev(rewards, nil)
		if math.IsNaN(res.RewardStd) {
			res.RewardStd = 0
		}
	}

	e.log.Debug().
		Str("strategy", res.Strategy).
		Int("ticks", res.Ticks).
		Float64("total_profit", res.TotalProfit).
		Float64("total_reward", res.TotalReward).
		Str("end_reason", string(res.EndReason)).
		Msg("backtest finished")
	return res, nil
}
