package strategy

import "battery-arbitrage/internal/model"

// Context is everything an actor may look at when deciding a tick.
// External and Internal are nil once the simulator has no more state.
type Context struct {
	Index       int
	External    *model.ExternalState
	Internal    *model.InternalState
	Battery     model.BatterySpec
	Observation model.Observation
}

// MaxChargeRateKW prefers the simulator-reported rate and falls back to the battery spec.
func (c Context) MaxChargeRateKW() float64 {
	if c.Internal != nil && c.Internal.MaxChargeRateKW > 0 {
		return c.Internal.MaxChargeRateKW
	}
	return c.Battery.MaxChargeRateKW
}

type Strategy interface {
	Name() string
	Decide(ctx Context) model.Action
}

// HistoricalLoader is implemented by strategies that can be pre-seeded with
// price history before live decisions begin.
type HistoricalLoader interface {
	LoadHistorical(records []model.PriceRecord)
}

// RegimeReporter is implemented by strategies that classify each tick.
type RegimeReporter interface {
	LastRegime() Regime
}
