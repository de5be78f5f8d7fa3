package strategy

import "battery-arbitrage/internal/model"

// IdleStrategy never moves energy. It is the baseline every other strategy is compared with.
type IdleStrategy struct{}

func (IdleStrategy) Name() string { return "idle" }

func (IdleStrategy) Decide(Context) model.Action { return model.ZeroAction }

// Actor maps a bounded observation to a raw (solar_to_battery, charge) vector.
// Learned models are plugged in through this; their inference lives elsewhere.
type Actor func(obs model.Observation) model.ActionVector

// VectorStrategy adapts an Actor to the Strategy interface.
type VectorStrategy struct {
	Actor Actor
}

func (s *VectorStrategy) Name() string { return "vector" }

func (s *VectorStrategy) Decide(ctx Context) model.Action {
	if s.Actor == nil || ctx.External == nil || ctx.Internal == nil {
		return model.ZeroAction
	}
	rate := ctx.MaxChargeRateKW()
	return s.Actor(ctx.Observation).Decode(rate).Clamp(rate, ctx.External.PVPowerKW)
}

// ConstantActor always returns v.
func ConstantActor(v model.ActionVector) Actor {
	return func(model.Observation) model.ActionVector { return v }
}
