package handlers

import (
	"net/http"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/reward"
	"battery-arbitrage/internal/strategy"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PolicyHandler serves single decisions and reward scores, for callers that
// run their own simulator.
type PolicyHandler struct {
	log zerolog.Logger
}

func NewPolicyHandler(log zerolog.Logger) *PolicyHandler {
	return &PolicyHandler{log: log.With().Str("handler", "policy").Logger()}
}

// Act handles POST /api/v1/policy/act
func (h *PolicyHandler) Act(c *gin.Context) {
	var req models.PolicyActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := req.External.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
		return
	}
	if err := req.Internal.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
		return
	}

	battery := config.MergeBattery(config.Default().Battery, req.Battery).Spec()
	if err := battery.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	name := req.Strategy.Name
	if name == "" {
		name = config.Default().Strategy.Name
	}
	strat, err := strategy.Build(name, req.Strategy.Params, battery, h.log)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	ma, isMA := strat.(*strategy.MovingAverageStrategy)
	if isMA {
		ma.SeedPrices(req.PriceHistory)
	}

	ext, in := req.External, req.Internal
	if in.MaxChargeRateKW <= 0 {
		in.MaxChargeRateKW = battery.MaxChargeRateKW
	}
	action := strat.Decide(strategy.Context{
		External: &ext,
		Internal: &in,
		Battery:  battery,
	})

	resp := models.PolicyActResponse{
		Action: action,
		Kind:   action.Kind(),
		Vector: action.Encode(in.MaxChargeRateKW),
	}
	if isMA {
		resp.Regime = ma.LastRegime().String()
		resp.Warm = ma.IsWarm()
		resp.WindowLength = ma.Window().Len()
	}
	c.JSON(http.StatusOK, resp)
}

// Score handles POST /api/v1/reward/score
func (h *PolicyHandler) Score(c *gin.Context) {
	var req models.RewardScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := req.External.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
		return
	}
	if err := req.Internal.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
		return
	}

	cfg := config.Default()
	cfg.Battery = config.MergeBattery(cfg.Battery, req.Battery)
	if err := decodeSection(req.Reward, &cfg.Reward); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", "reward: "+err.Error())
		return
	}
	if err := cfg.Battery.Spec().Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	rf, err := reward.New(cfg.Reward.Name, cfg.Reward.Config, cfg.Battery.Spec())
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.RewardScoreResponse{
		Reward: rf.Score(req.Action, req.External, req.Internal),
		Func:   rf.Name(),
	})
}
