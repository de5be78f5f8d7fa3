package handlers

import (
	"net/http"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	engine *backtest.Engine
	cache  *backtest.ResultCache
	dirs   Dirs
	log    zerolog.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(engine *backtest.Engine, cache *backtest.ResultCache, dirs Dirs, log zerolog.Logger) *BacktestHandler {
	return &BacktestHandler{
		engine: engine,
		cache:  cache,
		dirs:   dirs,
		log:    log.With().Str("handler", "backtest").Logger(),
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	records, err := loadRecords(req.Data, h.dirs.Data)
	if err != nil {
		writeError(c, http.StatusBadRequest, "DATA_LOAD_ERROR", err.Error())
		return
	}

	cfg, err := buildConfig(req.Config, h.dirs.Batteries)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	engine := h.engine
	if req.Options.LimitTicks > 0 {
		limited := *h.engine
		limited.MaxTicks = req.Options.LimitTicks
		engine = &limited
	}

	result, err := engine.RunConfig(c.Request.Context(), cfg, records)
	if err != nil {
		h.log.Error().Err(err).Str("strategy", cfg.Strategy.Name).Msg("backtest failed")
		writeError(c, http.StatusInternalServerError, "BACKTEST_ERROR", err.Error())
		return
	}

	id := h.cache.Put(result)
	response := models.BacktestResponse{
		ID:      id,
		Status:  "completed",
		Summary: buildSummary(result),
	}
	if req.Options.IncludeLedger {
		response.Ledger = result.Ledger
	}
	c.JSON(http.StatusOK, response)
}

// GetLedger handles GET /api/v1/backtest/:id/ledger
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	result, ok := h.cache.Get(id)
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "backtest "+id+" not found or expired")
		return
	}
	c.JSON(http.StatusOK, models.BacktestResponse{
		ID:      result.ID,
		Status:  "completed",
		Summary: buildSummary(result),
		Ledger:  result.Ledger,
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Load data once; every variation replays the same records
	records, err := loadRecords(req.Data, h.dirs.Data)
	if err != nil {
		writeError(c, http.StatusBadRequest, "DATA_LOAD_ERROR", err.Error())
		return
	}

	base, err := buildConfig(req.BaseConfig, h.dirs.Batteries)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	variations := make([]backtest.Variation, 0, len(req.Variations))
	for _, v := range req.Variations {
		cfg := *base
		err := applyOverrides(&cfg, v.Config, h.dirs.Batteries)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_CONFIG", v.Name+": "+err.Error())
			return
		}
		variations = append(variations, backtest.Variation{Name: v.Name, Config: &cfg})
	}

	results, err := h.engine.Sweep(c.Request.Context(), records, variations, 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "BACKTEST_ERROR", err.Error())
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(results))
	for _, r := range results {
		comparison = append(comparison, models.ComparisonResult{
			Name:    r.Name,
			Summary: buildSummary(r),
		})
	}
	resp := models.CompareBacktestResponse{Comparison: comparison}
	if best := backtest.Best(results); best != nil {
		resp.Best = best.Name
	}
	c.JSON(http.StatusOK, resp)
}

// buildSummary aggregates the ledger. Energies are from the requested actions.
func buildSummary(result *backtest.Result) models.BacktestSummary {
	summary := models.BacktestSummary{
		Strategy:     result.Strategy,
		TotalProfit:  result.TotalProfit,
		TotalReward:  result.TotalReward,
		RewardMean:   result.RewardMean,
		RewardStd:    result.RewardStd,
		FinalSOCKWh:  result.FinalSOCKWh,
		TotalTicks:   result.Ticks,
		RegimeCounts: result.RegimeCounts,
		EndReason:    string(result.EndReason),
	}
	if len(result.Ledger) == 0 {
		return summary
	}

	summary.BacktestWindow = models.TimeWindow{
		Start: result.Ledger[0].Timestamp,
		End:   result.Ledger[len(result.Ledger)-1].Timestamp.Add(model.TickDuration),
	}
	for _, row := range result.Ledger {
		if row.Terminal {
			continue
		}
		switch {
		case row.ChargeKW > 0:
			summary.EnergyChargedKWh += model.PowerToEnergyKWh(row.ChargeKW)
		case row.ChargeKW < 0:
			summary.EnergyDischargedKWh += model.PowerToEnergyKWh(-row.ChargeKW)
		}
		summary.SolarRoutedKWh += model.PowerToEnergyKWh(row.SolarToBatteryKW)
	}
	return summary
}
