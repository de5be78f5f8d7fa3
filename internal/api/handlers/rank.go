package handlers

import (
	"net/http"
	"strings"

	"battery-arbitrage/internal/analysis"
	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RankHandler profiles price series and ranks datasets by arbitrage potential
type RankHandler struct {
	dirs Dirs
	log  zerolog.Logger
}

// NewRankHandler creates a new rank handler
func NewRankHandler(dirs Dirs, log zerolog.Logger) *RankHandler {
	return &RankHandler{dirs: dirs, log: log.With().Str("handler", "rank").Logger()}
}

// Profile handles POST /api/v1/profile
func (h *RankHandler) Profile(c *gin.Context) {
	var req models.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	records, err := loadRecords(req.Data, h.dirs.Data)
	if err != nil {
		writeError(c, http.StatusBadRequest, "DATA_LOAD_ERROR", err.Error())
		return
	}
	battery := config.MergeBattery(config.Default().Battery, req.Battery).Spec()
	if err := battery.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	resp := models.ProfileResponse{
		Profile: analysis.ComputePriceProfile(records, nil, &battery),
	}
	if cal, ok := analysis.Calibrate(records); ok {
		resp.Calibration = &cal
	}
	c.JSON(http.StatusOK, resp)
}

// RankDatasets handles GET /api/v1/rank
func (h *RankHandler) RankDatasets(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	battery, err := resolveBattery(h.dirs.Batteries, req.BatteryFile, config.BatteryConfig{})
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	spec := battery.Spec()
	if err := spec.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	series := map[string][]model.PriceRecord{}
	for _, id := range strings.Split(req.Datasets, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		records, err := loadRecords(models.DataSourceConfig{Type: "dataset", Dataset: id}, h.dirs.Data)
		if err != nil {
			writeError(c, http.StatusBadRequest, "DATA_LOAD_ERROR", err.Error())
			return
		}
		series[id] = records
	}
	if len(series) == 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "no datasets given")
		return
	}

	ranked := analysis.RankByOracleProfit(series, spec)
	h.log.Debug().Int("datasets", len(ranked)).Str("battery", battery.Name).Msg("ranked datasets")

	rankings := make([]models.Ranking, 0, req.Limit)
	for i, r := range ranked {
		if i >= req.Limit {
			break
		}
		rankings = append(rankings, models.Ranking{
			Rank:         i + 1,
			Dataset:      r.Name,
			Count:        r.Count,
			SpreadP95P05: r.SpreadP95P05,
			Min:          r.Min,
			Max:          r.Max,
			OracleProfit: r.OracleProfit,
		})
	}
	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings})
}
