package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	batteryDir string
	log        zerolog.Logger
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(dir string, log zerolog.Logger) *BatteryHandler {
	log = log.With().Str("handler", "battery").Logger()
	log.Info().Str("dir", dir).Msg("using battery directory")
	return &BatteryHandler{
		batteryDir: dir,
		log:        log,
	}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.batteryDir).Msg("failed to read battery directory")
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".toml") {
			continue
		}

		path := filepath.Join(h.batteryDir, entry.Name())
		info, err := h.loadBatteryInfo(path, entry.Name())
		if err != nil {
			h.log.Warn().Err(err).Str("file", path).Msg("skipping battery file")
			continue // Skip invalid files
		}
		batteries = append(batteries, *info)
	}

	h.log.Debug().Int("count", len(batteries)).Msg("listed batteries")
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

func (h *BatteryHandler) loadBatteryInfo(path, filename string) (*models.BatteryInfo, error) {
	battery, err := config.LoadBatteryFile(path)
	if err != nil {
		return nil, err
	}
	if err := battery.Spec().Validate(); err != nil {
		return nil, err
	}

	// Keep the full filename without extension as the ID for consistency
	id := strings.TrimSuffix(filename, filepath.Ext(filename))

	name := battery.Name
	if name == "" {
		name = id
	}

	return &models.BatteryInfo{
		ID:   id,
		Name: name,
		File: filename,
		Specs: models.BatterySpecs{
			CapacityKWh:     battery.CapacityKWh,
			MaxChargeRateKW: battery.MaxChargeRateKW,
		},
	}, nil
}
