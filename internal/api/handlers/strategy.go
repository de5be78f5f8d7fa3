package handlers

import (
	"net/http"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/strategy"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	d := strategy.DefaultMovingAverageParams()
	strategies := []models.StrategyInfo{
		{
			Name:        "moving_average",
			Description: "Buys below the moving average price, sells above it and always charges at negative prices. Idles until the price window is full.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "window_size",
					Type:        "int",
					Description: "Number of 5-minute ticks in the moving average",
					Default:     d.WindowSize,
				},
				{
					Name:        "charge_scale",
					Type:        "float",
					Description: "Scale on the grid charge rate and on PV routed to the battery",
					Default:     d.ChargeScale,
				},
				{
					Name:        "discharge_scale",
					Type:        "float",
					Description: "Scale on the discharge rate in the sell regime",
					Default:     d.DischargeScale,
				},
				{
					Name:        "low_battery_threshold",
					Type:        "float",
					Description: "SOC fraction under which the sell regime routes solar instead of discharging",
					Default:     d.LowBatteryThreshold,
				},
				{
					Name:        "price_ceiling",
					Type:        "float",
					Description: "Prices above this are left out of the observed extrema (0 disables)",
					Default:     d.PriceCeiling,
				},
			},
		},
		{
			Name:        "schedule",
			Description: "Time-based schedule strategy. Charges and discharges at specific times each day.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "charge_start",
					Type:        "string",
					Description: "Start time for charging (HH:MM format, e.g., '10:00')",
					Default:     "10:00",
				},
				{
					Name:        "charge_end",
					Type:        "string",
					Description: "End time for charging (HH:MM format)",
					Default:     "17:00",
				},
				{
					Name:        "discharge_start",
					Type:        "string",
					Description: "Start time for discharging (HH:MM format, e.g., '17:00')",
					Default:     "17:00",
				},
				{
					Name:        "discharge_end",
					Type:        "string",
					Description: "End time for discharging (HH:MM format)",
					Default:     "21:00",
				},
				{
					Name:        "charge_power_kw",
					Type:        "float",
					Description: "Charge power in kW (defaults to the battery's max charge rate)",
				},
				{
					Name:        "discharge_power_kw",
					Type:        "float",
					Description: "Discharge power in kW (defaults to the battery's max charge rate)",
				},
			},
		},
		{
			Name:        "vector",
			Description: "Replays a constant (solar, charge) action vector, each component in [-1, 1] of the max charge rate.",
			Parameters: []models.ParameterInfo{
				{Name: "solar", Type: "float", Description: "Solar-to-battery component", Default: 0.0},
				{Name: "charge", Type: "float", Description: "Grid charge (+) / discharge (-) component", Default: 0.0},
			},
		},
		{
			Name:        "idle",
			Description: "Never acts. Baseline for comparisons.",
			Parameters:  []models.ParameterInfo{},
		},
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
