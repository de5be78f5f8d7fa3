package models

import (
	"time"

	"battery-arbitrage/internal/analysis"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/model"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID      string               `json:"id,omitempty"`
	Status  string               `json:"status"`
	Summary BacktestSummary      `json:"summary"`
	Ledger  []backtest.LedgerRow `json:"ledger,omitempty"`
}

// BacktestSummary contains aggregated backtest results
type BacktestSummary struct {
	Strategy            string         `json:"strategy"`
	TotalProfit         float64        `json:"total_profit"`
	TotalReward         float64        `json:"total_reward"`
	RewardMean          float64        `json:"reward_mean"`
	RewardStd           float64        `json:"reward_std"`
	FinalSOCKWh         float64        `json:"final_soc_kwh"`
	TotalTicks          int            `json:"total_ticks"`
	BacktestWindow      TimeWindow     `json:"backtest_window"`
	EnergyChargedKWh    float64        `json:"energy_charged_kwh"`
	EnergyDischargedKWh float64        `json:"energy_discharged_kwh"`
	SolarRoutedKWh      float64        `json:"solar_routed_kwh"`
	RegimeCounts        map[string]int `json:"regime_counts,omitempty"`
	EndReason           string         `json:"end_reason"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
	Best       string             `json:"best,omitempty"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string          `json:"name"`
	Summary BacktestSummary `json:"summary"`
}

// PolicyActResponse is a single decision
type PolicyActResponse struct {
	Action       model.Action       `json:"action"`
	Kind         model.ActionKind   `json:"kind"`
	Vector       model.ActionVector `json:"vector"`
	Regime       string             `json:"regime,omitempty"`
	Warm         bool               `json:"warm"`
	WindowLength int                `json:"window_length"`
}

type RewardScoreResponse struct {
	Reward float64 `json:"reward"`
	Func   string  `json:"func"`
}

type ProfileResponse struct {
	Profile     analysis.PriceProfile `json:"profile"`
	Calibration *analysis.Calibration `json:"calibration,omitempty"`
}

// RankResponse represents the response from ranking datasets
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked dataset
type Ranking struct {
	Rank         int     `json:"rank"`
	Dataset      string  `json:"dataset"`
	Count        int     `json:"count"`
	SpreadP95P05 float64 `json:"spread_p95_p05"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	OracleProfit float64 `json:"oracle_profit"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CapacityKWh     float64 `json:"capacity_kwh"`
	MaxChargeRateKW float64 `json:"max_charge_rate_kw"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// DatasetInfo represents a price history file available to the server
type DatasetInfo struct {
	ID     string `json:"id"`
	File   string `json:"file"`
	Format string `json:"format"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
