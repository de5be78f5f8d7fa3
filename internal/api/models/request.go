package models

import (
	"encoding/json"

	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/model"
)

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	Data    DataSourceConfig `json:"data" binding:"required"`
	Config  BacktestConfig   `json:"config" binding:"required"`
	Options BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig says where price/PV records come from
type DataSourceConfig struct {
	Type    string              `json:"type" binding:"required,oneof=inline dataset"`
	Records []model.PriceRecord `json:"records,omitempty"` // type=inline
	Dataset string              `json:"dataset,omitempty"` // type=dataset, a file id under DATA_DIR
}

// BacktestConfig overlays the default run configuration. Sections left out
// keep their defaults; sections given are decoded over them.
type BacktestConfig struct {
	BatteryFile  string                `json:"battery_file,omitempty"`
	Battery      config.BatteryConfig  `json:"battery,omitempty"`
	Strategy     config.StrategyConfig `json:"strategy"`
	Reward       json.RawMessage       `json:"reward,omitempty"`
	Observation  json.RawMessage       `json:"observation,omitempty"`
	Simulator    json.RawMessage       `json:"simulator,omitempty"`
	HistoryTicks int                   `json:"history_ticks,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	LimitTicks    int  `json:"limit_ticks,omitempty"`    // 0 = all
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
}

// CompareBacktestRequest represents a request to compare multiple backtests
type CompareBacktestRequest struct {
	Data       DataSourceConfig    `json:"data" binding:"required"`
	BaseConfig BacktestConfig      `json:"base_config"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1,dive"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config BacktestConfig `json:"config"`
}

// PolicyActRequest asks a strategy for a single decision. PriceHistory seeds
// the strategy's price window, oldest first.
type PolicyActRequest struct {
	Battery      config.BatteryConfig  `json:"battery,omitempty"`
	Strategy     config.StrategyConfig `json:"strategy"`
	PriceHistory []float64             `json:"price_history"`
	External     model.ExternalState   `json:"external_state"`
	Internal     model.InternalState   `json:"internal_state"`
}

// RewardScoreRequest scores one transition.
type RewardScoreRequest struct {
	Battery  config.BatteryConfig `json:"battery,omitempty"`
	Reward   json.RawMessage      `json:"reward,omitempty"`
	Action   model.Action         `json:"action"`
	External model.ExternalState  `json:"external_state"`
	Internal model.InternalState  `json:"internal_state"`
}

// ProfileRequest summarises a price series for a battery
type ProfileRequest struct {
	Data    DataSourceConfig     `json:"data" binding:"required"`
	Battery config.BatteryConfig `json:"battery,omitempty"`
}

// RankRequest represents a request to rank datasets
type RankRequest struct {
	Datasets    string `form:"datasets" binding:"required"` // comma-separated
	BatteryFile string `form:"battery_file"`
	Limit       int    `form:"limit"` // default: 10
}
