package backtest

import (
	"time"

	"battery-arbitrage/internal/episode"
	"battery-arbitrage/internal/model"
)

// LedgerRow is one row of per-tick output.
// This is the primary artifact for "what happened" in a backtest.
type LedgerRow struct {
	Index int `json:"index"`

	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"`
	Price     float64   `json:"price"`
	PVPowerKW float64   `json:"pv_power_kw"`

	// Regime is empty for strategies that do not classify ticks.
	Regime string           `json:"regime,omitempty"`
	Action model.ActionKind `json:"action"`

	ChargeKW         float64 `json:"charge_kw"`
	SolarToBatteryKW float64 `json:"solar_to_battery_kw"`

	SOCStartKWh float64 `json:"soc_start_kwh"`
	SOCEndKWh   float64 `json:"soc_end_kwh"`

	ProfitDelta float64 `json:"profit_delta"`
	TotalProfit float64 `json:"total_profit"`

	Reward    float64 `json:"reward"`
	CumReward float64 `json:"cum_reward"`

	// Terminal marks the tick that ended the episode; its SOC end and profit
	// are unknown and carried over from the start of the tick.
	Terminal bool `json:"terminal,omitempty"`
}

type Result struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Strategy string `json:"strategy"`

	Ledger []LedgerRow `json:"ledger,omitempty"`

	Ticks       int     `json:"ticks"`
	TotalProfit float64 `json:"total_profit"`
	TotalReward float64 `json:"total_reward"`
	FinalSOCKWh float64 `json:"final_soc_kwh"`
	RewardMean  float64 `json:"reward_mean"`
	RewardStd   float64 `json:"reward_std"`

	RegimeCounts map[string]int         `json:"regime_counts,omitempty"`
	EndReason    episode.TerminalReason `json:"end_reason"`
}

// Summary returns a copy of r without the ledger.
func (r *Result) Summary() *Result {
	s := *r
	s.Ledger = nil
	return &s
}
