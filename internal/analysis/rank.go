package analysis

import (
	"sort"

	"battery-arbitrage/internal/model"
)

type RankedProfile struct {
	Name string `json:"name"`
	PriceProfile
}

// RankByOracleProfit profiles each named series for the battery and sorts
// descending by OracleProfit.
func RankByOracleProfit(series map[string][]model.PriceRecord, battery model.BatterySpec) []RankedProfile {
	out := make([]RankedProfile, 0, len(series))
	for name, records := range series {
		p := ComputePriceProfile(records, nil, &battery)
		out = append(out, RankedProfile{Name: name, PriceProfile: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OracleProfit == out[j].OracleProfit {
			return out[i].Name < out[j].Name
		}
		return out[i].OracleProfit > out[j].OracleProfit
	})
	return out
}
