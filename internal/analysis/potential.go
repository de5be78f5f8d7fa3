package analysis

import (
	"math"
	"sort"
	"time"

	"battery-arbitrage/internal/model"

	"gonum.org/v1/gonum/stat"
)

// DefaultPeakHours are the evening tariff hours.
var DefaultPeakHours = []int{17, 18, 19, 20}

// PriceProfile summarises a price/PV series. Prices are $/MWh.
type PriceProfile struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`

	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	NegativeShare float64 `json:"negative_share"`
	PeakShare     float64 `json:"peak_share"`
	PeakMean      float64 `json:"peak_mean"`
	OffPeakMean   float64 `json:"off_peak_mean"`
	MeanPVKW      float64 `json:"mean_pv_kw"`

	// OracleProfit is the best achievable grid-arbitrage profit ($) for the
	// battery the profile was computed for, with perfect foresight, charging
	// or discharging at full rate or idling each tick. Zero when no battery
	// was given.
	OracleProfit float64 `json:"oracle_profit"`
}

// ComputePriceProfile summarises records. peakHours defaults to DefaultPeakHours.
// A nil battery skips the oracle bound.
func ComputePriceProfile(records []model.PriceRecord, peakHours []int, battery *model.BatterySpec) PriceProfile {
	p := PriceProfile{}
	if len(records) == 0 {
		return p
	}
	if peakHours == nil {
		peakHours = DefaultPeakHours
	}
	var peak [24]bool
	for _, h := range peakHours {
		if h >= 0 && h < 24 {
			peak[h] = true
		}
	}

	p.Count = len(records)
	p.Start = records[0].Timestamp
	p.End = records[len(records)-1].Timestamp

	prices := model.Prices(records)
	var peakPrices, offPeakPrices, pv []float64
	negatives := 0
	for _, r := range records {
		if r.Price < 0 {
			negatives++
		}
		if peak[r.Timestamp.Hour()] {
			peakPrices = append(peakPrices, r.Price)
		} else {
			offPeakPrices = append(offPeakPrices, r.Price)
		}
		pv = append(pv, r.PVPowerKW)
	}

	p.Mean, p.Std = stat.MeanStdDev(prices, nil)
	if math.IsNaN(p.Std) {
		p.Std = 0
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	p.Min = sorted[0]
	p.Max = sorted[len(sorted)-1]
	p.P05 = stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	p.P95 = stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	p.SpreadP95P05 = p.P95 - p.P05

	n := float64(p.Count)
	p.NegativeShare = float64(negatives) / n
	p.PeakShare = float64(len(peakPrices)) / n
	if len(peakPrices) > 0 {
		p.PeakMean = stat.Mean(peakPrices, nil)
	}
	if len(offPeakPrices) > 0 {
		p.OffPeakMean = stat.Mean(offPeakPrices, nil)
	}
	p.MeanPVKW = stat.Mean(pv, nil)

	if battery != nil {
		p.OracleProfit = OracleProfit(prices, *battery, 0.5)
	}
	return p
}

// Calibration is the price normalisation pair used by reward and observation.
type Calibration struct {
	PriceMean float64 `json:"price_mean"`
	PriceStd  float64 `json:"price_std"`
}

// Calibrate derives the normalisation pair from a series. ok is false when
// the series is too short or flat to produce a usable spread.
func Calibrate(records []model.PriceRecord) (c Calibration, ok bool) {
	if len(records) < 2 {
		return c, false
	}
	c.PriceMean, c.PriceStd = stat.MeanStdDev(model.Prices(records), nil)
	return c, c.PriceStd > 0
}

// OracleProfit computes a perfect-foresight upper bound with a DP over a
// discretised SOC grid: one grid step is the energy moved by a full-rate tick.
// initialSOCFraction is snapped to the nearest grid state.
func OracleProfit(prices []float64, battery model.BatterySpec, initialSOCFraction float64) float64 {
	if len(prices) == 0 || battery.Validate() != nil {
		return 0
	}
	stepKWh := model.PowerToEnergyKWh(battery.MaxChargeRateKW)
	steps := int(math.Round(battery.CapacityKWh / stepKWh))
	if steps < 1 {
		steps = 1
	}
	nStates := steps + 1
	negInf := -1e100
	dp := make([]float64, nStates)
	next := make([]float64, nStates)
	for i := range dp {
		dp[i] = negInf
	}
	init := int(math.Round(initialSOCFraction * float64(steps)))
	if init < 0 {
		init = 0
	}
	if init > steps {
		init = steps
	}
	dp[init] = 0

	for _, price := range prices {
		for i := range next {
			next[i] = negInf
		}
		gain := price * stepKWh / 1000

		for socIdx := 0; socIdx <= steps; socIdx++ {
			if dp[socIdx] <= negInf/2 {
				continue
			}
			if dp[socIdx] > next[socIdx] {
				next[socIdx] = dp[socIdx]
			}
			if socIdx < steps && dp[socIdx]-gain > next[socIdx+1] {
				next[socIdx+1] = dp[socIdx] - gain
			}
			if socIdx > 0 && dp[socIdx]+gain > next[socIdx-1] {
				next[socIdx-1] = dp[socIdx] + gain
			}
		}
		dp, next = next, dp
	}

	best := negInf
	for _, v := range dp {
		if v > best {
			best = v
		}
	}
	if best <= negInf/2 {
		return 0
	}
	return best
}
