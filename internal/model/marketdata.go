package model

import "time"

// PriceRecord is one row of market/solar history.
// Prices are in $/MWh; power in kW.
type PriceRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	DemandKW  float64   `json:"demand"`
	PVPowerKW float64   `json:"pv_power"`
}

// PriceSeries is the JSON shape accepted for price history files.
//
// Example:
//
//	{
//	  "data": [ {"timestamp": "...", "price": 42.1, "demand": 1.2, "pv_power": 3.4} ]
//	}
type PriceSeries struct {
	Data []PriceRecord `json:"data"`
}

// Prices extracts the price column in order.
func Prices(records []PriceRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Price
	}
	return out
}
