package strategy

// Regime is the market condition a tick is classified into.
type Regime int

const (
	// RegimeWarmingUp means no trend estimate exists yet.
	RegimeWarmingUp Regime = iota
	// RegimeNegativePrice means the grid pays us to consume.
	RegimeNegativePrice
	// RegimeSell means the price is above its moving average.
	RegimeSell
	// RegimeBuy means the price is at or below its moving average.
	RegimeBuy
)

func (r Regime) String() string {
	switch r {
	case RegimeWarmingUp:
		return "warming_up"
	case RegimeNegativePrice:
		return "negative_price"
	case RegimeSell:
		return "sell"
	case RegimeBuy:
		return "buy"
	default:
		return "unknown"
	}
}

// ClassifyRegime places a warm tick into exactly one market regime.
func ClassifyRegime(price, movingAverage float64) Regime {
	switch {
	case price < 0:
		return RegimeNegativePrice
	case price > movingAverage:
		return RegimeSell
	default:
		return RegimeBuy
	}
}
