// Package indicator implements the price indicators used by the simulated
// market analyzer.
package indicator

// SMA returns the simple moving average series of prices.
// The result has len(prices)-period+1 values, or none if prices is shorter than period.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	out := make([]float64, 0, len(prices)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out = append(out, sum/float64(period))

	for i := period; i < len(prices); i++ {
		sum += prices[i] - prices[i-period]
		out = append(out, sum/float64(period))
	}
	return out
}

// EMA returns the exponential moving average series, seeded with the SMA
// of the first period prices.
func EMA(prices []float64, period int) []float64 {
	seed := SMA(prices[:min(period, len(prices))], period)
	if len(seed) == 0 {
		return []float64{}
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)
	ema := seed[0]
	out = append(out, ema)
	for _, p := range prices[period:] {
		ema += (p - ema) * k
		out = append(out, ema)
	}
	return out
}

// Last returns the final value of series, or fallback when it is empty.
func Last(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	return series[len(series)-1]
}
