package indicator

import "slices"

// neutral is returned by the oscillators when there is not enough data.
const neutral = 50.0

// RSI returns the relative strength index over the last period price changes.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return neutral
	}

	var gain, loss float64
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}

	rs := gain / loss
	return 100 - 100/(1+rs)
}

// Stochastic returns %K over the last kPeriod prices and %D, the dPeriod
// average of %K. Only the latest %K is available, so %D equals %K.
func Stochastic(prices []float64, kPeriod, dPeriod int) (k, d float64) {
	if kPeriod <= 0 || dPeriod <= 0 || len(prices) < kPeriod {
		return neutral, neutral
	}

	window := prices[len(prices)-kPeriod:]
	lo, hi := slices.Min(window), slices.Max(window)
	if hi == lo {
		return neutral, neutral
	}

	k = 100 * (prices[len(prices)-1] - lo) / (hi - lo)
	return k, k
}
