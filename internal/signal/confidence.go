package signal

import (
	"math"
	"strconv"
	"strings"

	"github.com/newthinker/binsig/internal/core"
)

// Filter bonuses added to the base accuracy.
const (
	newsBonus       = 0.005
	volatilityBonus = 0.003
	trendBonus      = 0.002
	backtestBonus   = 0.001
)

// bonusDecimals is the precision of the bonuses.
const bonusDecimals = 3

// Confidence computes the single confidence percentage shared by every
// record of a batch. The result never exceeds core.MaxConfidence. Without
// bonuses the base accuracy is returned as given.
func Confidence(req core.Request) float64 {
	var bonus float64
	if req.NewsFilter {
		bonus += newsBonus
	}
	if req.VolatilityFilter {
		bonus += volatilityBonus
	}
	if req.TrendStrength == core.TrendHigh {
		bonus += trendBonus
	}
	if req.Backtest {
		bonus += backtestBonus
	}

	c := req.Accuracy
	if bonus > 0 {
		// drop float noise at the finer of the base's and the bonuses' precision
		scale := math.Pow10(max(bonusDecimals, decimals(req.Accuracy)))
		c = math.Round((c+bonus)*scale) / scale
	}
	return math.Min(core.MaxConfidence, c)
}

// decimals returns the number of fractional digits in the shortest
// representation of v.
func decimals(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if _, frac, ok := strings.Cut(s, "."); ok {
		return len(frac)
	}
	return 0
}
