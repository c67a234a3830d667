package market

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/indicator"
)

// Simulation constants
const (
	basePrice      = 1.2345
	priceSpread    = 0.01
	priceSamples   = 100
	levelWindow    = 20
	levelCount     = 3
	strongTrend    = 0.7
	remoteMinGap   = 3
	remoteMaxGap   = 21
	remoteLookback = 7
)

// Source supplies the random draws of the simulator.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Simulator is an in-process Client that fabricates market data.
// No real feed is involved.
type Simulator struct {
	mu  sync.Mutex
	rnd Source
	now func() time.Time
}

// NewSimulator creates a simulator drawing from rnd.
func NewSimulator(rnd Source) *Simulator {
	return &Simulator{rnd: rnd, now: time.Now}
}

// FetchMarketData returns a synthetic snapshot of priceSamples prices.
func (s *Simulator) FetchMarketData(ctx context.Context, symbol string, timeframe int) (*Data, error) {
	s.mu.Lock()
	prices := make([]float64, priceSamples)
	for i := range prices {
		prices[i] = basePrice + (s.rnd.Float64()-0.5)*priceSpread
	}
	s.mu.Unlock()

	last := prices[len(prices)-1]
	return &Data{
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: s.now().Unix(),
		Open:      last - 0.0010,
		High:      last + 0.0020,
		Low:       last - 0.0015,
		Close:     last,
		Volume:    1000,
		Prices:    prices,
	}, nil
}

// AnalyzeMarket derives trend, strength, volatility and price levels from
// a fresh synthetic snapshot.
func (s *Simulator) AnalyzeMarket(ctx context.Context, symbol string, days int, useNewsFilter bool) (*Analysis, error) {
	data, err := s.FetchMarketData(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}
	return Analyze(symbol, data.Prices, useNewsFilter), nil
}

// GenerateRemoteSignals schedules signals from StartTime with gaps of
// 3 to 21 minutes, stopping at EndTime. Directions follow the analysis.
func (s *Simulator) GenerateRemoteSignals(ctx context.Context, req RemoteSignalsRequest) ([]RemoteSignal, error) {
	start, ok := core.ParseClock(req.StartTime)
	if !ok {
		return nil, core.WithMessage(core.ErrInvalidTimeFormat, "startTime", "start time must be HH:MM")
	}
	end, ok := core.ParseClock(req.EndTime)
	if !ok {
		return nil, core.WithMessage(core.ErrInvalidTimeFormat, "endTime", "end time must be HH:MM")
	}
	if req.Count < 1 || req.Count > core.MaxSignals {
		return nil, core.WithMessage(core.ErrRequestInvalid, "count",
			fmt.Sprintf("count must be between 1 and %d", core.MaxSignals))
	}

	analysis, err := s.AnalyzeMarket(ctx, req.Symbol, remoteLookback, true)
	if err != nil {
		return nil, err
	}
	dir := analysis.Direction()

	signals := make([]RemoteSignal, 0, min(req.Count, core.MaxSignals))
	current := start
	for i := 0; i < req.Count && current < end; i++ {
		signals = append(signals, RemoteSignal{
			ID:          i + 1,
			Symbol:      req.Symbol,
			Type:        dir,
			Time:        current.String(),
			Probability: core.FormatPercent(req.Accuracy),
			Timeframe:   core.Request{Timeframe: req.Timeframe}.TimeframeLabel(),
		})

		s.mu.Lock()
		gap := remoteMinGap + s.rnd.IntN(remoteMaxGap-remoteMinGap+1)
		s.mu.Unlock()
		current = current.Add(gap)
	}
	return signals, nil
}

// Status always reports the simulator as connected.
func (s *Simulator) Status(ctx context.Context) (*ConnectionStatus, error) {
	return &ConnectionStatus{
		Connected: true,
		Version:   APIVersion,
		Timestamp: s.now().Unix(),
	}, nil
}

// Analyze computes an Analysis from a price series.
func Analyze(symbol string, prices []float64, useNewsFilter bool) *Analysis {
	ind := computeIndicators(prices)

	news := LevelUnknown
	if useNewsFilter {
		news = LevelLow
	}

	return &Analysis{
		Symbol:           symbol,
		Trend:            trend(ind),
		Strength:         strength(ind),
		Volatility:       volatility(prices),
		SupportLevels:    levels(prices, slices.Min[[]float64]),
		ResistanceLevels: levels(prices, slices.Max[[]float64]),
		NewsImpact:       news,
		Indicators:       ind,
	}
}

// Direction picks a signal side: a strong trend decides directly,
// otherwise a vote of MACD, oversold RSI and oversold stochastic.
func (a *Analysis) Direction() core.Direction {
	switch {
	case a.Trend == TrendBullish && a.Strength > strongTrend:
		return core.DirectionCall
	case a.Trend == TrendBearish && a.Strength > strongTrend:
		return core.DirectionPut
	}

	ind := a.Indicators
	votes := countTrue(
		ind.MACD > ind.SignalLine,
		ind.RSI < 30,
		ind.StochasticK < 20 && ind.StochasticK > ind.StochasticD,
	)
	if votes >= 2 {
		return core.DirectionCall
	}
	return core.DirectionPut
}

func computeIndicators(prices []float64) Indicators {
	last := 0.0
	if len(prices) > 0 {
		last = prices[len(prices)-1]
	}

	ema12 := indicator.EMA(prices, 12)
	ema26 := indicator.EMA(prices, 26)

	// align the two series on their common tail
	var macdLine []float64
	if len(ema26) > 0 {
		offset := len(ema12) - len(ema26)
		macdLine = make([]float64, len(ema26))
		for i := range ema26 {
			macdLine[i] = ema12[i+offset] - ema26[i]
		}
	}
	macd := indicator.Last(macdLine, 0)
	signalLine := indicator.Last(indicator.EMA(macdLine, 9), macd)

	k, d := indicator.Stochastic(prices, 14, 3)

	return Indicators{
		MACD:        macd,
		SignalLine:  signalLine,
		RSI:         indicator.RSI(prices, 14),
		StochasticK: k,
		StochasticD: d,
		SMA20:       indicator.Last(indicator.SMA(prices, 20), last),
		EMA50:       indicator.Last(indicator.EMA(prices, 50), last),
	}
}

func trend(ind Indicators) string {
	bullish := countTrue(
		ind.MACD > ind.SignalLine,
		ind.RSI > 50,
		ind.StochasticK > ind.StochasticD && ind.StochasticK < 80,
		ind.SMA20 > ind.EMA50,
	)
	switch {
	case bullish >= 3:
		return TrendBullish
	case bullish <= 1:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

func strength(ind Indicators) float64 {
	rsi := math.Abs(ind.RSI-50) / 50
	macd := 0.0
	if ind.MACD != 0 {
		macd = math.Abs(ind.MACD-ind.SignalLine) / math.Abs(ind.MACD)
	}
	stoch := math.Abs(ind.StochasticK-50) / 50
	return (rsi + macd + stoch) / 3
}

func volatility(prices []float64) string {
	if len(prices) < 2 {
		return LevelLow
	}
	var sum float64
	for i := 1; i < len(prices); i++ {
		sum += math.Abs((prices[i] - prices[i-1]) / prices[i-1])
	}
	v := sum / float64(len(prices)-1)
	switch {
	case v < 0.001:
		return LevelLow
	case v < 0.002:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// levels takes the extreme of each sliding window and keeps the distinct,
// sorted, 4-decimal values of the last levelCount windows.
func levels(prices []float64, extreme func([]float64) float64) []float64 {
	n := len(prices) - levelWindow
	if n <= 0 {
		return []float64{}
	}

	from := max(0, n-levelCount)
	out := make([]float64, 0, levelCount)
	for i := from; i < n; i++ {
		v := math.Round(extreme(prices[i:i+levelWindow])*1e4) / 1e4
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

func countTrue(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}
