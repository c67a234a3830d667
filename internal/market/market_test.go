package market

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newSim() *Simulator {
	s := NewSimulator(rand.New(rand.NewPCG(1, 2)))
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("EUR/USD"))
	assert.True(t, IsSupported("NVDA-OTC"))
	assert.False(t, IsSupported("DOGE/USD"))
	assert.Len(t, Markets, 30)
}

func TestSimulator_FetchMarketData(t *testing.T) {
	data, err := newSim().FetchMarketData(context.Background(), "EUR/USD", 5)
	require.NoError(t, err)

	assert.Len(t, data.Prices, priceSamples)
	assert.Equal(t, int64(1700000000), data.Timestamp)
	assert.Equal(t, 5, data.Timeframe)
	for _, p := range data.Prices {
		assert.InDelta(t, basePrice, p, priceSpread/2)
	}
	assert.InDelta(t, data.Close+0.002, data.High, 1e-12)
	assert.InDelta(t, data.Close-0.0015, data.Low, 1e-12)
}

func TestSimulator_AnalyzeMarket(t *testing.T) {
	a, err := newSim().AnalyzeMarket(context.Background(), "EUR/USD", 7, false)
	require.NoError(t, err)

	assert.Contains(t, []string{TrendBullish, TrendBearish, TrendNeutral}, a.Trend)
	assert.Contains(t, []string{LevelLow, LevelMedium, LevelHigh}, a.Volatility)
	assert.Equal(t, LevelUnknown, a.NewsImpact)
	assert.GreaterOrEqual(t, a.Strength, 0.0)
	assert.NotEmpty(t, a.SupportLevels)
	assert.LessOrEqual(t, len(a.SupportLevels), levelCount)
	assert.IsNonDecreasing(t, a.SupportLevels)
	assert.IsNonDecreasing(t, a.ResistanceLevels)
}

func TestAnalyze_Trend(t *testing.T) {
	// accelerating moves keep MACD clear of its signal line
	rising := make([]float64, 100)
	for i := range rising {
		rising[i] = 1 + float64(i*i)*1e-5
	}
	a := Analyze("X", rising, true)
	assert.Equal(t, TrendBullish, a.Trend)
	assert.Equal(t, LevelLow, a.NewsImpact)
	assert.Equal(t, 100.0, a.Indicators.RSI)

	falling := make([]float64, 100)
	for i := range falling {
		falling[i] = 2 - float64(i*i)*1e-5
	}
	assert.Equal(t, TrendBearish, Analyze("X", falling, true).Trend)
}

func TestLevels(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = float64(i)
	}
	// windows start at 0..4, last three start at 2,3,4
	assert.Equal(t, []float64{2, 3, 4}, levels(prices, minOf))
	assert.Empty(t, levels(prices[:10], minOf))
}

func minOf(s []float64) float64 {
	m := s[0]
	for _, v := range s {
		m = min(m, v)
	}
	return m
}

func TestAnalysis_Direction(t *testing.T) {
	strongBull := &Analysis{Trend: TrendBullish, Strength: 0.9}
	assert.Equal(t, core.DirectionCall, strongBull.Direction())

	strongBear := &Analysis{Trend: TrendBearish, Strength: 0.9}
	assert.Equal(t, core.DirectionPut, strongBear.Direction())

	weak := &Analysis{Trend: TrendBullish, Strength: 0.2, Indicators: Indicators{
		MACD: 1, SignalLine: 0, RSI: 25,
	}}
	assert.Equal(t, core.DirectionCall, weak.Direction())

	weak.Indicators.RSI = 60
	assert.Equal(t, core.DirectionPut, weak.Direction())
}

func TestSimulator_GenerateRemoteSignals(t *testing.T) {
	sigs, err := newSim().GenerateRemoteSignals(context.Background(), RemoteSignalsRequest{
		Symbol:    "EUR/USD",
		StartTime: "09:00",
		EndTime:   "12:00",
		Accuracy:  95,
		Count:     5,
		Timeframe: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sigs)
	assert.LessOrEqual(t, len(sigs), 5)

	assert.Equal(t, "09:00", sigs[0].Time)
	prev := -1
	for i, s := range sigs {
		assert.Equal(t, i+1, s.ID)
		assert.Equal(t, "95%", s.Probability)
		assert.Equal(t, "5m", s.Timeframe)
		c, ok := core.ParseClock(s.Time)
		require.True(t, ok)
		assert.Greater(t, int(c), prev)
		assert.Less(t, int(c), 12*60)
		prev = int(c)
	}
}

func TestSimulator_GenerateRemoteSignals_BadTime(t *testing.T) {
	_, err := newSim().GenerateRemoteSignals(context.Background(), RemoteSignalsRequest{
		StartTime: "9", EndTime: "10:00", Count: 1,
	})
	assert.ErrorIs(t, err, core.ErrInvalidTimeFormat)
}

func TestSimulator_GenerateRemoteSignals_CountBounds(t *testing.T) {
	for _, count := range []int{-1, 0, core.MaxSignals + 1, 1_000_000_000} {
		_, err := newSim().GenerateRemoteSignals(context.Background(), RemoteSignalsRequest{
			Symbol: "EUR/USD", StartTime: "09:00", EndTime: "09:10", Count: count,
		})
		var cerr *core.Error
		require.ErrorAs(t, err, &cerr, "count %d", count)
		assert.Equal(t, core.ErrRequestInvalid.Code, cerr.Code)
		assert.Equal(t, "count", cerr.Field)
	}

	sigs, err := newSim().GenerateRemoteSignals(context.Background(), RemoteSignalsRequest{
		Symbol: "EUR/USD", StartTime: "09:00", EndTime: "09:10", Count: core.MaxSignals,
	})
	require.NoError(t, err)
	assert.Len(t, sigs, 1)
	assert.LessOrEqual(t, cap(sigs), core.MaxSignals)
}

func TestSimulator_Status(t *testing.T) {
	st, err := newSim().Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, APIVersion, st.Version)
}

func TestHTTPClient_RoundTrip(t *testing.T) {
	sim := newSim()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Symbol        string `json:"symbol"`
			Days          int    `json:"days"`
			UseNewsFilter bool   `json:"useNewsFilter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		a, _ := sim.AnalyzeMarket(r.Context(), body.Symbol, body.Days, body.UseNewsFilter)
		json.NewEncoder(w).Encode(a)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		st, _ := sim.Status(r.Context())
		json.NewEncoder(w).Encode(st)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{BaseURL: srv.URL + "/"}, nil)

	a, err := client.AnalyzeMarket(context.Background(), "GBP/USD", 7, true)
	require.NoError(t, err)
	assert.Equal(t, "GBP/USD", a.Symbol)
	assert.Equal(t, LevelLow, a.NewsImpact)

	st, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
}

func TestHTTPClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{BaseURL: srv.URL}, nil)
	_, err := client.FetchMarketData(context.Background(), "EUR/USD", 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTransport)
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]RemoteSignal{{ID: 1, Symbol: "EUR/USD", Type: core.DirectionPut}})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{BaseURL: srv.URL, MaxRetryTime: 10 * time.Second}, nil)
	sigs, err := client.GenerateRemoteSignals(context.Background(), RemoteSignalsRequest{Symbol: "EUR/USD"})

	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, core.DirectionPut, sigs[0].Type)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_RetriesWaitOnLimiter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{BaseURL: srv.URL, MaxRetryTime: 10 * time.Second}, nil)
	// two tokens and no refill within the deadline: a third attempt cannot start
	client.limiter = rate.NewLimiter(rate.Every(time.Hour), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := client.Status(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTransport)
	assert.Equal(t, int32(2), calls.Load())
}

type stubProvider struct {
	prompt llm.Prompt
	text   string
	err    error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, p llm.Prompt) (*llm.Completion, error) {
	s.prompt = p
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Text: s.text}, nil
}

func TestNarrator(t *testing.T) {
	var disabled *Narrator
	text, err := disabled.Narrate(context.Background(), &Analysis{})
	require.NoError(t, err)
	assert.Empty(t, text)

	stub := &stubProvider{text: "  Mildly bullish.  "}
	n := NewNarrator(stub)
	text, err = n.Narrate(context.Background(), &Analysis{Symbol: "EUR/USD", Trend: TrendBullish})
	require.NoError(t, err)
	assert.Equal(t, "Mildly bullish.", text)
	assert.Contains(t, stub.prompt.User, `"trend":"bullish"`)

	n = NewNarrator(&stubProvider{err: errors.New("boom")})
	_, err = n.Narrate(context.Background(), &Analysis{})
	assert.ErrorIs(t, err, core.ErrLLMFailed)
}
