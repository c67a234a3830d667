// Package market defines the market-data and analysis collaborator used
// alongside signal generation, with a simulated backend and an HTTP client.
package market

import (
	"context"

	"github.com/newthinker/binsig/internal/core"
)

// APIVersion is reported by Status.
const APIVersion = "2.0"

// Client is the market-data/analysis contract.
type Client interface {
	FetchMarketData(ctx context.Context, symbol string, timeframe int) (*Data, error)
	AnalyzeMarket(ctx context.Context, symbol string, days int, useNewsFilter bool) (*Analysis, error)
	GenerateRemoteSignals(ctx context.Context, req RemoteSignalsRequest) ([]RemoteSignal, error)
	Status(ctx context.Context) (*ConnectionStatus, error)
}

// Data is a price snapshot for one symbol.
type Data struct {
	Symbol    string    `json:"symbol"`
	Timeframe int       `json:"timeframe"`
	Timestamp int64     `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Prices    []float64 `json:"prices,omitempty"`
}

// Indicators holds the technical indicators behind an analysis.
type Indicators struct {
	MACD        float64 `json:"macd"`
	SignalLine  float64 `json:"signal_line"`
	RSI         float64 `json:"rsi"`
	StochasticK float64 `json:"stochastic_k"`
	StochasticD float64 `json:"stochastic_d"`
	SMA20       float64 `json:"sma_20"`
	EMA50       float64 `json:"ema_50"`
}

// Trend and level labels
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"

	LevelLow     = "low"
	LevelMedium  = "medium"
	LevelHigh    = "high"
	LevelUnknown = "unknown"
)

// Analysis summarizes market conditions for a symbol.
type Analysis struct {
	Symbol           string     `json:"symbol"`
	Trend            string     `json:"trend"`
	Strength         float64    `json:"strength"`
	Volatility       string     `json:"volatility"`
	SupportLevels    []float64  `json:"support_levels"`
	ResistanceLevels []float64  `json:"resistance_levels"`
	NewsImpact       string     `json:"news_impact"`
	Indicators       Indicators `json:"indicators"`
}

// RemoteSignalsRequest asks the backend for a signal list.
type RemoteSignalsRequest struct {
	Symbol    string  `json:"symbol"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Accuracy  float64 `json:"accuracy"`
	Count     int     `json:"count"`
	Timeframe int     `json:"timeframe"`
}

// RemoteSignal is one signal produced by the backend.
type RemoteSignal struct {
	ID          int            `json:"id"`
	Symbol      string         `json:"symbol"`
	Type        core.Direction `json:"type"`
	Time        string         `json:"time"`
	Probability string         `json:"probability"`
	Timeframe   string         `json:"timeframe"`
}

// ConnectionStatus reports backend availability.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}
