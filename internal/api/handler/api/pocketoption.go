// internal/api/handler/api/pocketoption.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newthinker/binsig/internal/api/request"
	"github.com/newthinker/binsig/internal/api/response"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/market"
)

// MarketRecorder counts requests per market endpoint.
type MarketRecorder interface {
	RecordMarketRequest(endpoint string)
}

// MarketDataHandler exposes a market.Client over the market-data wire
// contract: plain JSON bodies without the response envelope.
type MarketDataHandler struct {
	client   market.Client
	recorder MarketRecorder
}

// NewMarketDataHandler creates a handler serving client. recorder may be nil.
func NewMarketDataHandler(client market.Client, recorder MarketRecorder) *MarketDataHandler {
	return &MarketDataHandler{client: client, recorder: recorder}
}

func (h *MarketDataHandler) record(endpoint string) {
	if h.recorder != nil {
		h.recorder.RecordMarketRequest(endpoint)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, request.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return core.WrapError(core.ErrRequestInvalid, fmt.Errorf("decoding body: %w", err))
	}
	return nil
}

// MarketData handles POST market-data.
func (h *MarketDataHandler) MarketData(w http.ResponseWriter, r *http.Request) {
	h.record("market-data")

	body := struct {
		Symbol    string `json:"symbol"`
		Timeframe int    `json:"timeframe"`
	}{Timeframe: 1}
	if err := decodeBody(w, r, &body); err != nil {
		response.Fail(w, err)
		return
	}

	data, err := h.client.FetchMarketData(r.Context(), body.Symbol, body.Timeframe)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Raw(w, http.StatusOK, data)
}

// Analyze handles POST analyze.
func (h *MarketDataHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.record("analyze")

	body := struct {
		Symbol        string `json:"symbol"`
		Days          int    `json:"days"`
		UseNewsFilter bool   `json:"useNewsFilter"`
	}{Days: 7, UseNewsFilter: true}
	if err := decodeBody(w, r, &body); err != nil {
		response.Fail(w, err)
		return
	}

	analysis, err := h.client.AnalyzeMarket(r.Context(), body.Symbol, body.Days, body.UseNewsFilter)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Raw(w, http.StatusOK, analysis)
}

// Signals handles POST signals.
func (h *MarketDataHandler) Signals(w http.ResponseWriter, r *http.Request) {
	h.record("signals")

	var body market.RemoteSignalsRequest
	if err := decodeBody(w, r, &body); err != nil {
		response.Fail(w, err)
		return
	}

	signals, err := h.client.GenerateRemoteSignals(r.Context(), body)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Raw(w, http.StatusOK, signals)
}

// Status handles GET status.
func (h *MarketDataHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.record("status")

	status, err := h.client.Status(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Raw(w, http.StatusOK, status)
}
