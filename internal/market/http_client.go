package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/newthinker/binsig/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPClientOptions configures an HTTPClient.
type HTTPClientOptions struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	MaxRetryTime   time.Duration
}

// HTTPClient talks to a remote market-data backend over JSON.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetry   time.Duration
	logger     *zap.Logger
}

// NewHTTPClient creates a rate-limited, retrying client.
func NewHTTPClient(opts HTTPClientOptions, logger *zap.Logger) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), int(max(1, opts.RequestsPerSec))),
		maxRetry:   opts.MaxRetryTime,
		logger:     logger,
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// FetchMarketData calls POST /market-data.
func (c *HTTPClient) FetchMarketData(ctx context.Context, symbol string, timeframe int) (*Data, error) {
	body := map[string]any{"symbol": symbol, "timeframe": timeframe}
	var out Data
	if err := c.do(ctx, http.MethodPost, "/market-data", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeMarket calls POST /analyze.
func (c *HTTPClient) AnalyzeMarket(ctx context.Context, symbol string, days int, useNewsFilter bool) (*Analysis, error) {
	body := map[string]any{"symbol": symbol, "days": days, "useNewsFilter": useNewsFilter}
	var out Analysis
	if err := c.do(ctx, http.MethodPost, "/analyze", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateRemoteSignals calls POST /signals.
func (c *HTTPClient) GenerateRemoteSignals(ctx context.Context, req RemoteSignalsRequest) ([]RemoteSignal, error) {
	var out []RemoteSignal
	if err := c.do(ctx, http.MethodPost, "/signals", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status calls GET /status.
func (c *HTTPClient) Status(ctx context.Context) (*ConnectionStatus, error) {
	var out ConnectionStatus
	if err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
	}

	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			serr := &StatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode < 500 {
				return backoff.Permanent(serr)
			}
			return serr
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetry
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying market request",
			zap.String("path", path),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return core.WrapError(core.ErrTransport, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return core.WrapError(core.ErrTransport, fmt.Errorf("decoding %s response: %w", path, err))
	}
	return nil
}
