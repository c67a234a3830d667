// internal/api/server_test.go
package api

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/newthinker/binsig/internal/app"
	"github.com/newthinker/binsig/internal/config"
	"github.com/newthinker/binsig/internal/market"
	"github.com/newthinker/binsig/internal/metrics"
	"go.uber.org/zap"
)

const validBody = `{"market":"EUR/USD","count":3,"start_time":"09:00","end_time":"10:00"}`

func newTestServer(t *testing.T, cfg Config) (*Server, *metrics.Registry) {
	t.Helper()
	c := config.Defaults()
	c.Generator.Delay = 0
	c.Generator.Seed = 7

	reg := metrics.NewRegistry()
	a := app.New(c, zap.NewNop())
	a.UseMetrics(reg)

	srv, err := NewServer(cfg, Dependencies{
		App:     a,
		Market:  market.NewSimulator(rand.New(rand.NewPCG(1, 2))),
		Metrics: reg,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, reg
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost"})

	w := serve(srv, httptest.NewRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestServer_RequiresApp(t *testing.T) {
	if _, err := NewServer(Config{}, Dependencies{}, nil); err == nil {
		t.Error("expected error without app")
	}
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv, _ := newTestServer(t, Config{APIKey: "test-key"})

	w := serve(srv, httptest.NewRequest("GET", "/api/v1/markets", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/markets", nil)
	req.Header.Set("X-API-Key", "test-key")
	w = serve(srv, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", w.Code)
	}
}

func TestServer_APIAuth_Disabled(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := serve(srv, httptest.NewRequest("GET", "/api/v1/markets", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with disabled auth, got %d", w.Code)
	}
}

func TestServer_GenerateAndExport(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := serve(srv, httptest.NewRequest("POST", "/api/v1/signals", strings.NewReader(validBody)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Data struct {
			ID      string `json:"id"`
			Records []any  `json:"records"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(created.Data.Records) != 3 {
		t.Errorf("expected 3 records, got %d", len(created.Data.Records))
	}

	w = serve(srv, httptest.NewRequest("GET", "/batches/"+created.Data.ID+"/download", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if lines := strings.Split(w.Body.String(), "\n"); len(lines) != 3 {
		t.Errorf("expected 3 export lines, got %d", len(lines))
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/v1/batches/"+created.Data.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for stored batch, got %d", w.Code)
	}
}

func TestServer_ValidationRejected(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	body := `{"market":"EUR/USD","count":3,"start_time":"10:00","end_time":"09:00"}`
	w := serve(srv, httptest.NewRequest("POST", "/api/v1/signals", strings.NewReader(body)))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestServer_WebForm(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := serve(srv, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	form := url.Values{
		"market":     {"EUR/USD"},
		"count":      {"2"},
		"start_time": {"09:00"},
		"end_time":   {"10:00"},
	}
	req := httptest.NewRequest("POST", "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = serve(srv, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "/download") {
		t.Error("expected a download link on the results page")
	}

	w = serve(srv, httptest.NewRequest("GET", "/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown page, got %d", w.Code)
	}
}

func TestServer_MarketEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := serve(srv, httptest.NewRequest("GET", "/api/pocketoption/status", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	body := `{"symbol":"EUR/USD","timeframe":1}`
	w = serve(srv, httptest.NewRequest("POST", "/api/pocketoption/market-data", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, Config{MetricsEnabled: true, MetricsPath: "/metrics"})

	serve(srv, httptest.NewRequest("POST", "/api/v1/signals", strings.NewReader(validBody)))

	w := serve(srv, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"binsig_batches_total", "binsig_signals_generated_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected metric %s in output", name)
		}
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := serve(srv, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when metrics disabled, got %d", w.Code)
	}
}
