// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/binsig/internal/api/handler/api"
	"github.com/newthinker/binsig/internal/api/handler/web"
	"github.com/newthinker/binsig/internal/api/job"
	"github.com/newthinker/binsig/internal/api/middleware"
	"github.com/newthinker/binsig/internal/app"
	"github.com/newthinker/binsig/internal/market"
	"github.com/newthinker/binsig/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// rateBurst is the token bucket size per client on the JSON API.
const rateBurst = 10

// Server represents the HTTP server for binsig
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	APIKey         string
	RateLimit      float64
	MetricsEnabled bool
	MetricsPath    string
	TemplatesDir   string
	// WriteTimeout must cover the generation delay.
	WriteTimeout time.Duration
}

// Dependencies holds the collaborators the routes are built from.
type Dependencies struct {
	App     *app.App
	Jobs    *job.Store
	Market  market.Client
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.App == nil {
		return nil, errors.New("app dependency is required")
	}
	if deps.Jobs == nil {
		deps.Jobs = job.NewStore(0, time.Hour)
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	// Web UI routes
	webHandler, err := web.NewHandler(deps.App, cfg.TemplatesDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	s.mux.HandleFunc("GET /{$}", webHandler.Index)
	s.mux.HandleFunc("POST /generate", webHandler.Generate)
	s.mux.HandleFunc("GET /batches/{id}/download", webHandler.Download)

	// JSON API, protected by API key and per-client rate limit
	protect := func(h http.HandlerFunc) http.Handler {
		return middleware.APIKeyAuth(cfg.APIKey)(middleware.RateLimit(cfg.RateLimit, rateBurst)(h))
	}

	var observe func(map[job.Status]int)
	if deps.Metrics != nil {
		observe = func(counts map[job.Status]int) {
			for _, st := range []job.Status{job.StatusPending, job.StatusRunning, job.StatusComplete, job.StatusFailed} {
				deps.Metrics.SetJobsActive(string(st), counts[st])
			}
		}
	}

	signals := apihandler.NewSignalsHandler(deps.App)
	jobs := apihandler.NewJobsHandler(deps.App, deps.Jobs, s.logger, observe)
	batches := apihandler.NewBatchesHandler(deps.App)

	s.mux.Handle("POST /api/v1/signals", protect(signals.Create))
	s.mux.Handle("POST /api/v1/signals/validate", protect(signals.Validate))
	s.mux.Handle("POST /api/v1/jobs", protect(jobs.Create))
	s.mux.Handle("GET /api/v1/jobs/{id}", protect(jobs.Get))
	s.mux.Handle("GET /api/v1/batches", protect(batches.List))
	s.mux.Handle("GET /api/v1/batches/{id}", protect(batches.Get))
	s.mux.Handle("GET /api/v1/batches/{id}/export", protect(batches.Export))
	s.mux.Handle("GET /api/v1/markets", protect(apihandler.Markets))

	// Market data collaborator endpoints
	if deps.Market != nil {
		var recorder apihandler.MarketRecorder
		if deps.Metrics != nil {
			recorder = deps.Metrics
		}
		md := apihandler.NewMarketDataHandler(deps.Market, recorder)
		s.mux.HandleFunc("POST /api/pocketoption/market-data", md.MarketData)
		s.mux.HandleFunc("POST /api/pocketoption/analyze", md.Analyze)
		s.mux.HandleFunc("POST /api/pocketoption/signals", md.Signals)
		s.mux.HandleFunc("GET /api/pocketoption/status", md.Status)
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if cfg.MetricsEnabled && deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
