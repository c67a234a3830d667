package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/binsig/internal/config"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/export"
	"github.com/newthinker/binsig/internal/market"
	"github.com/newthinker/binsig/internal/metrics"
	"github.com/newthinker/binsig/internal/signal"
	"github.com/newthinker/binsig/internal/storage/archive"
	"github.com/newthinker/binsig/internal/storage/batch"
	"go.uber.org/zap"
)

// insightLookbackDays is the history window used for the market insight.
const insightLookbackDays = 7

// Insight pairs a market analysis with optional LLM commentary.
type Insight struct {
	Analysis   *market.Analysis `json:"analysis"`
	Commentary string           `json:"commentary,omitempty"`
}

// lockedRand serializes draws from a shared source.
type lockedRand struct {
	mu  sync.Mutex
	rnd signal.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.IntN(n)
}

// App is the main application orchestrator
type App struct {
	logger   *zap.Logger
	runner   signal.Runner
	rnd      signal.Rand
	layout   string
	batches  batch.Store
	archive  archive.Storage
	metrics  *metrics.Registry
	market   market.Client
	narrator *market.Narrator

	now   func() time.Time
	newID func() string
}

// New creates a new App instance backed by an in-memory batch store.
// Use the Use* methods to swap in configured collaborators.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	layout := cfg.Export.TimeLayout
	if layout == "" {
		layout = export.DefaultTimeLayout
	}

	return &App{
		logger:  logger,
		runner:  signal.Runner{Delay: cfg.Generator.Delay},
		rnd:     &lockedRand{rnd: signal.NewRand(cfg.Generator.Seed)},
		layout:  layout,
		batches: batch.NewMemoryStore(cfg.Storage.Batch.MaxBatches, cfg.Storage.Batch.TTL),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// UseBatchStore replaces the batch store.
func (a *App) UseBatchStore(s batch.Store) { a.batches = s }

// UseArchive enables archiving of exports. A nil storage disables it.
func (a *App) UseArchive(s archive.Storage) { a.archive = s }

// UseMetrics enables business metrics.
func (a *App) UseMetrics(reg *metrics.Registry) { a.metrics = reg }

// UseRand replaces the random source used for generation.
func (a *App) UseRand(rnd signal.Rand) { a.rnd = &lockedRand{rnd: rnd} }

// UseMarket sets the market-data client and optional narrator used for insights.
func (a *App) UseMarket(c market.Client, n *market.Narrator) {
	a.market = c
	a.narrator = n
}

// Check validates a request without generating anything.
func (a *App) Check(req core.Request) signal.ValidationResult {
	return signal.Check(req)
}

// Submit runs one validate-then-generate cycle and stores the batch.
// Validation rejections are returned unchanged.
func (a *App) Submit(ctx context.Context, req core.Request) (*core.Batch, error) {
	start := a.now()

	records, err := a.runner.Run(ctx, req, a.rnd)
	if err != nil {
		var cerr *core.Error
		if core.IsValidation(err) && errors.As(err, &cerr) {
			a.logger.Info("request rejected",
				zap.String("market", req.Market),
				zap.String("code", cerr.Code),
				zap.String("field", cerr.Field),
				zap.String("reason", cerr.Message),
			)
			if a.metrics != nil {
				a.metrics.RecordRejection(cerr.Code)
			}
		}
		return nil, err
	}

	b := core.Batch{
		ID:          a.newID(),
		Request:     req,
		Records:     records,
		Confidence:  signal.Confidence(req),
		Requested:   req.Count,
		Truncated:   len(records) < req.Count,
		GeneratedAt: a.now().UTC(),
	}

	if err := a.batches.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("storing batch: %w", err)
	}

	if a.metrics != nil {
		directions := make(map[string]int, 2)
		for _, rec := range records {
			directions[string(rec.Direction)]++
		}
		a.metrics.RecordBatch(directions, b.Truncated, a.now().Sub(start).Seconds())
	}

	a.logger.Info("batch generated",
		zap.String("batch_id", b.ID),
		zap.String("market", req.Market),
		zap.Int("requested", req.Count),
		zap.Int("count", len(records)),
		zap.Bool("truncated", b.Truncated),
	)
	return &b, nil
}

// Batch returns a stored batch.
func (a *App) Batch(ctx context.Context, id string) (*core.Batch, error) {
	return a.batches.Get(ctx, id)
}

// Batches lists live batches, newest first.
func (a *App) Batches(ctx context.Context, filter batch.ListFilter) ([]core.Batch, error) {
	return a.batches.List(ctx, filter)
}

// Export renders a stored batch as text. When an archive is configured the
// text is also written there; archive failures are logged and do not
// block the download.
func (a *App) Export(ctx context.Context, id string) (filename, text string, err error) {
	b, err := a.batches.Get(ctx, id)
	if err != nil {
		return "", "", err
	}

	text = export.Text(b.Records, a.layout)

	archived := false
	if a.archive != nil {
		key := export.ArchivePath(b)
		if werr := a.archive.Write(ctx, key, []byte(text)); werr != nil {
			a.logger.Warn("archiving export failed",
				zap.String("batch_id", b.ID),
				zap.String("path", key),
				zap.Error(core.WrapError(core.ErrArchive, werr)),
			)
		} else {
			archived = true
		}
	}

	if a.metrics != nil {
		a.metrics.RecordExport(archived)
	}
	a.logger.Debug("batch exported", zap.String("batch_id", b.ID), zap.Bool("archived", archived))

	return export.Filename, text, nil
}

// Insight analyzes the market of a request. It returns nil when no market
// client is configured. Commentary failures are logged and dropped.
func (a *App) Insight(ctx context.Context, symbol string, useNews bool) (*Insight, error) {
	if a.market == nil {
		return nil, nil
	}

	analysis, err := a.market.AnalyzeMarket(ctx, symbol, insightLookbackDays, useNews)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", symbol, err)
	}

	ins := &Insight{Analysis: analysis}
	text, err := a.narrator.Narrate(ctx, analysis)
	if err != nil {
		a.logger.Warn("market commentary failed", zap.String("market", symbol), zap.Error(err))
		return ins, nil
	}
	ins.Commentary = text
	return ins, nil
}
