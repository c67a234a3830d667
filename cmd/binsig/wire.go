package main

import (
	"context"
	"fmt"

	"github.com/newthinker/binsig/internal/app"
	"github.com/newthinker/binsig/internal/config"
	"github.com/newthinker/binsig/internal/llm/factory"
	"github.com/newthinker/binsig/internal/market"
	"github.com/newthinker/binsig/internal/metrics"
	"github.com/newthinker/binsig/internal/signal"
	"github.com/newthinker/binsig/internal/storage/archive"
	"github.com/newthinker/binsig/internal/storage/batch"
	"go.uber.org/zap"
)

// loadConfig reads the config file when one is given and validates it.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// components are the collaborators built from config. close releases
// whatever needs releasing.
type components struct {
	app    *app.App
	market market.Client
	close  func()
}

func buildApp(ctx context.Context, cfg *config.Config, reg *metrics.Registry, log *zap.Logger) (_ *components, err error) {
	a := app.New(cfg, log)
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	switch cfg.Storage.Batch.Type {
	case "redis":
		store, err := batch.NewRedisStore(ctx, batch.RedisOptions{
			Addr:     cfg.Storage.Batch.Redis.Addr,
			Password: cfg.Storage.Batch.Redis.Password,
			DB:       cfg.Storage.Batch.Redis.DB,
			TTL:      cfg.Storage.Batch.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting batch store: %w", err)
		}
		a.UseBatchStore(store)
		closers = append(closers, func() { store.Close() })
		log.Info("using redis batch store", zap.String("addr", cfg.Storage.Batch.Redis.Addr))
	default:
		log.Debug("using in-memory batch store", zap.Int("max_batches", cfg.Storage.Batch.MaxBatches))
	}

	arc, err := archive.New(cfg.Storage.Archive)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	if arc != nil {
		a.UseArchive(arc)
		log.Info("archiving exports", zap.String("type", cfg.Storage.Archive.Type))
	}

	if reg != nil {
		a.UseMetrics(reg)
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if provider != nil {
		log.Info("market commentary enabled", zap.String("provider", provider.Name()))
	}

	sim := market.NewSimulator(signal.NewRand(cfg.Generator.Seed))
	a.UseMarket(sim, market.NewNarrator(provider))

	return &components{
		app:    a,
		market: sim,
		close:  closeAll,
	}, nil
}
