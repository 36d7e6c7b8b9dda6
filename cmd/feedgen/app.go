package main

import (
	"context"
	"fmt"

	"cfbfeed/internal/cache"
	"cfbfeed/internal/client"
	"cfbfeed/internal/config"
	"cfbfeed/internal/ledger"
	"cfbfeed/internal/models"
	"cfbfeed/internal/pipeline"
	"cfbfeed/internal/queue"
	"cfbfeed/internal/repository"

	"github.com/rs/zerolog/log"
)

// app owns the connections behind one runner
type app struct {
	runner  *pipeline.Runner
	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	cfbd := client.NewClient(cfg.CFBDBaseURL, cfg.CFBDAPIKey, cfg.CFBDTimeout, cfg.CFBDMinDelay)
	log.Info().Msg("CFBD client initialized")

	var redisStore *cache.RedisStore
	if cfg.UsesRedis() {
		rs, err := cache.NewRedisStore(ctx, cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		redisStore = rs
		a.closers = append(a.closers, func() { _ = rs.Close() })
	}

	var store cache.Store
	switch cfg.CacheBackend {
	case config.BackendRedis:
		store = redisStore
	default:
		store = cache.NewFileStore(cfg.CacheDir)
	}

	var l ledger.Ledger
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     cfg.DatabasePortString(),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PostedDrafts.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		db.PoolStats()
		l = ledger.NewPostgresLedger(db.PostedDrafts)
	default:
		l = ledger.NewFileLedger(cfg.LedgerPath)
	}

	var q queue.Queue
	switch cfg.QueueBackend {
	case config.BackendRedis:
		q = queue.NewRedisQueue(redisStore.Client(), cfg.RedisQueueKey)
	default:
		q = queue.NewFileQueue(cfg.QueuePath)
	}

	settings := pipeline.Settings{
		Poll:      models.Poll(cfg.Poll),
		Probe:     pipeline.Probe(cfg.Probe),
		Threshold: cfg.MoverThreshold,
		GameLimit: cfg.GameLimit,
	}
	if settings.Poll != models.PollAP && settings.Poll != models.PollCoaches {
		a.Close()
		return nil, fmt.Errorf("unsupported poll %q", cfg.Poll)
	}

	a.runner = pipeline.NewRunner(cfbd, cache.New(store), l, q, settings)
	return a, nil
}

// Close releases connections in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
