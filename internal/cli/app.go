package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/abhaya/internal/cache"
	"github.com/ppiankov/abhaya/internal/config"
	"github.com/ppiankov/abhaya/internal/fetch"
	"github.com/ppiankov/abhaya/internal/logging"
	"github.com/ppiankov/abhaya/internal/notify"
	"github.com/ppiankov/abhaya/internal/preload"
	"github.com/ppiankov/abhaya/internal/render"
	"github.com/ppiankov/abhaya/internal/store"
	"github.com/ppiankov/abhaya/internal/ticker"
)

// app holds what every long-running command builds from config.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	fetcher fetch.Fetcher
	preload *preload.Handle
	store   *store.Store
}

type appOptions struct {
	preload bool // start the bootstrap fetch
	store   bool // open the history database
}

// newApp loads config and wires the shared components. The preload fetch
// starts here, before any ticker exists.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	f, err := newFetcher(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, fetcher: f}

	if opts.preload && cfg.Ticker.PreloadEnabled() {
		a.preload = preload.Start(ctx, f)
	}

	if opts.store && !cfg.Storage.Disabled {
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = db.WithSource(f.Name())
		if n, err := db.PruneOld(ctx, cfg.Storage.RetainDays); err != nil {
			logger.Warn("prune history", zap.Error(err))
		} else if n > 0 {
			logger.Info("pruned history", zap.Int64("rows", n))
		}
	}

	return a, nil
}

func newFetcher(cfg *config.Config) (fetch.Fetcher, error) {
	switch cfg.Ticker.Source {
	case "rss":
		return fetch.NewFeed(cfg.Ticker.FeedURL, cfg.Ticker.Limit, cfg.Ticker.Timeout.Duration)
	default:
		return fetch.NewREST(cfg.Backend.DigestURL(), cfg.Ticker.Limit, cfg.Ticker.Timeout.Duration)
	}
}

// newTicker builds a ticker drawing on surface.
func (a *app) newTicker(surface render.Surface, n notify.Notifier, mutate func(*ticker.Options)) (*ticker.Ticker, error) {
	opts := ticker.Options{
		Fetcher:  a.fetcher,
		Renderer: render.New(surface),
		Cache:    cache.New(a.cfg.Ticker.CacheTTL.Duration),
		Preload:  a.preload,
		Notifier: n,
		Logger:   a.logger,
		Interval: a.cfg.Ticker.RefreshEvery.Duration,
		BaseURL:  a.cfg.Backend.URL,
	}
	if a.store != nil {
		opts.Recorder = a.store
	}
	if mutate != nil {
		mutate(&opts)
	}
	return ticker.New(opts)
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
