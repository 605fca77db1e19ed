package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/config"
	"github.com/five82/readshelf/internal/library"
	"github.com/five82/readshelf/internal/prefs"
	"github.com/five82/readshelf/internal/recommend"
	"github.com/five82/readshelf/internal/ui"
)

// Options configure the readshelf TUI.
type Options struct {
	PrefsPath string        // empty uses default ~/.config/readshelf/prefs.toml
	PollEvery time.Duration // zero uses default
}

// Service is everything readshelf asks of the reading service.
type Service interface {
	library.Fetcher
	library.Writer
	recommend.Fetcher
}

// Components are the long-lived pieces shared by every command.
type Components struct {
	Service Service
	Store   *library.Store
	Recs    *recommend.List
	Mutator *library.Mutator
	Logger  *zap.Logger
}

// Wire builds the service client and the client-side library state.
func Wire(cfg config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := api.NewClient(cfg.APIURL, api.Session{Token: cfg.Token}, api.Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	return newComponents(client, cfg.OptimisticAdd, logger), nil
}

func newComponents(svc Service, optimisticAdd bool, logger *zap.Logger) *Components {
	store := library.NewStore(logger.Named("store"))
	recs := recommend.NewList(logger.Named("recommend"))
	mutator := library.NewMutator(store, svc, library.MutatorOptions{
		OptimisticAdd: optimisticAdd,
		Consumed:      recs.Consume,
		Logger:        logger.Named("mutator"),
	})
	return &Components{
		Service: svc,
		Store:   store,
		Recs:    recs,
		Mutator: mutator,
		Logger:  logger,
	}
}

// Run boots the readshelf TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) error {
	comps, err := Wire(cfg, logger)
	if err != nil {
		return err
	}
	logger = comps.Logger

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	// Populate the store before the UI starts; a failure is shown by the UI.
	if err := refresh(ctx, comps); err != nil {
		logger.Warn("initial library load failed", zap.Error(err))
	} else {
		logger.Info("library ready",
			zap.Int("records", comps.Store.Len()),
			zap.Int("recommendations", comps.Recs.Len()))
	}

	g, gctx := errgroup.WithContext(ctx)
	uiCtx, stop := context.WithCancel(gctx)
	defer stop()

	refresher := NewRefresher(comps, interval)
	g.Go(func() error {
		refresher.Run(uiCtx)
		return nil
	})
	g.Go(func() error {
		defer stop()
		return ui.Run(ui.Options{
			Context:   uiCtx,
			Service:   comps.Service,
			Store:     comps.Store,
			Mutator:   comps.Mutator,
			Recs:      comps.Recs,
			LogPath:   cfg.LogPath(),
			ThemeName: userPrefs.Theme,
			Shelf:     userPrefs.Shelf(),
			PrefsPath: opts.PrefsPath,
			Logger:    logger,
		})
	})
	return g.Wait()
}
