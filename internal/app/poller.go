package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
	refreshTimeout      = 20 * time.Second
)

// Refresher reloads the library in the background. Reloads wait while any
// mutation is in flight so a fresh fetch never overwrites optimistic state.
type Refresher struct {
	comps    *Components
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher returns a refresher that reloads every interval.
func NewRefresher(comps *Components, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := comps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{comps: comps, interval: interval, logger: logger.Named("refresher")}
}

// Run blocks until ctx is cancelled. Consecutive failures back off
// exponentially up to maxBackoff.
func (r *Refresher) Run(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := r.interval
		switch {
		case r.comps.Mutator.InFlight() > 0:
			r.logger.Debug("reload deferred, mutations in flight")
		default:
			if err := refresh(ctx, r.comps); err != nil {
				failures := r.comps.Store.Snapshot().ConsecutiveFailures
				next = calculateBackoff(failures, r.interval)
				r.logger.Warn("library reload failed",
					zap.Error(err),
					zap.Int("failures", failures),
					zap.Duration("retry_in", next))
			} else {
				r.logger.Debug("library reloaded",
					zap.Int("records", r.comps.Store.Len()),
					zap.Int("recommendations", r.comps.Recs.Len()))
			}
		}
		timer.Reset(next)
	}
}

// refresh reloads the library and then the recommendations. A failed
// recommendation fetch is logged and keeps the previous list.
func refresh(ctx context.Context, comps *Components) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if _, err := comps.Store.Load(ctx, comps.Service); err != nil {
		return err
	}
	if _, err := comps.Recs.Load(ctx, comps.Service, comps.Store.Identities()); err != nil {
		comps.Logger.Warn("recommendations unavailable", zap.Error(err))
	}
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff. An interval already above the cap is never shortened.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if base >= maxBackoff {
		return base
	}
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
