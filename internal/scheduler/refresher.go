// Package scheduler provides the background refresh sweep that re-scrapes
// stale cached records through the lookup pipeline.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/regcheck/internal/config"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/lookup"
)

// refreshUserAgent marks scheduler-originated lookups in the history log.
const refreshUserAgent = "regcheck-scheduler"

// LookupService runs a full registration lookup. Refreshes go through the
// same pipeline as interactive lookups, so they respect the automation pool
// bound and write history entries like any other lookup.
type LookupService interface {
	Lookup(ctx context.Context, req lookup.Request) (*domain.VehicleRecord, error)
}

// StaleLister lists cached records older than a cutoff, oldest first.
type StaleLister interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.VehicleRecord, error)
}

// Refresher runs a cron-driven sweep over stale cached records. Each run
// refreshes at most BatchSize records; records that stay stale are picked
// up by a later run.
type Refresher struct {
	cfg     *config.SchedulerConfig
	ttl     time.Duration
	lister  StaleLister
	service LookupService
	log     logger.Interface
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRefresher creates a refresh scheduler. ttl is the cache freshness
// window; records older than it qualify for refresh.
func NewRefresher(
	cfg *config.SchedulerConfig,
	ttl time.Duration,
	lister StaleLister,
	service LookupService,
	log logger.Interface,
) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())
	// Standard 5-field cron parser (minute hour day month weekday)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	return &Refresher{
		cfg:     cfg,
		ttl:     ttl,
		lister:  lister,
		service: service,
		log:     log,
		cron:    c,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the sweep and starts the cron scheduler. When the
// scheduler is disabled Start is a no-op.
func (r *Refresher) Start() error {
	if !r.cfg.Enabled {
		r.log.Info("Refresh scheduler disabled")
		return nil
	}

	if _, err := r.cron.AddFunc(r.cfg.Schedule, func() {
		r.runSweep(r.ctx)
	}); err != nil {
		return fmt.Errorf("failed to parse refresh schedule %q: %w", r.cfg.Schedule, err)
	}

	r.cron.Start()
	r.log.Info("Refresh scheduler started",
		"schedule", r.cfg.Schedule,
		"batch_size", r.cfg.BatchSize,
	)

	return nil
}

// Stop cancels any in-flight sweep and waits for the cron scheduler to
// finish running entries.
func (r *Refresher) Stop() {
	r.cancel()
	cronCtx := r.cron.Stop()
	<-cronCtx.Done()
	r.log.Info("Refresh scheduler stopped")
}

// runSweep refreshes one bounded batch of the oldest stale records. A
// service-unavailable result aborts the rest of the batch: the source is
// refusing automated traffic and further attempts this run would only
// burn automation slots.
func (r *Refresher) runSweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.ttl)

	stale, err := r.lister.ListStale(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		r.log.Error("Failed to list stale records", "error", err)
		return
	}
	if len(stale) == 0 {
		r.log.Debug("No stale records to refresh")
		return
	}

	r.log.Info("Refreshing stale records", "count", len(stale))

	refreshed := 0
	for _, record := range stale {
		if ctx.Err() != nil {
			r.log.Info("Refresh sweep cancelled", "refreshed", refreshed)
			return
		}

		_, lookupErr := r.service.Lookup(ctx, lookup.Request{
			Registration: record.Registration,
			UserAgent:    refreshUserAgent,
		})
		if lookupErr != nil {
			r.log.Warn("Stale record refresh failed",
				"registration", record.Registration,
				"error", lookupErr,
			)
			if errors.Is(lookupErr, domain.ErrServiceUnavailable) {
				r.log.Warn("Aborting refresh sweep, source unavailable",
					"refreshed", refreshed,
					"remaining", len(stale)-refreshed,
				)
				return
			}
			continue
		}
		refreshed++
	}

	r.log.Info("Refresh sweep complete",
		"refreshed", refreshed,
		"failed", len(stale)-refreshed,
	)
}
