package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/regcheck/internal/browser"
	"github.com/jonesrussell/regcheck/internal/cache"
	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/lookup"
	"github.com/jonesrussell/regcheck/internal/metrics"
	"github.com/jonesrussell/regcheck/internal/scrape"
	"github.com/jonesrussell/regcheck/internal/worker"
)

// Services bundles the lookup pipeline built from configuration. The pool
// is constructed but not started; callers own its lifecycle.
type Services struct {
	Vehicles *database.VehicleRepository
	History  *database.SearchHistoryRepository
	Cache    *cache.Store
	Pool     *worker.Pool
	Metrics  *metrics.Metrics
	Lookup   *lookup.Service
}

// BuildServices wires repositories, the three lookup tiers, and the
// orchestrator from configuration. This consolidates the construction
// shared by the server and the one-shot commands.
func BuildServices(deps CommandDeps, db *sqlx.DB) (*Services, error) {
	cfg := deps.Config

	vehicleRepo := database.NewVehicleRepository(db)
	historyRepo := database.NewSearchHistoryRepository(db)
	cacheStore := cache.NewStore(vehicleRepo, cfg.Cache.TTL)
	met := metrics.NewMetrics()

	fast := scrape.NewExtractor(scrape.Config{
		BaseURL:     cfg.Scraper.BaseURL,
		UserAgent:   cfg.Scraper.UserAgent,
		Timeout:     cfg.Scraper.FastTimeout,
		RateLimit:   cfg.Scraper.RateLimit,
		RateBurst:   cfg.Scraper.RateBurst,
		MaxBodySize: cfg.Scraper.MaxBodySize,
	}, deps.Logger)

	browserExtractor := browser.NewExtractor(browser.Config{
		BaseURL:            cfg.Scraper.BaseURL,
		UserAgent:          cfg.Scraper.UserAgent,
		Headless:           cfg.Automation.Headless,
		PageLoadTimeout:    cfg.Automation.PageLoadTimeout,
		ElementWaitTimeout: cfg.Automation.ElementWaitTimeout,
		PollInterval:       cfg.Automation.PollInterval,
	}, deps.Logger, met)

	pool, err := worker.NewPool(worker.Config{
		PoolSize:     cfg.Automation.MaxConcurrent,
		DrainTimeout: worker.DefaultDrainTimeout,
	}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("create automation pool: %w", err)
	}

	lookupService := lookup.NewService(lookup.Config{
		AutomationEnabled:     cfg.Automation.Enabled,
		AutomationMaxAttempts: cfg.Automation.MaxAttempts,
		OverallTimeout:        cfg.Automation.OverallTimeout,
	}, cacheStore, fast, browserExtractor, pool, historyRepo, met, deps.Logger)

	return &Services{
		Vehicles: vehicleRepo,
		History:  historyRepo,
		Cache:    cacheStore,
		Pool:     pool,
		Metrics:  met,
		Lookup:   lookupService,
	}, nil
}
