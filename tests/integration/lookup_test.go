// Package integration_test verifies the lookup pipeline end to end: a real
// Postgres cache behind a mock source site, with the browser tier disabled.
package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/regcheck/internal/browser"
	"github.com/jonesrussell/regcheck/internal/cache"
	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/lookup"
	"github.com/jonesrussell/regcheck/internal/metrics"
	"github.com/jonesrussell/regcheck/internal/scrape"
	"github.com/jonesrussell/regcheck/internal/worker"
	"github.com/jonesrussell/regcheck/tests/helpers"
)

const testCacheTTL = 24 * time.Hour

// pipeline bundles the services under test.
type pipeline struct {
	vehicles *database.VehicleRepository
	history  *database.SearchHistoryRepository
	metrics  *metrics.Metrics
	service  *lookup.Service
}

// newPipeline wires a lookup service against the given site base URL. The
// automation tier is constructed but disabled, so nothing launches a
// browser in CI.
func newPipeline(t *testing.T, db *sqlx.DB, baseURL string, pool *worker.Pool, met *metrics.Metrics) *pipeline {
	t.Helper()

	log := logger.NewNoOp()
	vehicleRepo := database.NewVehicleRepository(db)
	historyRepo := database.NewSearchHistoryRepository(db)
	cacheStore := cache.NewStore(vehicleRepo, testCacheTTL)

	fast := scrape.NewExtractor(scrape.Config{
		BaseURL:     baseURL,
		UserAgent:   "regcheck-integration",
		Timeout:     5 * time.Second,
		RateLimit:   time.Millisecond,
		RateBurst:   10,
		MaxBodySize: 1 << 20,
	}, log)

	browserExtractor := browser.NewExtractor(browser.Config{
		BaseURL:            baseURL,
		UserAgent:          "regcheck-integration",
		Headless:           true,
		PageLoadTimeout:    time.Second,
		ElementWaitTimeout: time.Second,
		PollInterval:       50 * time.Millisecond,
	}, log, met)

	service := lookup.NewService(lookup.Config{
		AutomationEnabled:     false,
		AutomationMaxAttempts: 1,
		OverallTimeout:        30 * time.Second,
	}, cacheStore, fast, browserExtractor, pool, historyRepo, met, log)

	return &pipeline{
		vehicles: vehicleRepo,
		history:  historyRepo,
		metrics:  met,
		service:  service,
	}
}

func TestIntegration_LookupPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pg, err := helpers.StartPostgres(ctx)
	require.NoError(t, err, "failed to start Postgres container")
	defer func() {
		_ = pg.Stop(ctx)
	}()

	db, err := database.NewPostgresConnection(pg.Config())
	require.NoError(t, err, "failed to connect to test database")
	defer db.Close()

	require.NoError(t, database.RunMigrations(db), "failed to run migrations")

	site := helpers.NewMockVehicleSite(helpers.TestVehicle("WV08XVZ"))
	defer site.Close()

	pool, err := worker.NewPool(worker.Config{PoolSize: 1, DrainTimeout: time.Second}, logger.NewNoOp())
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer func() {
		_ = pool.Stop(ctx)
	}()

	met := metrics.NewMetrics()
	pipe := newPipeline(t, db, site.BaseURL(), pool, met)
	lookups := 0

	t.Run("live scrape then cache hit", func(t *testing.T) {
		// Raw input exercises normalization before the site is consulted.
		record, lookupErr := pipe.service.Lookup(ctx, lookup.Request{
			Registration: "wv08 xvz",
			IPAddress:    "203.0.113.7",
			UserAgent:    "integration-test",
		})
		lookups++
		require.NoError(t, lookupErr)
		require.Equal(t, "WV08XVZ", record.Registration)
		require.Equal(t, domain.SourceLiveScraping, record.Source)
		require.Equal(t, "VAUXHALL", record.Make)
		require.Equal(t, "Silver", record.Color)
		require.NotNil(t, record.TaxDaysLeft)
		require.Equal(t, 120, *record.TaxDaysLeft)
		require.Equal(t, "89,000 miles", record.MileageInfo["last_mot_mileage"])
		require.Equal(t, 1, site.Hits("WV08XVZ"))

		helpers.AssertVehicleCached(t, ctx, pipe.vehicles, "WV08XVZ", domain.SourceLiveScraping)

		record, lookupErr = pipe.service.Lookup(ctx, lookup.Request{Registration: "WV08XVZ"})
		lookups++
		require.NoError(t, lookupErr)
		require.Equal(t, domain.SourceCache, record.Source)
		require.Equal(t, 1, site.Hits("WV08XVZ"), "cache hit must not touch the site")
	})

	t.Run("unknown registration is a final answer", func(t *testing.T) {
		_, lookupErr := pipe.service.Lookup(ctx, lookup.Request{Registration: "ZZ99ZZZ"})
		lookups++
		require.ErrorIs(t, lookupErr, domain.ErrVehicleNotFound)
		helpers.AssertVehicleNotCached(t, ctx, pipe.vehicles, "ZZ99ZZZ")
	})

	t.Run("invalid format never reaches the site", func(t *testing.T) {
		_, lookupErr := pipe.service.Lookup(ctx, lookup.Request{Registration: "!!"})
		lookups++
		require.ErrorIs(t, lookupErr, domain.ErrInvalidFormat)
		require.Equal(t, 0, site.Hits("!!"))
	})

	t.Run("blocked source surfaces unavailability", func(t *testing.T) {
		blocked := helpers.MockBlockedSite()
		defer blocked.Close()

		blockedPipe := newPipeline(t, db, blocked.URL+"/", pool, met)
		_, lookupErr := blockedPipe.service.Lookup(ctx, lookup.Request{Registration: "AB12CDE"})
		lookups++
		require.ErrorIs(t, lookupErr, domain.ErrServiceUnavailable)
	})

	t.Run("every lookup leaves one history entry", func(t *testing.T) {
		helpers.RequireHistoryCount(t, ctx, pipe.history, lookups)

		entries, listErr := pipe.history.ListRecent(ctx, 10)
		require.NoError(t, listErr)
		require.Len(t, entries, lookups)

		successes := 0
		for _, entry := range entries {
			if entry.Success {
				successes++
				require.NotEmpty(t, entry.Source)
			} else {
				require.NotNil(t, entry.ErrorMessage)
			}
		}
		require.Equal(t, 2, successes)
	})

	t.Run("metrics track the run", func(t *testing.T) {
		snap := met.Snapshot()
		require.Equal(t, int64(lookups), snap.TotalLookups)
		require.Equal(t, int64(1), snap.CacheHits)
		require.Equal(t, int64(1), snap.FastSuccesses)
		require.Equal(t, int64(3), snap.TotalFailures)
		require.Equal(t, int64(1), snap.FailuresByType[domain.ErrorTypeVehicleNotFound])
		require.Equal(t, int64(1), snap.FailuresByType[domain.ErrorTypeInvalidFormat])
		require.Equal(t, int64(1), snap.FailuresByType[domain.ErrorTypeServiceError])
	})
}
