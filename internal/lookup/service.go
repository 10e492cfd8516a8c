// Package lookup orchestrates vehicle lookups across the three tiers:
// cached record, fast HTTP extraction, and browser automation. Escalation
// is one-directional and non-looping; only Blocked and Timeout failures
// escalate, and a not-found answer from any tier is final.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/regcheck/internal/cache"
	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/metrics"
	"github.com/jonesrussell/regcheck/internal/registration"
)

// persistTimeout bounds the cache and history writes that follow a lookup.
// These writes run on their own deadline, independent of the lookup budget.
const persistTimeout = 5 * time.Second

// CacheStore is the persistence layer consulted before and written after
// extractions.
type CacheStore interface {
	Get(ctx context.Context, registration string) (*domain.VehicleRecord, error)
	Put(ctx context.Context, record *domain.VehicleRecord) error
	IsFresh(record *domain.VehicleRecord) bool
	TTL() time.Duration
}

// FastExtractor is the tier-two single-request scraper.
type FastExtractor interface {
	Extract(ctx context.Context, registration string) (*domain.VehicleRecord, error)
}

// BrowserExtractor is the tier-three automation scraper.
type BrowserExtractor interface {
	Extract(ctx context.Context, registration string, maxAttempts int) (*domain.VehicleRecord, error)
}

// SessionPool bounds concurrent browser sessions process-wide.
type SessionPool interface {
	Acquire(ctx context.Context) error
	Release()
}

// Config configures lookup policy.
type Config struct {
	// AutomationEnabled turns the browser fallback tier on or off
	AutomationEnabled bool
	// AutomationMaxAttempts bounds internal retries within one automation run
	AutomationMaxAttempts int
	// OverallTimeout is the whole-lookup ceiling across all tiers
	OverallTimeout time.Duration
}

// Request carries one lookup's input plus the caller telemetry recorded
// into the history log.
type Request struct {
	Registration string
	IPAddress    string
	UserAgent    string
}

// Service resolves registrations through the tier chain. Stores and
// extractors are constructed by the command entry points and passed in.
type Service struct {
	cfg     Config
	cache   CacheStore
	fast    FastExtractor
	browser BrowserExtractor
	pool    SessionPool
	history database.SearchHistoryRepositoryInterface
	metrics *metrics.Metrics
	log     logger.Interface
}

// NewService creates a lookup service.
func NewService(
	cfg Config,
	cacheStore CacheStore,
	fast FastExtractor,
	browser BrowserExtractor,
	pool SessionPool,
	history database.SearchHistoryRepositoryInterface,
	met *metrics.Metrics,
	log logger.Interface,
) *Service {
	if cfg.AutomationMaxAttempts < 1 {
		cfg.AutomationMaxAttempts = 1
	}

	return &Service{
		cfg:     cfg,
		cache:   cacheStore,
		fast:    fast,
		browser: browser,
		pool:    pool,
		history: history,
		metrics: met,
		log:     log,
	}
}

// Lookup resolves a registration and records the outcome. Exactly one
// history entry is written per call, whatever the outcome; history and
// cache write failures are logged, never surfaced. Failures come back as a
// *domain.LookupError carrying the wire-level classification.
func (s *Service) Lookup(ctx context.Context, req Request) (*domain.VehicleRecord, error) {
	start := time.Now()

	normalized, err := registration.NormalizeAndValidate(req.Registration)
	if err != nil {
		key := registration.Normalize(req.Registration)
		s.finish(req, key, start, nil, err)
		return nil, domain.NewLookupError(key, err)
	}

	if s.cfg.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OverallTimeout)
		defer cancel()
	}

	record, err := s.resolve(ctx, normalized)
	s.finish(req, normalized, start, record, err)

	if err != nil {
		return nil, domain.NewLookupError(normalized, err)
	}
	return record, nil
}

// resolve walks the tier chain for a normalized registration.
func (s *Service) resolve(ctx context.Context, normalized string) (*domain.VehicleRecord, error) {
	cached, err := s.cache.Get(ctx, normalized)
	if err == nil && s.cache.IsFresh(cached) {
		s.log.Debug("cache hit",
			"registration", normalized,
			"age", cached.Age(time.Now()).String(),
		)
		cached.Source = domain.SourceCache
		return cached, nil
	}
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		s.log.Warn("cache read failed", "registration", normalized, "error", err.Error())
	}

	record, fastErr := s.fast.Extract(ctx, normalized)
	if fastErr == nil {
		s.store(record)
		return record, nil
	}

	if !shouldEscalate(fastErr) {
		return nil, fastErr
	}

	if !s.cfg.AutomationEnabled {
		return nil, surfaceWithoutAutomation(fastErr)
	}

	s.log.Info("escalating to browser automation",
		"registration", normalized,
		"reason", fastErr.Error(),
	)

	return s.automate(ctx, normalized)
}

// automate runs the tier-three extraction behind the bounded session pool.
func (s *Service) automate(ctx context.Context, normalized string) (*domain.VehicleRecord, error) {
	if err := s.pool.Acquire(ctx); err != nil {
		return nil, classifyAcquireError(err)
	}
	defer s.pool.Release()

	record, err := s.browser.Extract(ctx, normalized, s.cfg.AutomationMaxAttempts)
	if err != nil {
		return nil, surfaceAutomationError(err)
	}

	s.store(record)
	return record, nil
}

// store caches a freshly extracted record. A write failure is logged; the
// lookup still returns the record.
func (s *Service) store(record *domain.VehicleRecord) {
	writeCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.cache.Put(writeCtx, record); err != nil {
		s.log.Error("failed to cache record",
			"registration", record.Registration,
			"error", err.Error(),
		)
	}
}

// finish records the lookup outcome: one metrics sample and exactly one
// history entry.
func (s *Service) finish(
	req Request,
	normalized string,
	start time.Time,
	record *domain.VehicleRecord,
	lookupErr error,
) {
	duration := time.Since(start)

	entry := &domain.SearchHistoryEntry{
		Registration: normalized,
		SearchedAt:   start,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Success:      lookupErr == nil,
		DurationMs:   duration.Milliseconds(),
	}

	if lookupErr != nil {
		msg := lookupErr.Error()
		entry.ErrorMessage = &msg
		s.metrics.RecordFailure(domain.ClassifyError(lookupErr), duration)
	} else {
		entry.Source = record.Source
		s.metrics.RecordSuccess(record.Source, duration)
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.history.Insert(writeCtx, entry); err != nil {
		s.log.Error("failed to record search history",
			"registration", normalized,
			"error", err.Error(),
		)
	}
}

// shouldEscalate reports whether a fast-tier failure hands off to browser
// automation. Not-found and invalid-format answers are final; context
// cancellation passes through untouched.
func shouldEscalate(err error) bool {
	return errors.Is(err, domain.ErrBlocked) || errors.Is(err, domain.ErrTimeout)
}

// surfaceWithoutAutomation maps a fast-tier failure directly onto the
// user-facing taxonomy when the automation tier is disabled.
func surfaceWithoutAutomation(err error) error {
	if errors.Is(err, domain.ErrBlocked) {
		return fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err.Error())
	}
	return err
}

// surfaceAutomationError maps a final-tier failure onto the user-facing
// taxonomy. Not-found and timeout pass through; everything else, notably a
// blocked-dominated attempt series, surfaces as service unavailability.
func surfaceAutomationError(err error) error {
	if errors.Is(err, domain.ErrVehicleNotFound) || errors.Is(err, domain.ErrTimeout) {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err.Error())
}

// classifyAcquireError maps a pool acquisition failure. A context hit while
// queued is a timeout; a stopped or draining pool is unavailability.
func classifyAcquireError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: waiting for automation slot: %s", domain.ErrTimeout, err.Error())
	}
	return fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err.Error())
}
