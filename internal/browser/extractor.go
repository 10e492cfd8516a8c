// Package browser implements the final lookup tier: a headless browser
// drives the source site's search form when direct HTTP fetching is blocked.
// Every attempt runs in a fresh browser process; sessions are never reused
// across attempts.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/metrics"
	"github.com/jonesrussell/regcheck/internal/scrape"
)

// Config configures the browser extractor.
type Config struct {
	BaseURL            string
	UserAgent          string
	Headless           bool
	PageLoadTimeout    time.Duration
	ElementWaitTimeout time.Duration
	PollInterval       time.Duration
}

// sessionFunc runs one complete browser attempt and returns the rendered
// page text. Swappable in tests.
type sessionFunc func(ctx context.Context, registration string) (string, error)

// Extractor performs tier-three lookups by driving the site's search form in
// a headless browser. Unlike the fast tier it retries internally: each
// attempt gets its own browser, and the final error reflects the dominant
// failure kind across attempts.
type Extractor struct {
	cfg        Config
	log        logger.Interface
	metrics    *metrics.Metrics
	runSession sessionFunc
}

// NewExtractor creates a browser extractor. The metrics collector may be nil.
func NewExtractor(cfg Config, log logger.Interface, met *metrics.Metrics) *Extractor {
	e := &Extractor{cfg: cfg, log: log, metrics: met}
	e.runSession = e.runChromeSession
	return e
}

// Extract drives the search form for a normalized registration, retrying up
// to maxAttempts times. A not-found page stops retrying immediately: the
// site answered, and the answer is authoritative. When every attempt fails
// the returned error carries the dominant failure kind, so repeated
// challenge pages surface as ErrBlocked and repeated stalls as ErrTimeout.
func (e *Extractor) Extract(ctx context.Context, registration string, maxAttempts int) (*domain.VehicleRecord, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()

	var blocked, timedOut int
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			timedOut++
			lastErr = fmt.Errorf("%w: lookup budget exhausted: %s", domain.ErrTimeout, ctx.Err().Error())
			break
		}

		e.recordAttempt()

		record, err := e.attempt(ctx, registration)
		if err == nil {
			e.log.Info("browser extraction completed",
				"registration", registration,
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return record, nil
		}

		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}

		lastErr = err
		if errors.Is(err, domain.ErrTimeout) {
			timedOut++
		} else {
			blocked++
		}

		e.log.Warn("browser attempt failed",
			"registration", registration,
			"attempt", attempt,
			"error", err.Error(),
		)
	}

	return nil, finalError(blocked, timedOut, lastErr)
}

// attempt runs one session and interprets its text. Session mechanics
// failures come back classified; a rendered page is inspected for the
// not-found and challenge shapes before parsing.
func (e *Extractor) attempt(ctx context.Context, registration string) (*domain.VehicleRecord, error) {
	text, err := e.runSession(ctx, registration)
	if err != nil {
		return nil, classifySessionError(err)
	}

	if scrape.ContainsNotFoundMarker(text) {
		return nil, fmt.Errorf("no vehicle found for %s: %w", registration, domain.ErrVehicleNotFound)
	}

	if scrape.ContainsBlockedMarker(text) {
		return nil, fmt.Errorf("%w: challenge page served", domain.ErrBlocked)
	}

	record := scrape.ParseVehicleText(registration, text, time.Now())
	if !scrape.HasEssentialData(record) {
		return nil, fmt.Errorf("%w: page rendered without vehicle data", domain.ErrBlocked)
	}

	record.Source = domain.SourceVNCAutomation
	record.ScrapedAt = time.Now()

	return record, nil
}

func (e *Extractor) recordAttempt() {
	if e.metrics != nil {
		e.metrics.RecordAutomationAttempt()
	}
}

// classifySessionError maps session mechanics failures onto the lookup
// taxonomy. Stalls and deadline hits are timeouts; anything else, a missing
// form or a browser that would not start, is treated as the site defending
// itself.
func classifySessionError(err error) error {
	switch {
	case errors.Is(err, errPageNotReady),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s", domain.ErrTimeout, err.Error())
	default:
		return fmt.Errorf("%w: %s", domain.ErrBlocked, err.Error())
	}
}

// finalError reduces a failed attempt series to one error. The dominant
// failure kind wins; on a tie the most recent failure decides.
func finalError(blocked, timedOut int, lastErr error) error {
	if lastErr == nil {
		return domain.ErrServiceUnavailable
	}

	kind := domain.ErrBlocked
	switch {
	case timedOut > blocked:
		kind = domain.ErrTimeout
	case blocked > timedOut:
		kind = domain.ErrBlocked
	case errors.Is(lastErr, domain.ErrTimeout):
		kind = domain.ErrTimeout
	}

	if errors.Is(lastErr, kind) {
		return lastErr
	}
	return fmt.Errorf("%w: %s", kind, lastErr.Error())
}
