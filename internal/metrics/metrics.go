// Package metrics provides lookup metrics collection and reporting.
package metrics

import (
	"sync"
	"time"

	"github.com/jonesrussell/regcheck/internal/domain"
)

const percentMultiplier = 100

// Metrics holds counters for the lookup pipeline. All access is
// mutex-guarded; one instance is shared by the orchestrator and the stats
// endpoint.
type Metrics struct {
	// TotalLookups is the number of lookups attempted, any outcome.
	TotalLookups int64
	// CacheHits is the number of lookups answered from a fresh cached record.
	CacheHits int64
	// FastSuccesses is the number of lookups answered by fast extraction.
	FastSuccesses int64
	// BrowserSuccesses is the number answered by browser automation.
	BrowserSuccesses int64
	// AutomationAttempts counts individual browser attempts, including
	// retries inside one lookup.
	AutomationAttempts int64
	// FailuresByType counts terminal failures keyed by wire error type.
	FailuresByType map[domain.ErrorType]int64
	// TotalDuration accumulates lookup wall time for the average.
	TotalDuration time.Duration
	// LastLookupTime is when the most recent lookup finished.
	LastLookupTime time.Time
	// StartTime is when metrics collection began.
	StartTime time.Time

	mu sync.Mutex
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		FailuresByType: make(map[domain.ErrorType]int64),
		StartTime:      time.Now(),
	}
}

// RecordSuccess records a lookup answered by cache or an extraction tier.
func (m *Metrics) RecordSuccess(source string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalLookups++
	switch source {
	case domain.SourceCache:
		m.CacheHits++
	case domain.SourceLiveScraping:
		m.FastSuccesses++
	case domain.SourceVNCAutomation:
		m.BrowserSuccesses++
	}
	m.recordDurationLocked(duration)
}

// RecordFailure records a terminal lookup failure.
func (m *Metrics) RecordFailure(errorType domain.ErrorType, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalLookups++
	m.FailuresByType[errorType]++
	m.recordDurationLocked(duration)
}

// RecordAutomationAttempt counts one browser automation attempt.
func (m *Metrics) RecordAutomationAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AutomationAttempts++
}

// recordDurationLocked folds one lookup's duration into the totals.
// Callers must hold mu.
func (m *Metrics) recordDurationLocked(duration time.Duration) {
	m.TotalDuration += duration
	m.LastLookupTime = time.Now()
}

// Reset returns all counters to their initial values.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalLookups = 0
	m.CacheHits = 0
	m.FastSuccesses = 0
	m.BrowserSuccesses = 0
	m.AutomationAttempts = 0
	m.FailuresByType = make(map[domain.ErrorType]int64)
	m.TotalDuration = 0
	m.LastLookupTime = time.Time{}
}

// Snapshot returns a copy of the current counters for reporting.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	failures := make(map[domain.ErrorType]int64, len(m.FailuresByType))
	var totalFailures int64
	for errorType, count := range m.FailuresByType {
		failures[errorType] = count
		totalFailures += count
	}

	snap := Snapshot{
		TotalLookups:       m.TotalLookups,
		CacheHits:          m.CacheHits,
		FastSuccesses:      m.FastSuccesses,
		BrowserSuccesses:   m.BrowserSuccesses,
		AutomationAttempts: m.AutomationAttempts,
		TotalFailures:      totalFailures,
		FailuresByType:     failures,
		LastLookupTime:     m.LastLookupTime,
		StartTime:          m.StartTime,
	}

	successes := m.TotalLookups - totalFailures
	if m.TotalLookups > 0 {
		snap.SuccessRate = float64(successes) / float64(m.TotalLookups) * percentMultiplier
		snap.AverageDurationMs = m.TotalDuration.Milliseconds() / m.TotalLookups
	}

	return snap
}

// Snapshot is a point-in-time copy of the lookup counters.
type Snapshot struct {
	TotalLookups       int64                      `json:"total_lookups"`
	CacheHits          int64                      `json:"cache_hits"`
	FastSuccesses      int64                      `json:"fast_successes"`
	BrowserSuccesses   int64                      `json:"browser_successes"`
	AutomationAttempts int64                      `json:"automation_attempts"`
	TotalFailures      int64                      `json:"total_failures"`
	FailuresByType     map[domain.ErrorType]int64 `json:"failures_by_type"`
	SuccessRate        float64                    `json:"success_rate"`
	AverageDurationMs  int64                      `json:"average_duration_ms"`
	LastLookupTime     time.Time                  `json:"last_lookup_time"`
	StartTime          time.Time                  `json:"start_time"`
}
