// Package worker provides a bounded slot pool for browser automation
// sessions. Every automation extraction must hold a slot for its whole
// lifetime, so sessions can never proliferate unbounded under load.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/regcheck/internal/logger"
)

const (
	// DefaultPoolSize is the default number of concurrent automation sessions.
	DefaultPoolSize = 2

	// DefaultDrainTimeout is the default timeout for graceful shutdown.
	DefaultDrainTimeout = 30 * time.Second

	// MinPoolSize is the minimum allowed pool size.
	MinPoolSize = 1

	// MaxPoolSize is the maximum allowed pool size. Each slot is a full
	// browser process; more than this exhausts a reasonable host.
	MaxPoolSize = 16
)

// PoolState represents the current state of the pool.
type PoolState int32

const (
	// PoolStateStopped means the pool is not accepting acquisitions.
	PoolStateStopped PoolState = iota

	// PoolStateRunning means the pool is handing out slots.
	PoolStateRunning

	// PoolStateDraining means the pool is shutting down gracefully.
	PoolStateDraining
)

// String returns the string representation of a pool state.
func (s PoolState) String() string {
	switch s {
	case PoolStateStopped:
		return "stopped"
	case PoolStateRunning:
		return "running"
	case PoolStateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Pool errors.
var (
	// ErrPoolNotRunning is returned by Acquire when the pool is stopped or draining.
	ErrPoolNotRunning = errors.New("automation pool is not running")
	// ErrPoolDraining is returned when a waiter is released by shutdown.
	ErrPoolDraining = errors.New("automation pool is draining")
)

// Config holds configuration for the automation pool.
type Config struct {
	// PoolSize is the number of concurrent automation sessions allowed.
	PoolSize int

	// DrainTimeout is the maximum time to wait for active sessions to
	// finish during shutdown.
	DrainTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:     DefaultPoolSize,
		DrainTimeout: DefaultDrainTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PoolSize < MinPoolSize {
		return errors.New("pool size must be at least 1")
	}
	if c.PoolSize > MaxPoolSize {
		return fmt.Errorf("pool size cannot exceed %d", MaxPoolSize)
	}
	if c.DrainTimeout <= 0 {
		return errors.New("drain timeout must be positive")
	}
	return nil
}

// Pool bounds concurrent browser automation sessions with a semaphore.
// Acquire blocks until a slot frees or the caller's context expires, which
// keeps queue pressure on the caller's own deadline instead of an internal
// one.
type Pool struct {
	config Config
	logger logger.Interface
	state  atomic.Int32
	sem    chan struct{}
	wg     sync.WaitGroup
	stopCh chan struct{}

	// Stats
	totalAcquired   atomic.Int64
	acquireTimeouts atomic.Int64
	active          atomic.Int32
	peakActive      atomic.Int32
}

// NewPool creates a new automation session pool.
func NewPool(cfg Config, log logger.Interface) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pool{
		config: cfg,
		logger: log,
		sem:    make(chan struct{}, cfg.PoolSize),
		stopCh: make(chan struct{}),
	}

	p.state.Store(int32(PoolStateStopped))

	return p, nil
}

// Start makes the pool accept acquisitions.
func (p *Pool) Start() error {
	if !p.state.CompareAndSwap(int32(PoolStateStopped), int32(PoolStateRunning)) {
		return errors.New("pool is already running")
	}

	p.logger.Info("automation pool started", "pool_size", p.config.PoolSize)

	return nil
}

// Stop gracefully stops the pool: no new acquisitions succeed, and Stop
// waits until active sessions release their slots or the drain timeout
// elapses.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(PoolStateRunning), int32(PoolStateDraining)) {
		return errors.New("pool is not running")
	}

	p.logger.Info("automation pool draining", "active", p.Active())

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("automation pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("automation pool stop cancelled", "active", p.Active())
	case <-time.After(p.config.DrainTimeout):
		p.logger.Warn("automation pool drain timeout exceeded", "active", p.Active())
	}

	p.state.Store(int32(PoolStateStopped))
	return nil
}

// Acquire blocks until a session slot is free, the context expires, or the
// pool begins draining. Every successful Acquire must be paired with one
// Release.
func (p *Pool) Acquire(ctx context.Context) error {
	if p.State() != PoolStateRunning {
		return ErrPoolNotRunning
	}

	select {
	case p.sem <- struct{}{}:
		// Got a slot
	case <-ctx.Done():
		p.acquireTimeouts.Add(1)
		return fmt.Errorf("waiting for automation slot: %w", ctx.Err())
	case <-p.stopCh:
		return ErrPoolDraining
	}

	p.wg.Add(1)
	p.totalAcquired.Add(1)

	active := p.active.Add(1)
	for {
		peak := p.peakActive.Load()
		if active <= peak || p.peakActive.CompareAndSwap(peak, active) {
			break
		}
	}

	return nil
}

// TryAcquire attempts to take a slot without blocking. It returns false
// when every slot is busy.
func (p *Pool) TryAcquire() bool {
	if p.State() != PoolStateRunning {
		return false
	}

	select {
	case p.sem <- struct{}{}:
		// Got a slot
	default:
		return false
	}

	p.wg.Add(1)
	p.totalAcquired.Add(1)

	active := p.active.Add(1)
	for {
		peak := p.peakActive.Load()
		if active <= peak || p.peakActive.CompareAndSwap(peak, active) {
			break
		}
	}

	return true
}

// Release returns a slot to the pool.
func (p *Pool) Release() {
	<-p.sem
	p.active.Add(-1)
	p.wg.Done()
}

// State returns the current pool state.
func (p *Pool) State() PoolState {
	return PoolState(p.state.Load())
}

// IsRunning returns true if the pool is accepting acquisitions.
func (p *Pool) IsRunning() bool {
	return p.State() == PoolStateRunning
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.config.PoolSize
}

// Active returns the number of slots currently held.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Idle returns the number of free slots.
func (p *Pool) Idle() int {
	return p.Size() - p.Active()
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		State:           p.State(),
		PoolSize:        p.config.PoolSize,
		Active:          p.Active(),
		Idle:            p.Idle(),
		TotalAcquired:   p.totalAcquired.Load(),
		AcquireTimeouts: p.acquireTimeouts.Load(),
		PeakActive:      int(p.peakActive.Load()),
	}
}

// PoolStats holds statistics for the pool.
type PoolStats struct {
	State           PoolState `json:"state"`
	PoolSize        int       `json:"pool_size"`
	Active          int       `json:"active"`
	Idle            int       `json:"idle"`
	TotalAcquired   int64     `json:"total_acquired"`
	AcquireTimeouts int64     `json:"acquire_timeouts"`
	PeakActive      int       `json:"peak_active"`
}

// MarshalText renders the state as its string form in JSON stats output.
func (s PoolState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
