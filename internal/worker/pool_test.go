package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/worker"
)

func newRunningPool(t *testing.T, size int) *worker.Pool {
	t.Helper()

	cfg := worker.DefaultConfig()
	cfg.PoolSize = size

	p, err := worker.NewPool(cfg, logger.NewNoOp())
	require.NoError(t, err)
	require.NoError(t, p.Start())

	return p
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*worker.Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *worker.Config) {}, false},
		{"zero pool size", func(c *worker.Config) { c.PoolSize = 0 }, true},
		{"oversized pool", func(c *worker.Config) { c.PoolSize = worker.MaxPoolSize + 1 }, true},
		{"zero drain timeout", func(c *worker.Config) { c.DrainTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := worker.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPool_Lifecycle(t *testing.T) {
	p := newRunningPool(t, 1)

	assert.Equal(t, worker.PoolStateRunning, p.State())
	assert.True(t, p.IsRunning())

	// Double start fails.
	assert.Error(t, p.Start())

	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, worker.PoolStateStopped, p.State())

	// Double stop fails.
	assert.Error(t, p.Stop(context.Background()))
}

func TestPool_AcquireRelease(t *testing.T) {
	p := newRunningPool(t, 2)
	defer func() { _ = p.Stop(context.Background()) }()

	ctx := context.Background()

	require.NoError(t, p.Acquire(ctx))
	assert.Equal(t, 1, p.Active())
	assert.Equal(t, 1, p.Idle())

	require.NoError(t, p.Acquire(ctx))
	assert.Equal(t, 2, p.Active())
	assert.Equal(t, 0, p.Idle())

	p.Release()
	p.Release()
	assert.Equal(t, 0, p.Active())

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.TotalAcquired)
	assert.Equal(t, 2, stats.PeakActive)
}

func TestPool_AcquireWhenStopped(t *testing.T) {
	cfg := worker.DefaultConfig()
	p, err := worker.NewPool(cfg, logger.NewNoOp())
	require.NoError(t, err)

	err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, worker.ErrPoolNotRunning)
}

func TestPool_AcquireRespectsContext(t *testing.T) {
	p := newRunningPool(t, 1)
	defer func() { _ = p.Stop(context.Background()) }()

	require.NoError(t, p.Acquire(context.Background()))

	// Second acquire must give up when the context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), p.Stats().AcquireTimeouts)

	p.Release()
}

func TestPool_TryAcquire(t *testing.T) {
	p := newRunningPool(t, 1)
	defer func() { _ = p.Stop(context.Background()) }()

	assert.True(t, p.TryAcquire())
	assert.False(t, p.TryAcquire(), "full pool should refuse without blocking")

	p.Release()
	assert.True(t, p.TryAcquire())
	p.Release()
}

func TestPool_BoundHoldsUnderConcurrentLoad(t *testing.T) {
	const (
		poolSize   = 2
		goroutines = 10
	)

	p := newRunningPool(t, poolSize)
	defer func() { _ = p.Stop(context.Background()) }()

	var (
		wg         sync.WaitGroup
		concurrent atomic.Int32
		maxSeen    atomic.Int32
	)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := p.Acquire(context.Background()); err != nil {
				return
			}
			defer p.Release()

			now := concurrent.Add(1)
			for {
				seen := maxSeen.Load()
				if now <= seen || maxSeen.CompareAndSwap(seen, now) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			concurrent.Add(-1)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, int(maxSeen.Load()), poolSize,
		"concurrent sessions must never exceed the pool bound")
	assert.Equal(t, int64(goroutines), p.Stats().TotalAcquired)
	assert.LessOrEqual(t, p.Stats().PeakActive, poolSize)
}

func TestPool_StopReleasesWaiters(t *testing.T) {
	p := newRunningPool(t, 1)

	require.NoError(t, p.Acquire(context.Background()))

	waiterErr := make(chan error, 1)
	go func() {
		err := p.Acquire(context.Background())
		if err == nil {
			p.Release()
		}
		waiterErr <- err
	}()

	// Give the waiter time to block on the semaphore.
	time.Sleep(20 * time.Millisecond)

	p.Release()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	select {
	case err := <-waiterErr:
		// The waiter either won the freed slot before draining began or
		// was turned away; it must not be left blocked.
		if err != nil {
			assert.ErrorIs(t, err, worker.ErrPoolDraining)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter still blocked after pool stop")
	}
}
