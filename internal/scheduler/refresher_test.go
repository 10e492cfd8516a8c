package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/regcheck/internal/config"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/lookup"
)

type stubLister struct {
	records   []*domain.VehicleRecord
	err       error
	gotCutoff time.Time
	gotLimit  int
	listCalls int
}

func (s *stubLister) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.VehicleRecord, error) {
	s.listCalls++
	s.gotCutoff = cutoff
	s.gotLimit = limit
	return s.records, s.err
}

type stubService struct {
	requests []lookup.Request
	fn       func(req lookup.Request) (*domain.VehicleRecord, error)
}

func (s *stubService) Lookup(ctx context.Context, req lookup.Request) (*domain.VehicleRecord, error) {
	s.requests = append(s.requests, req)
	if s.fn != nil {
		return s.fn(req)
	}
	return &domain.VehicleRecord{Registration: req.Registration}, nil
}

func staleRecords(registrations ...string) []*domain.VehicleRecord {
	records := make([]*domain.VehicleRecord, 0, len(registrations))
	for _, reg := range registrations {
		records = append(records, &domain.VehicleRecord{
			Registration: reg,
			ScrapedAt:    time.Now().Add(-48 * time.Hour),
		})
	}
	return records
}

func newTestRefresher(cfg *config.SchedulerConfig, lister *stubLister, service *stubService) *Refresher {
	return NewRefresher(cfg, 24*time.Hour, lister, service, logger.NewNoOp())
}

func enabledConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Enabled:   true,
		Schedule:  "0 * * * *",
		BatchSize: 10,
	}
}

func TestRunSweep_RefreshesStaleBatch(t *testing.T) {
	lister := &stubLister{records: staleRecords("AB12CDE", "XY69GHJ", "CD34EFG")}
	service := &stubService{}
	r := newTestRefresher(enabledConfig(), lister, service)

	r.runSweep(context.Background())

	require.Len(t, service.requests, 3)
	assert.Equal(t, "AB12CDE", service.requests[0].Registration)
	assert.Equal(t, refreshUserAgent, service.requests[0].UserAgent)
	assert.Empty(t, service.requests[0].IPAddress)
}

func TestRunSweep_CutoffAndLimit(t *testing.T) {
	lister := &stubLister{}
	cfg := enabledConfig()
	cfg.BatchSize = 5
	r := newTestRefresher(cfg, lister, &stubService{})

	before := time.Now().Add(-24 * time.Hour)
	r.runSweep(context.Background())
	after := time.Now().Add(-24 * time.Hour)

	require.Equal(t, 1, lister.listCalls)
	assert.Equal(t, 5, lister.gotLimit)
	assert.False(t, lister.gotCutoff.Before(before))
	assert.False(t, lister.gotCutoff.After(after))
}

func TestRunSweep_ContinuesPastRecordFailures(t *testing.T) {
	lister := &stubLister{records: staleRecords("AB12CDE", "ZZ99ZZZ", "CD34EFG")}
	service := &stubService{
		fn: func(req lookup.Request) (*domain.VehicleRecord, error) {
			if req.Registration == "ZZ99ZZZ" {
				return nil, domain.ErrVehicleNotFound
			}
			return &domain.VehicleRecord{Registration: req.Registration}, nil
		},
	}
	r := newTestRefresher(enabledConfig(), lister, service)

	r.runSweep(context.Background())

	assert.Len(t, service.requests, 3)
}

func TestRunSweep_AbortsWhenSourceUnavailable(t *testing.T) {
	lister := &stubLister{records: staleRecords("AB12CDE", "XY69GHJ", "CD34EFG")}
	service := &stubService{
		fn: func(req lookup.Request) (*domain.VehicleRecord, error) {
			return nil, domain.ErrServiceUnavailable
		},
	}
	r := newTestRefresher(enabledConfig(), lister, service)

	r.runSweep(context.Background())

	assert.Len(t, service.requests, 1, "remaining batch should be left for the next run")
}

func TestRunSweep_CancelledContext(t *testing.T) {
	lister := &stubLister{records: staleRecords("AB12CDE", "XY69GHJ")}
	service := &stubService{}
	r := newTestRefresher(enabledConfig(), lister, service)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.runSweep(ctx)

	assert.Empty(t, service.requests)
}

func TestRunSweep_ListFailure(t *testing.T) {
	lister := &stubLister{err: assert.AnError}
	service := &stubService{}
	r := newTestRefresher(enabledConfig(), lister, service)

	r.runSweep(context.Background())

	assert.Empty(t, service.requests)
}

func TestStart_Disabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	r := newTestRefresher(cfg, &stubLister{}, &stubService{})

	require.NoError(t, r.Start())
	r.Stop()
}

func TestStart_InvalidSchedule(t *testing.T) {
	cfg := enabledConfig()
	cfg.Schedule = "not a cron expression"
	r := newTestRefresher(cfg, &stubLister{}, &stubService{})

	require.Error(t, r.Start())
}
