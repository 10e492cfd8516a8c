package api_test

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/lookup"
	"github.com/jonesrussell/regcheck/internal/worker"
)

// errMockNoData is returned by mock methods that return nil values (not implemented in test).
var errMockNoData = errors.New("mock: no data")

// mockLookupService implements api.LookupService for testing.
type mockLookupService struct {
	lookupFunc func(ctx context.Context, req lookup.Request) (*domain.VehicleRecord, error)
}

func (m *mockLookupService) Lookup(ctx context.Context, req lookup.Request) (*domain.VehicleRecord, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, req)
	}
	return nil, errMockNoData
}

// mockVehicleRepo implements database.VehicleRepositoryInterface for testing.
type mockVehicleRepo struct {
	getFunc   func(ctx context.Context, registration string) (*domain.VehicleRecord, error)
	listFunc  func(ctx context.Context, limit int) ([]*domain.VehicleRecord, error)
	countFunc func(ctx context.Context) (int, error)
}

func (m *mockVehicleRepo) Upsert(ctx context.Context, record *domain.VehicleRecord) error {
	return nil
}

func (m *mockVehicleRepo) GetByRegistration(ctx context.Context, registration string) (*domain.VehicleRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, registration)
	}
	return nil, errMockNoData
}

func (m *mockVehicleRepo) List(ctx context.Context, limit int) ([]*domain.VehicleRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit)
	}
	return nil, errMockNoData
}

func (m *mockVehicleRepo) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.VehicleRecord, error) {
	return nil, errMockNoData
}

func (m *mockVehicleRepo) Count(ctx context.Context) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

// mockHistoryRepo implements database.SearchHistoryRepositoryInterface for testing.
type mockHistoryRepo struct {
	listRecentFunc func(ctx context.Context, limit int) ([]*domain.SearchHistoryEntry, error)
	countFunc      func(ctx context.Context) (int, error)
}

func (m *mockHistoryRepo) Insert(ctx context.Context, entry *domain.SearchHistoryEntry) error {
	return nil
}

func (m *mockHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SearchHistoryEntry, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit)
	}
	return nil, errMockNoData
}

func (m *mockHistoryRepo) Count(ctx context.Context) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

// mockPool implements api.PoolStatsProvider for testing.
type mockPool struct {
	stats worker.PoolStats
}

func (m *mockPool) Stats() worker.PoolStats {
	return m.stats
}

// mockPinger implements api.Pinger for testing.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.pingErr
}

func intPtr(n int) *int {
	return &n
}

// testRecord builds a cached record with enough fields populated to
// exercise response shaping.
func testRecord(registration string) *domain.VehicleRecord {
	scrapedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.VehicleRecord{
		Registration: registration,
		Make:         "FORD",
		Model:        "FOCUS",
		Color:        "Blue",
		FuelType:     "PETROL",
		Year:         intPtr(2018),
		MOTDaysLeft:  intPtr(45),
		MileageInfo:  domain.JSONBMap{"Last MOT Mileage": "41,339 miles"},
		Source:       domain.SourceLiveScraping,
		ScrapedAt:    scrapedAt,
		CreatedAt:    scrapedAt,
		UpdatedAt:    scrapedAt,
	}
}
