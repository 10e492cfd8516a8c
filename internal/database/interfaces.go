package database

import (
	"context"
	"time"

	"github.com/jonesrussell/regcheck/internal/domain"
)

// VehicleRepositoryInterface defines the contract for cached vehicle record
// access.
type VehicleRepositoryInterface interface {
	Upsert(ctx context.Context, record *domain.VehicleRecord) error
	GetByRegistration(ctx context.Context, registration string) (*domain.VehicleRecord, error)
	List(ctx context.Context, limit int) ([]*domain.VehicleRecord, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.VehicleRecord, error)
	Count(ctx context.Context) (int, error)
}

// SearchHistoryRepositoryInterface defines the contract for the append-only
// lookup history log.
type SearchHistoryRepositoryInterface interface {
	Insert(ctx context.Context, entry *domain.SearchHistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]*domain.SearchHistoryEntry, error)
	Count(ctx context.Context) (int, error)
}
