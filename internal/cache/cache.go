// Package cache provides the Postgres-backed vehicle record cache. One row
// exists per normalized registration; writes replace the whole snapshot and
// the last write wins. Records never expire out of the store: stale data
// stays as last-known-good until a fresh extraction overwrites it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/domain"
)

// ErrNotFound reports that no cached record exists for a registration.
var ErrNotFound = errors.New("no cached record")

// DefaultTTL is the freshness window applied when none is configured.
const DefaultTTL = 24 * time.Hour

// FreshAt reports whether a record is still fresh at the given instant.
// A record aged exactly the TTL is stale.
func FreshAt(record *domain.VehicleRecord, now time.Time, ttl time.Duration) bool {
	if record == nil {
		return false
	}
	return now.Sub(record.ScrapedAt) < ttl
}

// Store reads and writes cached vehicle records. Persistence only; it never
// reaches the network.
type Store struct {
	vehicles database.VehicleRepositoryInterface
	ttl      time.Duration
}

// NewStore creates a cache store over the vehicle repository.
func NewStore(vehicles database.VehicleRepositoryInterface, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{vehicles: vehicles, ttl: ttl}
}

// Get retrieves the cached record for a normalized registration, fresh or
// stale. Returns ErrNotFound when the registration has never been cached.
func (s *Store) Get(ctx context.Context, registration string) (*domain.VehicleRecord, error) {
	record, err := s.vehicles.GetByRegistration(ctx, registration)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, registration)
		}
		return nil, fmt.Errorf("failed to read cached record: %w", err)
	}

	return record, nil
}

// Put stores a record, replacing any existing row for its registration.
func (s *Store) Put(ctx context.Context, record *domain.VehicleRecord) error {
	if err := s.vehicles.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	return nil
}

// IsFresh reports whether the record is inside the freshness window.
func (s *Store) IsFresh(record *domain.VehicleRecord) bool {
	return FreshAt(record, time.Now(), s.ttl)
}

// TTL returns the configured freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
