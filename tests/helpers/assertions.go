// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/regcheck/internal/database"
)

// AssertVehicleCached checks that a registration is cached with the
// expected source.
func AssertVehicleCached(
	t require.TestingT,
	ctx context.Context,
	repo database.VehicleRepositoryInterface,
	registration, source string,
) {
	record, err := repo.GetByRegistration(ctx, registration)
	require.NoError(t, err, "registration %s should be cached", registration)
	assert.Equal(t, source, record.Source, "cached record for %s has wrong source", registration)
}

// AssertVehicleNotCached checks that a registration is absent from the cache.
func AssertVehicleNotCached(
	t require.TestingT,
	ctx context.Context,
	repo database.VehicleRepositoryInterface,
	registration string,
) {
	_, err := repo.GetByRegistration(ctx, registration)
	assert.ErrorIs(t, err, database.ErrRecordNotFound, "registration %s should not be cached", registration)
}

// RequireHistoryCount checks the history row count. Lookups write their
// entry before returning, so an exact count is deterministic.
func RequireHistoryCount(
	t require.TestingT,
	ctx context.Context,
	repo database.SearchHistoryRepositoryInterface,
	expected int,
) {
	count, err := repo.Count(ctx)
	require.NoError(t, err, "failed to count history entries")
	require.Equal(t, expected, count, "history entry count")
}
