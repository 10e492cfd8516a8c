package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/regcheck/internal/domain"
)

const defaultVehicleListLimit = 100

// vehicleColumns is the full column list shared by every SELECT so scans
// stay aligned with domain.VehicleRecord.
const vehicleColumns = `registration, make, model, variant, description, color, fuel_type,
	       transmission, engine_size, body_style, year, tax_expiry, tax_days_left,
	       mot_expiry, mot_days_left, registration_date, last_v5c_issue_date,
	       total_keepers, v5c_certificate_count, mileage_info, performance,
	       fuel_economy, safety_ratings, additional_info, source, scraped_at,
	       created_at, updated_at`

// VehicleRepository handles database operations for cached vehicle records.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository creates a new vehicle record repository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Upsert inserts a vehicle record or fully replaces the existing row for the
// same registration. Last write wins; a successful extraction always
// overwrites the whole snapshot.
func (r *VehicleRepository) Upsert(ctx context.Context, record *domain.VehicleRecord) error {
	if record.Registration == "" {
		return errors.New("vehicle record registration is empty")
	}
	if record.ScrapedAt.IsZero() {
		record.ScrapedAt = time.Now()
	}

	query := `
		INSERT INTO vehicle_records (registration, make, model, variant, description, color,
		                         fuel_type, transmission, engine_size, body_style, year,
		                         tax_expiry, tax_days_left, mot_expiry, mot_days_left,
		                         registration_date, last_v5c_issue_date, total_keepers,
		                         v5c_certificate_count, mileage_info, performance,
		                         fuel_economy, safety_ratings, additional_info, source,
		                         scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		ON CONFLICT (registration)
		DO UPDATE SET
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			variant = EXCLUDED.variant,
			description = EXCLUDED.description,
			color = EXCLUDED.color,
			fuel_type = EXCLUDED.fuel_type,
			transmission = EXCLUDED.transmission,
			engine_size = EXCLUDED.engine_size,
			body_style = EXCLUDED.body_style,
			year = EXCLUDED.year,
			tax_expiry = EXCLUDED.tax_expiry,
			tax_days_left = EXCLUDED.tax_days_left,
			mot_expiry = EXCLUDED.mot_expiry,
			mot_days_left = EXCLUDED.mot_days_left,
			registration_date = EXCLUDED.registration_date,
			last_v5c_issue_date = EXCLUDED.last_v5c_issue_date,
			total_keepers = EXCLUDED.total_keepers,
			v5c_certificate_count = EXCLUDED.v5c_certificate_count,
			mileage_info = EXCLUDED.mileage_info,
			performance = EXCLUDED.performance,
			fuel_economy = EXCLUDED.fuel_economy,
			safety_ratings = EXCLUDED.safety_ratings,
			additional_info = EXCLUDED.additional_info,
			source = EXCLUDED.source,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		record.Registration,
		record.Make,
		record.Model,
		record.Variant,
		record.Description,
		record.Color,
		record.FuelType,
		record.Transmission,
		record.EngineSize,
		record.BodyStyle,
		record.Year,
		record.TaxExpiry,
		record.TaxDaysLeft,
		record.MOTExpiry,
		record.MOTDaysLeft,
		record.RegistrationDate,
		record.LastV5CIssueDate,
		record.TotalKeepers,
		record.V5CCertificateCount,
		record.MileageInfo,
		record.Performance,
		record.FuelEconomy,
		record.SafetyRatings,
		record.AdditionalInfo,
		record.Source,
		record.ScrapedAt,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert vehicle record: %w", err)
	}

	return nil
}

// GetByRegistration retrieves the cached record for a normalized
// registration. Returns ErrRecordNotFound when no row exists.
func (r *VehicleRepository) GetByRegistration(
	ctx context.Context,
	registration string,
) (*domain.VehicleRecord, error) {
	var record domain.VehicleRecord
	query := fmt.Sprintf(`
		SELECT %s
		FROM vehicle_records
		WHERE registration = $1
	`, vehicleColumns)

	err := r.db.GetContext(ctx, &record, query, registration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, registration)
		}
		return nil, fmt.Errorf("failed to get vehicle record: %w", err)
	}

	return &record, nil
}

// List retrieves cached records, most recently updated first.
func (r *VehicleRepository) List(ctx context.Context, limit int) ([]*domain.VehicleRecord, error) {
	var records []*domain.VehicleRecord

	if limit <= 0 {
		limit = defaultVehicleListLimit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM vehicle_records
		ORDER BY updated_at DESC
		LIMIT $1
	`, vehicleColumns)

	err := r.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle records: %w", err)
	}

	if records == nil {
		records = []*domain.VehicleRecord{}
	}

	return records, nil
}

// ListStale retrieves records scraped before the cutoff, oldest first, so a
// refresh sweep re-scrapes the longest-expired entries ahead of the rest.
func (r *VehicleRepository) ListStale(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*domain.VehicleRecord, error) {
	var records []*domain.VehicleRecord

	if limit <= 0 {
		limit = defaultVehicleListLimit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM vehicle_records
		WHERE scraped_at < $1
		ORDER BY scraped_at ASC
		LIMIT $2
	`, vehicleColumns)

	err := r.db.SelectContext(ctx, &records, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale vehicle records: %w", err)
	}

	if records == nil {
		records = []*domain.VehicleRecord{}
	}

	return records, nil
}

// Count returns the total number of cached vehicle records.
func (r *VehicleRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM vehicle_records`

	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicle records: %w", err)
	}

	return count, nil
}
