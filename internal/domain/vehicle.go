// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// VehicleRecord source constants. Source records which tier produced the
// data returned to the caller.
const (
	SourceCache         = "cache"
	SourceLiveScraping  = "live_scraping"
	SourceVNCAutomation = "vnc_automation"
)

// VehicleRecord holds everything known about one registration. Exactly one
// record exists per normalized registration; a successful extraction always
// replaces the whole row (snapshot semantics, no partial updates).
type VehicleRecord struct {
	// Identity
	Registration string `db:"registration" json:"registration"`

	// Descriptive
	Make         string `db:"make"          json:"make,omitempty"`
	Model        string `db:"model"         json:"model,omitempty"`
	Variant      string `db:"variant"       json:"variant,omitempty"`
	Description  string `db:"description"   json:"description,omitempty"`
	Color        string `db:"color"         json:"color,omitempty"`
	FuelType     string `db:"fuel_type"     json:"fuel_type,omitempty"`
	Transmission string `db:"transmission"  json:"transmission,omitempty"`
	EngineSize   string `db:"engine_size"   json:"engine_size,omitempty"`
	BodyStyle    string `db:"body_style"    json:"body_style,omitempty"`
	Year         *int   `db:"year"          json:"year,omitempty"`

	// Compliance
	TaxExpiry   *time.Time `db:"tax_expiry"    json:"tax_expiry,omitempty"`
	TaxDaysLeft *int       `db:"tax_days_left" json:"tax_days_left,omitempty"`
	MOTExpiry   *time.Time `db:"mot_expiry"    json:"mot_expiry,omitempty"`
	MOTDaysLeft *int       `db:"mot_days_left" json:"mot_days_left,omitempty"`

	// History
	RegistrationDate    string `db:"registration_date"     json:"registration_date,omitempty"`
	LastV5CIssueDate    string `db:"last_v5c_issue_date"   json:"last_v5c_issue_date,omitempty"`
	TotalKeepers        *int   `db:"total_keepers"         json:"total_keepers,omitempty"`
	V5CCertificateCount *int   `db:"v5c_certificate_count" json:"v5c_certificate_count,omitempty"`

	// Nested metric groups. Each is a flat name->value mapping extracted
	// from the source page; absent groups stay empty and are omitted from
	// responses. Partial records are valid.
	MileageInfo    JSONBMap `db:"mileage_info"    json:"mileage_info,omitempty"`
	Performance    JSONBMap `db:"performance"     json:"performance,omitempty"`
	FuelEconomy    JSONBMap `db:"fuel_economy"    json:"fuel_economy,omitempty"`
	SafetyRatings  JSONBMap `db:"safety_ratings"  json:"safety_ratings,omitempty"`
	AdditionalInfo JSONBMap `db:"additional_info" json:"additional_info,omitempty"`

	// Provenance
	Source    string    `db:"source"     json:"source"`
	ScrapedAt time.Time `db:"scraped_at" json:"scraped_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Age returns how long ago the record was scraped.
func (v *VehicleRecord) Age(now time.Time) time.Duration {
	return now.Sub(v.ScrapedAt)
}

// CacheExpires returns the instant the record stops being fresh.
func (v *VehicleRecord) CacheExpires(ttl time.Duration) time.Time {
	return v.ScrapedAt.Add(ttl)
}

// Summary returns the narrow list-view shape of the record.
func (v *VehicleRecord) Summary() VehicleSummary {
	return VehicleSummary{
		Registration: v.Registration,
		Make:         v.Make,
		Model:        v.Model,
		Color:        v.Color,
		FuelType:     v.FuelType,
		Year:         v.Year,
		Source:       v.Source,
		ScrapedAt:    v.ScrapedAt,
	}
}

// VehicleSummary is the reduced record shape used by list endpoints and
// the cache-only lookup. It never carries the nested metric groups.
type VehicleSummary struct {
	Registration string    `json:"registration"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	Color        string    `json:"color,omitempty"`
	FuelType     string    `json:"fuel_type,omitempty"`
	Year         *int      `json:"year,omitempty"`
	Source       string    `json:"source"`
	ScrapedAt    time.Time `json:"scraped_at"`
}
