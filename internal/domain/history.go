// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// SearchHistoryEntry records one lookup attempt. The table is append-only:
// entries are never mutated or deleted, and every lookup writes exactly one
// regardless of outcome.
type SearchHistoryEntry struct {
	ID           string    `db:"id"            json:"id"`
	Registration string    `db:"registration"  json:"registration"`
	SearchedAt   time.Time `db:"searched_at"   json:"searched_at"`
	IPAddress    string    `db:"ip_address"    json:"ip_address,omitempty"`
	UserAgent    string    `db:"user_agent"    json:"user_agent,omitempty"`
	Success      bool      `db:"success"       json:"success"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	Source       string    `db:"source"        json:"source,omitempty"`
	DurationMs   int64     `db:"duration_ms"   json:"duration_ms"`
}
