// Package api implements the HTTP API for the lookup service.
package api

import (
	"time"

	"github.com/jonesrussell/regcheck/internal/domain"
)

// LookupRequest is the body of POST /api/v1/lookup.
type LookupRequest struct {
	Registration string `json:"registration" binding:"required"`
}

// LookupResponse wraps a successful lookup. The record's fields flatten
// into the top level alongside the envelope fields.
type LookupResponse struct {
	Success      bool      `json:"success"`
	CacheExpires time.Time `json:"cache_expires"`
	*domain.VehicleRecord
}

// ErrorResponse is the failure body for lookup endpoints.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// VehiclesListResponse is the body of GET /api/v1/vehicles.
type VehiclesListResponse struct {
	Vehicles []domain.VehicleSummary `json:"vehicles"`
	Count    int                     `json:"count"`
}

// HistoryListResponse is the body of GET /api/v1/history.
type HistoryListResponse struct {
	History []*domain.SearchHistoryEntry `json:"history"`
	Count   int                          `json:"count"`
}
