package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/lookup"
)

// LookupService runs a full registration lookup through cache, fast
// extraction, and browser automation.
type LookupService interface {
	Lookup(ctx context.Context, req lookup.Request) (*domain.VehicleRecord, error)
}

// LookupHandler handles POST /api/v1/lookup.
type LookupHandler struct {
	service  LookupService
	cacheTTL time.Duration
	log      logger.Interface
}

// NewLookupHandler creates a lookup handler.
func NewLookupHandler(service LookupService, cacheTTL time.Duration, log logger.Interface) *LookupHandler {
	return &LookupHandler{
		service:  service,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Lookup handles POST /api/v1/lookup.
func (h *LookupHandler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success:   false,
			Error:     publicMessage(domain.ErrorTypeInvalidFormat),
			ErrorType: string(domain.ErrorTypeInvalidFormat),
		})
		return
	}

	record, err := h.service.Lookup(c.Request.Context(), lookup.Request{
		Registration: req.Registration,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, LookupResponse{
		Success:       true,
		CacheExpires:  record.CacheExpires(h.cacheTTL),
		VehicleRecord: record,
	})
}
