package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/registration"
)

const (
	defaultVehiclesLimit = 100
	maxListLimit         = 1000
)

// VehiclesHandler serves cached vehicle records. It only reads the store
// and never triggers a scrape.
type VehiclesHandler struct {
	vehicles database.VehicleRepositoryInterface
	log      logger.Interface
}

// NewVehiclesHandler creates a vehicles handler.
func NewVehiclesHandler(vehicles database.VehicleRepositoryInterface, log logger.Interface) *VehiclesHandler {
	return &VehiclesHandler{
		vehicles: vehicles,
		log:      log,
	}
}

// GetVehicle handles GET /api/v1/vehicles/:registration.
func (h *VehiclesHandler) GetVehicle(c *gin.Context) {
	normalized, err := registration.NormalizeAndValidate(c.Param("registration"))
	if err != nil {
		respondBadRequest(c, "invalid registration format")
		return
	}

	record, err := h.vehicles.GetByRegistration(c.Request.Context(), normalized)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			respondNotFound(c, "vehicle")
			return
		}
		h.log.Error("get vehicle failed", "registration", normalized, "error", err)
		respondInternalError(c, "failed to read vehicle")
		return
	}

	c.JSON(http.StatusOK, record.Summary())
}

// ListVehicles handles GET /api/v1/vehicles.
func (h *VehiclesHandler) ListVehicles(c *gin.Context) {
	limit := parseLimit(c, defaultVehiclesLimit, maxListLimit)

	records, err := h.vehicles.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("list vehicles failed", "error", err)
		respondInternalError(c, "failed to list vehicles")
		return
	}

	summaries := make([]domain.VehicleSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.Summary())
	}

	c.JSON(http.StatusOK, VehiclesListResponse{
		Vehicles: summaries,
		Count:    len(summaries),
	})
}
