package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/metrics"
	"github.com/jonesrussell/regcheck/internal/worker"
)

// PoolStatsProvider exposes automation pool counters for the stats endpoint.
type PoolStatsProvider interface {
	Stats() worker.PoolStats
}

// StatsHandler aggregates lookup metrics, pool state, and store counts.
type StatsHandler struct {
	metrics  *metrics.Metrics
	pool     PoolStatsProvider
	vehicles database.VehicleRepositoryInterface
	history  database.SearchHistoryRepositoryInterface
	log      logger.Interface
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(
	met *metrics.Metrics,
	pool PoolStatsProvider,
	vehicles database.VehicleRepositoryInterface,
	history database.SearchHistoryRepositoryInterface,
	log logger.Interface,
) *StatsHandler {
	return &StatsHandler{
		metrics:  met,
		pool:     pool,
		vehicles: vehicles,
		history:  history,
		log:      log,
	}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	vehicleCount, err := h.vehicles.Count(ctx)
	if err != nil {
		h.log.Error("vehicle count failed", "error", err)
		respondInternalError(c, "failed to read store counts")
		return
	}

	historyCount, err := h.history.Count(ctx)
	if err != nil {
		h.log.Error("history count failed", "error", err)
		respondInternalError(c, "failed to read store counts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lookups": h.metrics.Snapshot(),
		"pool":    h.pool.Stats(),
		"store": gin.H{
			"cached_vehicles": vehicleCount,
			"history_entries": historyCount,
		},
	})
}
